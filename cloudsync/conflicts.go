package cloudsync

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/locsync/merge"
)

// ConflictsFileName is the name of the side file written by ConflictFile.
const ConflictsFileName = "conflicts.yaml"

const conflictsHeader = "# Translation conflicts\n# Resolve these conflicts manually, then run sync again.\n\n"

// ConflictFile writes skipped conflicts to <dir>/conflicts.yaml.
type ConflictFile struct {
	fs  billy.Filesystem
	dir string
}

// NewConflictFile returns a ConflictWriter writing into dir on fsys.
func NewConflictFile(fsys billy.Filesystem, dir string) *ConflictFile {
	return &ConflictFile{fs: fsys, dir: dir}
}

// WriteConflicts replaces the conflicts file and returns its path.
func (c *ConflictFile) WriteConflicts(conflicts []merge.Conflict) (string, error) {
	data, err := MarshalConflicts(conflicts)
	if err != nil {
		return "", err
	}
	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", c.dir, err)
	}
	path := c.fs.Join(c.dir, ConflictsFileName)
	if err := util.WriteFile(c.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// MarshalConflicts renders conflicts grouped by locale:
//
//	es:
//	  ui.buy:
//	    local: Comprar
//	    cloud: Adquirir
//
// Locales and keys are sorted.
func MarshalConflicts(conflicts []merge.Conflict) ([]byte, error) {
	byLocale := make(map[string][]merge.Conflict)
	for _, c := range conflicts {
		byLocale[c.Locale] = append(byLocale[c.Locale], c)
	}
	locales := make([]string, 0, len(byLocale))
	for l := range byLocale {
		locales = append(locales, l)
	}
	sort.Strings(locales)

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, locale := range locales {
		list := byLocale[locale]
		sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })

		keys := &yaml.Node{Kind: yaml.MappingNode}
		for _, c := range list {
			keys.Content = append(keys.Content, str(c.Key), &yaml.Node{
				Kind: yaml.MappingNode,
				Content: []*yaml.Node{
					str("local"), str(c.LocalValue),
					str("cloud"), str(c.CloudValue),
				},
			})
		}
		root.Content = append(root.Content, str(locale), keys)
	}

	var buf bytes.Buffer
	buf.WriteString(conflictsHeader)
	if len(root.Content) == 0 {
		return buf.Bytes(), nil
	}

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encoding conflicts: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding conflicts: %w", err)
	}
	return buf.Bytes(), nil
}

func str(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}
