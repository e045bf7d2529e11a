// Package store reads and writes per-locale translation files.
//
// Each locale lives in its own file under a directory, <dir>/<locale>.json
// or <dir>/<locale>.yaml. Files hold a nested map with string leaves:
//
//	{
//	  "ui": {
//	    "buttons": { "buy": "Buy" }
//	  }
//	}
//
// Nested keys are flattened to dot paths ("ui.buttons.buy"). Rails i18n
// style, where the whole file sits under a single top-level locale key, is
// accepted on read when that key equals the file's locale.
// Non-string leaves (numbers, booleans, null, arrays) are skipped.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/minios-linux/locsync/translation"
)

// Format selects the on-disk encoding of locale files.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" and "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown file format %q (valid: json, yaml)", s)
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// FileStore is a directory of locale files on a billy filesystem.
type FileStore struct {
	fs     billy.Filesystem
	dir    string
	format Format
	logger *slog.Logger
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithFormat sets the file format. The default is JSON.
func WithFormat(f Format) Option {
	return func(s *FileStore) { s.format = f }
}

// WithLogger sets the logger used for skipped values.
func WithLogger(l *slog.Logger) Option {
	return func(s *FileStore) { s.logger = l }
}

// New returns a store for locale files in dir on fsys.
func New(fsys billy.Filesystem, dir string, opts ...Option) *FileStore {
	s := &FileStore{fs: fsys, dir: dir, format: FormatJSON}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Path returns the file path for locale.
func (s *FileStore) Path(locale string) string {
	return s.fs.Join(s.dir, locale+s.format.Ext())
}

// ReadLocaleFile returns the records of locale sorted by key. A missing
// file yields an error matching fs.ErrNotExist.
func (s *FileStore) ReadLocaleFile(locale string) ([]translation.Record, error) {
	path := s.Path(locale)
	data, err := util.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var flat map[string]string
	switch s.format {
	case FormatYAML:
		flat, err = decodeYAML(data, locale, s.skip(path))
	default:
		flat, err = decodeJSON(data, locale, s.skip(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	records := make([]translation.Record, 0, len(flat))
	for k, v := range flat {
		records = append(records, translation.Record{Key: k, Locale: locale, Value: v})
	}
	translation.Sort(records)
	return records, nil
}

// WriteLocaleFile replaces the file of locale with records. Records of
// other locales are ignored. Keys are written nested and sorted.
func (s *FileStore) WriteLocaleFile(locale string, records []translation.Record) error {
	tree, err := unflatten(locale, records)
	if err != nil {
		return err
	}

	var data []byte
	switch s.format {
	case FormatYAML:
		data, err = encodeYAML(tree)
	default:
		data, err = encodeJSON(tree)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", locale, err)
	}

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", s.dir, err)
	}
	path := s.Path(locale)
	if err := util.WriteFile(s.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// LocaleExists reports whether the file of locale exists.
func (s *FileStore) LocaleExists(locale string) (bool, error) {
	path := s.Path(locale)
	_, err := s.fs.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
}

func (s *FileStore) skip(path string) func(key, kind string) {
	return func(key, kind string) {
		s.logger.Debug("skipping non-string value", "file", path, "key", key, "kind", kind)
	}
}

// ---------------------------------------------------------------------------
// Nesting
// ---------------------------------------------------------------------------

// node is one level of the nested key tree. Values are string or node.
type node map[string]any

// unflatten builds the nested tree for locale. A key that is both a leaf
// and a prefix of another key cannot be represented and is an error.
func unflatten(locale string, records []translation.Record) (node, error) {
	values := make(map[string]string)
	for _, r := range records {
		if r.Locale == locale {
			values[r.Key] = r.Value
		}
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := node{}
	for _, key := range keys {
		parts := strings.Split(key, ".")
		cur := root
		for i, part := range parts[:len(parts)-1] {
			switch next := cur[part].(type) {
			case nil:
				child := node{}
				cur[part] = child
				cur = child
			case node:
				cur = next
			default:
				return nil, fmt.Errorf("key %q conflicts with value at %q", key, strings.Join(parts[:i+1], "."))
			}
		}
		last := parts[len(parts)-1]
		if _, ok := cur[last].(node); ok {
			return nil, fmt.Errorf("key %q is also a prefix of other keys", key)
		}
		cur[last] = values[key]
	}
	return root, nil
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
