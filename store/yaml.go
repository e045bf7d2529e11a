package store

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

func decodeYAML(data []byte, locale string, skip func(key, kind string)) (map[string]string, error) {
	out := make(map[string]string)

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	// Empty file.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return out, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("YAML root must be a mapping, got kind %d", root.Kind)
	}

	// Rails i18n style: single top-level key naming the locale.
	if len(root.Content) == 2 {
		keyNode, valNode := root.Content[0], root.Content[1]
		if keyNode.Value == locale && valNode.Kind == yaml.MappingNode {
			root = valNode
		}
	}

	collectYAML(root, "", out, skip)
	return out, nil
}

func collectYAML(n *yaml.Node, prefix string, out map[string]string, skip func(key, kind string)) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]
		path := joinKey(prefix, keyNode.Value)

		if valNode.Kind == yaml.AliasNode && valNode.Alias != nil {
			valNode = valNode.Alias
		}

		switch valNode.Kind {
		case yaml.MappingNode:
			collectYAML(valNode, path, out, skip)
		case yaml.ScalarNode:
			switch valNode.Tag {
			case "!!bool", "!!int", "!!float", "!!null":
				skip(path, valNode.Tag)
				continue
			}
			out[path] = valNode.Value
		default:
			skip(path, "sequence")
		}
	}
}

func encodeYAML(tree node) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{yamlMapping(tree)}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yamlMapping(n node) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		if child, ok := n[k].(node); ok {
			m.Content = append(m.Content, keyNode, yamlMapping(child))
			continue
		}
		val := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n[k].(string)}
		m.Content = append(m.Content, keyNode, val)
	}
	return m
}
