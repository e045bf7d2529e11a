package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

func decodeJSON(data []byte, locale string, skip func(key, kind string)) (map[string]string, error) {
	out := make(map[string]string)
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}

	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("JSON root must be an object, got %T", root)
	}

	// Rails style: {"<locale>": {...}}.
	if len(obj) == 1 {
		if inner, ok := obj[locale].(map[string]any); ok {
			obj = inner
		}
	}

	flattenJSON(obj, "", out, skip)
	return out, nil
}

func flattenJSON(obj map[string]any, prefix string, out map[string]string, skip func(key, kind string)) {
	for k, v := range obj {
		path := joinKey(prefix, k)
		switch val := v.(type) {
		case string:
			out[path] = val
		case map[string]any:
			flattenJSON(val, path, out, skip)
		case nil:
			skip(path, "null")
		default:
			skip(path, fmt.Sprintf("%T", val))
		}
	}
}

// encodeJSON writes the tree with sorted keys and two-space indentation.
func encodeJSON(tree node) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toJSONValue(tree)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// toJSONValue converts node to map[string]any; encoding/json sorts map keys.
func toJSONValue(n node) map[string]any {
	out := make(map[string]any, len(n))
	for k, v := range n {
		if child, ok := v.(node); ok {
			out[k] = toJSONValue(child)
			continue
		}
		out[k] = v
	}
	return out
}
