// Package translation defines the flat translation record shared by the
// merge engine, the local store and the cloud sync orchestrator.
//
// A record is a single (key, locale) -> value pair with an optional context
// string. Nested file structures are flattened to dot-separated keys
// (e.g. "ui.buttons.buy") before they reach this package.
package translation

import "sort"

// Record is one translated string for one locale.
type Record struct {
	Key     string
	Locale  string
	Value   string
	Context string // empty means no context
}

// Key identifies a record inside a Map.
type Key struct {
	Key    string
	Locale string
}

// Less orders keys by key, then by locale.
func (k Key) Less(other Key) bool {
	if k.Key != other.Key {
		return k.Key < other.Key
	}
	return k.Locale < other.Locale
}

// Map is a (key, locale) -> value mapping. Pairs are unique by construction.
type Map map[Key]string

// ToMap reduces records to a Map. When the same (key, locale) pair appears
// more than once the last record wins.
func ToMap(records []Record) Map {
	m := make(Map, len(records))
	for _, r := range records {
		m[Key{Key: r.Key, Locale: r.Locale}] = r.Value
	}
	return m
}

// Records returns the map contents as records sorted by (key, locale).
func (m Map) Records() []Record {
	keys := m.SortedKeys()
	out := make([]Record, 0, len(keys))
	for _, k := range keys {
		out = append(out, Record{Key: k.Key, Locale: k.Locale, Value: m[k]})
	}
	return out
}

// SortedKeys returns the map keys sorted by (key, locale).
func (m Map) SortedKeys() []Key {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Sort orders records by (key, locale) in place.
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a := Key{Key: records[i].Key, Locale: records[i].Locale}
		b := Key{Key: records[j].Key, Locale: records[j].Locale}
		return a.Less(b)
	})
}

// GroupByLocale splits records per locale, preserving input order within
// each locale.
func GroupByLocale(records []Record) map[string][]Record {
	out := make(map[string][]Record)
	for _, r := range records {
		out[r.Locale] = append(out[r.Locale], r)
	}
	return out
}

// Locales returns the distinct locales of records, sorted.
func Locales(records []Record) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if !seen[r.Locale] {
			seen[r.Locale] = true
			out = append(out, r.Locale)
		}
	}
	sort.Strings(out)
	return out
}
