// Package locales lists the locale codes accepted by cloud localization
// tables, with display metadata for the CLI.
package locales

import (
	"sort"
	"strings"
)

// Meta describes a supported locale.
type Meta struct {
	Name    string // native name
	English string
	Flag    string
}

// Registry holds every locale a localization table accepts. Codes are
// lowercase with a hyphenated region.
var Registry = map[string]Meta{
	"de":    {Name: "Deutsch", English: "German", Flag: "🇩🇪"},
	"en":    {Name: "English", English: "English", Flag: "🇺🇸"},
	"es":    {Name: "Español", English: "Spanish", Flag: "🇪🇸"},
	"fr":    {Name: "Français", English: "French", Flag: "🇫🇷"},
	"id":    {Name: "Bahasa Indonesia", English: "Indonesian", Flag: "🇮🇩"},
	"it":    {Name: "Italiano", English: "Italian", Flag: "🇮🇹"},
	"ja":    {Name: "日本語", English: "Japanese", Flag: "🇯🇵"},
	"ko":    {Name: "한국어", English: "Korean", Flag: "🇰🇷"},
	"pl":    {Name: "Polski", English: "Polish", Flag: "🇵🇱"},
	"pt":    {Name: "Português", English: "Portuguese", Flag: "🇧🇷"},
	"ru":    {Name: "Русский", English: "Russian", Flag: "🇷🇺"},
	"th":    {Name: "ไทย", English: "Thai", Flag: "🇹🇭"},
	"tr":    {Name: "Türkçe", English: "Turkish", Flag: "🇹🇷"},
	"uk":    {Name: "Українська", English: "Ukrainian", Flag: "🇺🇦"},
	"vi":    {Name: "Tiếng Việt", English: "Vietnamese", Flag: "🇻🇳"},
	"zh-cn": {Name: "简体中文", English: "Chinese (Simplified)", Flag: "🇨🇳"},
	"zh-tw": {Name: "繁體中文", English: "Chinese (Traditional)", Flag: "🇹🇼"},
}

// Normalize lowercases a code and turns underscores into hyphens, so
// "zh_CN" and "ZH-cn" both become "zh-cn".
func Normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
}

// IsSupported reports whether code, after normalization, is in Registry.
func IsSupported(code string) bool {
	_, ok := Registry[Normalize(code)]
	return ok
}

// Resolve returns metadata for code. Unknown codes fall back to their base
// language ("pt-br" -> "pt"), then to the code itself as name.
func Resolve(code string) Meta {
	normalized := Normalize(code)
	if m, ok := Registry[normalized]; ok {
		return m
	}
	if base, _, found := strings.Cut(normalized, "-"); found {
		if m, ok := Registry[base]; ok {
			return m
		}
	}
	return Meta{Name: code, English: code}
}

// Codes returns the supported codes, sorted.
func Codes() []string {
	out := make([]string, 0, len(Registry))
	for c := range Registry {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
