// Package i18n translates the locsync command line interface.
//
// Catalogs are gettext .po files embedded as locales/<lang>/LC_MESSAGES/locsync.po.
// Init picks the first catalog matching LOCSYNC_LANG or the usual gettext
// variables; messages without a catalog are printed in English.
package i18n

import (
	"embed"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/leonelquinteros/gotext"
)

//go:embed all:locales
var catalogs embed.FS

const (
	domain  = "locsync"
	rootDir = "locales"

	// EnvLang overrides the language chosen from the locale variables.
	EnvLang = "LOCSYNC_LANG"
)

var (
	po     *gotext.Locale
	active string
)

// Init activates the catalog for lang, or for the first language requested
// by the environment when lang is empty, and returns the catalog name.
// It returns "" and leaves messages untranslated when nothing matches.
func Init(lang string) string {
	wanted := []string{lang}
	if lang == "" {
		wanted = requested(os.Getenv)
	}

	po, active = nil, ""
	available := Catalogs()
	for _, w := range wanted {
		name := match(w, available)
		if name == "" {
			continue
		}
		l := gotext.NewLocaleFSWithPath(name, catalogs, rootDir)
		l.AddDomain(domain)
		l.SetDomain(domain)
		po, active = l, name
		break
	}
	return active
}

// Language returns the active catalog name, or "" for English.
func Language() string { return active }

// Catalogs lists the embedded catalog names, sorted.
func Catalogs() []string {
	entries, err := fs.ReadDir(catalogs, rootDir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

// T returns the translation of msgid, or msgid itself.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N is the plural form of T.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// requested returns the languages asked for by the environment, most
// preferred first: LOCSYNC_LANG, every entry of LANGUAGE, then LC_ALL,
// LC_MESSAGES and LANG.
func requested(getenv func(string) string) []string {
	var raw []string
	raw = append(raw, getenv(EnvLang))
	raw = append(raw, strings.Split(getenv("LANGUAGE"), ":")...)
	raw = append(raw, getenv("LC_ALL"), getenv("LC_MESSAGES"), getenv("LANG"))

	var out []string
	for _, v := range raw {
		// "ru_RU.UTF-8@euro" -> "ru_RU"
		v, _, _ = strings.Cut(v, ".")
		v, _, _ = strings.Cut(v, "@")
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// match finds the catalog for lang: an exact name first, then the bare
// language ("pt_BR" -> "pt").
func match(lang string, available []string) string {
	lang = strings.ReplaceAll(lang, "-", "_")
	base, _, _ := strings.Cut(lang, "_")
	for _, want := range []string{lang, base} {
		for _, a := range available {
			if strings.EqualFold(a, want) {
				return a
			}
		}
	}
	return ""
}
