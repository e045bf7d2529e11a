// Package validate checks local translations for completeness against the
// base locale.
package validate

import (
	"sort"

	"github.com/minios-linux/locsync/translation"
)

// Coverage describes one locale relative to the base locale.
type Coverage struct {
	Locale string
	// Total is the number of keys in the base locale.
	Total int
	// Translated counts base keys that have a non-empty value here.
	Translated int
	// Missing lists base keys without a value here, sorted.
	Missing []string
	// Empty lists base keys whose value here is "", sorted.
	Empty []string
	// Extra lists keys that exist here but not in the base locale, sorted.
	Extra []string
}

// Percent returns the translated share of base keys. A locale is fully
// covered when the base locale has no keys.
func (c Coverage) Percent() float64 {
	if c.Total == 0 {
		return 100
	}
	return float64(c.Translated) * 100 / float64(c.Total)
}

// Complete reports whether every base key has a non-empty value.
func (c Coverage) Complete() bool {
	return c.Translated == c.Total
}

// Report is the result of Check.
type Report struct {
	BaseLocale string
	// Locales holds one entry per checked locale, in the order given to
	// Check. The base locale is included.
	Locales []Coverage
}

// Complete reports whether every checked locale is complete.
func (r Report) Complete() bool {
	for _, c := range r.Locales {
		if !c.Complete() {
			return false
		}
	}
	return true
}

// MissingCount returns the number of missing or empty values across all
// locales.
func (r Report) MissingCount() int {
	n := 0
	for _, c := range r.Locales {
		n += c.Total - c.Translated
	}
	return n
}

// Check compares every locale in locales with base. Locales without any
// records are reported with every base key missing.
func Check(records []translation.Record, base string, locales []string) Report {
	byLocale := make(map[string]map[string]string)
	for _, r := range records {
		if byLocale[r.Locale] == nil {
			byLocale[r.Locale] = make(map[string]string)
		}
		byLocale[r.Locale][r.Key] = r.Value
	}

	baseKeys := make([]string, 0, len(byLocale[base]))
	for k := range byLocale[base] {
		baseKeys = append(baseKeys, k)
	}
	sort.Strings(baseKeys)

	report := Report{BaseLocale: base}
	seen := make(map[string]bool)
	for _, locale := range locales {
		if seen[locale] {
			continue
		}
		seen[locale] = true

		values := byLocale[locale]
		c := Coverage{Locale: locale, Total: len(baseKeys)}
		for _, k := range baseKeys {
			v, ok := values[k]
			switch {
			case !ok:
				c.Missing = append(c.Missing, k)
			case v == "":
				c.Empty = append(c.Empty, k)
			default:
				c.Translated++
			}
		}
		for k := range values {
			if _, ok := byLocale[base][k]; !ok {
				c.Extra = append(c.Extra, k)
			}
		}
		sort.Strings(c.Extra)
		report.Locales = append(report.Locales, c)
	}
	return report
}
