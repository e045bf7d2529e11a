package cloudsync

import (
	"sort"

	"github.com/minios-linux/locsync/cloud"
	"github.com/minios-linux/locsync/translation"
)

// entryTypeManual marks entries created by this tool rather than by the
// automatic text scraper.
const entryTypeManual = "manual"

// GroupEntries folds records into one table entry per key, sorted by key.
//
// The base-locale value becomes the entry source and every other locale a
// translation. When a key has no base-locale record, the value of its
// smallest locale code is used as source and all locales are kept as
// translations. The entry context is the first non-empty context in locale
// order.
func GroupEntries(records []translation.Record, baseLocale string) []cloud.Entry {
	byKey := make(map[string][]translation.Record)
	for _, r := range records {
		byKey[r.Key] = append(byKey[r.Key], r)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]cloud.Entry, 0, len(keys))
	for _, key := range keys {
		recs := byKey[key]
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Locale < recs[j].Locale })

		entry := cloud.Entry{
			Identifier: cloud.Identifier{Key: key},
			Metadata:   &cloud.EntryMetadata{EntryType: entryTypeManual},
		}

		hasBase := false
		for _, r := range recs {
			if r.Locale == baseLocale {
				entry.Identifier.Source = r.Value
				hasBase = true
			}
			if entry.Identifier.Context == "" && r.Context != "" {
				entry.Identifier.Context = r.Context
			}
		}
		if !hasBase {
			entry.Identifier.Source = recs[0].Value
		}

		entry.Translations = make([]cloud.Translation, 0, len(recs))
		for _, r := range recs {
			if r.Locale == baseLocale {
				continue
			}
			entry.Translations = append(entry.Translations, cloud.Translation{
				Locale:          r.Locale,
				TranslationText: r.Value,
			})
		}
		entries = append(entries, entry)
	}
	return entries
}

// ExpandEntries turns table entries into records: one base-locale record
// from the entry source plus one per translation. A translation listed for
// the base locale is ignored; the source wins.
func ExpandEntries(entries []cloud.Entry, baseLocale string) []translation.Record {
	var records []translation.Record
	for _, e := range entries {
		id := e.Identifier
		records = append(records, translation.Record{
			Key:     id.Key,
			Locale:  baseLocale,
			Value:   id.Source,
			Context: id.Context,
		})
		for _, tr := range e.Translations {
			if tr.Locale == baseLocale {
				continue
			}
			records = append(records, translation.Record{
				Key:     id.Key,
				Locale:  tr.Locale,
				Value:   tr.TranslationText,
				Context: id.Context,
			})
		}
	}
	return records
}
