// Package merge implements the diff/merge engine used by cloud sync.
//
// It compares a local and a cloud translation map and decides, under a
// merge strategy, which records go up, which come down and which are left
// for manual review. Everything here is pure: no I/O, no errors.
package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/minios-linux/locsync/translation"
)

// Strategy selects how conflicting values are resolved.
type Strategy int

const (
	// SkipConflicts syncs only non-conflicting entries and reports the rest.
	SkipConflicts Strategy = iota
	// Merge auto-resolves conflicts by preferring the cloud value.
	Merge
	// Overwrite treats local as ground truth and pushes all of it.
	Overwrite
)

// String returns the canonical CLI spelling of the strategy.
func (s Strategy) String() string {
	switch s {
	case Overwrite:
		return "overwrite"
	case Merge:
		return "merge"
	case SkipConflicts:
		return "skip-conflicts"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// Valid reports whether s is one of the defined strategies.
func (s Strategy) Valid() bool {
	return s == SkipConflicts || s == Merge || s == Overwrite
}

// ParseStrategy parses a strategy name. Accepts "overwrite", "merge",
// "skip-conflicts" and "skip_conflicts", case-insensitively.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "overwrite":
		return Overwrite, nil
	case "merge":
		return Merge, nil
	case "skip-conflicts", "skip_conflicts":
		return SkipConflicts, nil
	}
	return 0, fmt.Errorf("invalid merge strategy %q (valid: overwrite, merge, skip-conflicts)", name)
}

// Change is a record that differs between the two sides.
type Change struct {
	Key        string
	Locale     string
	LocalValue string
	CloudValue string
}

// Conflict is a (key, locale) pair present on both sides with different values.
type Conflict struct {
	Key        string
	Locale     string
	LocalValue string
	CloudValue string
}

// Diff is the classification of every (key, locale) pair in local ∪ cloud.
// Unchanged pairs are not listed.
type Diff struct {
	// AddedLocal holds pairs present only locally.
	AddedLocal []translation.Record
	// AddedCloud holds pairs present only in the cloud.
	AddedCloud []translation.Record
	// ModifiedBoth holds pairs present on both sides with different values.
	ModifiedBoth []Change
	// DeletedLocal lists pairs that exist remotely but not locally. It carries
	// the same keys as AddedCloud and is kept apart for a future prune mode,
	// where such pairs would be removed from the cloud instead of downloaded.
	DeletedLocal []translation.Key
}

// Result is the outcome of applying a strategy to a diff.
type Result struct {
	ToUpload   []translation.Record
	ToDownload []translation.Record
	Conflicts  []Conflict
}

// ComputeDiff classifies every pair of local and cloud. Output slices are
// sorted by (key, locale).
func ComputeDiff(local, cloud translation.Map) Diff {
	var d Diff

	for k, localValue := range local {
		cloudValue, ok := cloud[k]
		switch {
		case !ok:
			d.AddedLocal = append(d.AddedLocal, translation.Record{Key: k.Key, Locale: k.Locale, Value: localValue})
		case cloudValue != localValue:
			d.ModifiedBoth = append(d.ModifiedBoth, Change{
				Key:        k.Key,
				Locale:     k.Locale,
				LocalValue: localValue,
				CloudValue: cloudValue,
			})
		}
	}

	for k, cloudValue := range cloud {
		if _, ok := local[k]; ok {
			continue
		}
		d.AddedCloud = append(d.AddedCloud, translation.Record{Key: k.Key, Locale: k.Locale, Value: cloudValue})
		d.DeletedLocal = append(d.DeletedLocal, k)
	}

	translation.Sort(d.AddedLocal)
	translation.Sort(d.AddedCloud)
	sort.Slice(d.ModifiedBoth, func(i, j int) bool {
		a := translation.Key{Key: d.ModifiedBoth[i].Key, Locale: d.ModifiedBoth[i].Locale}
		b := translation.Key{Key: d.ModifiedBoth[j].Key, Locale: d.ModifiedBoth[j].Locale}
		return a.Less(b)
	})
	sort.Slice(d.DeletedLocal, func(i, j int) bool { return d.DeletedLocal[i].Less(d.DeletedLocal[j]) })

	return d
}

// ApplyStrategy turns a diff into upload/download lists and conflicts.
// The local map is only consulted by Overwrite, which ignores the diff.
// A strategy that is not Valid is applied as SkipConflicts, the only one
// that replaces no value on either side.
func ApplyStrategy(d Diff, strategy Strategy, local translation.Map) Result {
	switch strategy {
	case Overwrite:
		return Result{ToUpload: local.Records()}

	case Merge:
		download := make([]translation.Record, 0, len(d.AddedCloud)+len(d.ModifiedBoth))
		download = append(download, d.AddedCloud...)
		for _, c := range d.ModifiedBoth {
			download = append(download, translation.Record{Key: c.Key, Locale: c.Locale, Value: c.CloudValue})
		}
		translation.Sort(download)
		return Result{
			ToUpload:   cloneRecords(d.AddedLocal),
			ToDownload: download,
		}

	case SkipConflicts:
		return skipConflicts(d)
	}
	return skipConflicts(d)
}

func skipConflicts(d Diff) Result {
	conflicts := make([]Conflict, 0, len(d.ModifiedBoth))
	for _, c := range d.ModifiedBoth {
		conflicts = append(conflicts, Conflict(c))
	}
	return Result{
		ToUpload:   cloneRecords(d.AddedLocal),
		ToDownload: cloneRecords(d.AddedCloud),
		Conflicts:  conflicts,
	}
}

func cloneRecords(in []translation.Record) []translation.Record {
	if len(in) == 0 {
		return nil
	}
	out := make([]translation.Record, len(in))
	copy(out, in)
	return out
}
