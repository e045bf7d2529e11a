// Package cloudsync moves translations between local locale files and a
// remote localization table.
//
// An Orchestrator offers three operations: Upload pushes local records,
// Download pulls remote entries into locale files, and Sync reconciles both
// sides with a merge strategy. Every remote call goes through a
// ratelimit.Limiter; the caller's context is the only deadline.
package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"time"

	"github.com/minios-linux/locsync/cloud"
	"github.com/minios-linux/locsync/merge"
	"github.com/minios-linux/locsync/ratelimit"
	"github.com/minios-linux/locsync/translation"
)

// RemoteClient is the remote table API used by the Orchestrator.
type RemoteClient interface {
	GetTableEntries(ctx context.Context, tableID string) ([]cloud.Entry, error)
	UpdateTableEntries(ctx context.Context, tableID string, entries []cloud.Entry) (*cloud.UpdateResult, error)
}

// LocalStore holds one file of records per locale. ReadLocaleFile returns
// an error matching fs.ErrNotExist when the locale has no file.
type LocalStore interface {
	ReadLocaleFile(locale string) ([]translation.Record, error)
	WriteLocaleFile(locale string, records []translation.Record) error
	LocaleExists(locale string) (bool, error)
}

// ConflictWriter persists conflicts skipped by Sync and returns where they
// were written.
type ConflictWriter interface {
	WriteConflicts(conflicts []merge.Conflict) (string, error)
}

// Options configures an Orchestrator.
type Options struct {
	// BaseLocale is the locale whose values are the entry source text.
	BaseLocale string
	// Locales are read from the LocalStore by Upload and Sync.
	Locales []string
	// Limiter retries transient remote failures. Nil uses ratelimit defaults.
	Limiter *ratelimit.Limiter
	// Conflicts receives skipped conflicts. Nil only counts them.
	Conflicts ConflictWriter
	Logger    *slog.Logger
	// Clock is used for durations. Nil uses time.Now.
	Clock func() time.Time
}

// UploadStats summarizes an Upload.
type UploadStats struct {
	EntriesUploaded  int
	LocalesProcessed int
	Duration         time.Duration
}

// DownloadStats summarizes a Download.
type DownloadStats struct {
	EntriesDownloaded int
	LocalesCreated    int
	LocalesUpdated    int
	Duration          time.Duration
}

// SyncStats summarizes a Sync. EntriesDeleted is always zero: deletions are
// never propagated.
type SyncStats struct {
	EntriesAdded     int
	EntriesUpdated   int
	EntriesDeleted   int
	ConflictsSkipped int
	ConflictsFile    string
	Duration         time.Duration
}

// Orchestrator runs sync operations. It keeps no state between calls.
type Orchestrator struct {
	remote     RemoteClient
	local      LocalStore
	baseLocale string
	locales    []string
	limiter    *ratelimit.Limiter
	conflicts  ConflictWriter
	logger     *slog.Logger
	now        func() time.Time
}

// New returns an Orchestrator over remote and local.
func New(remote RemoteClient, local LocalStore, opts Options) *Orchestrator {
	o := &Orchestrator{
		remote:     remote,
		local:      local,
		baseLocale: opts.BaseLocale,
		locales:    opts.Locales,
		limiter:    opts.Limiter,
		conflicts:  opts.Conflicts,
		logger:     opts.Logger,
		now:        opts.Clock,
	}
	if o.limiter == nil {
		o.limiter = ratelimit.New()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Upload pushes every local record to the table.
func (o *Orchestrator) Upload(ctx context.Context, tableID string, dryRun bool) (*UploadStats, error) {
	start := o.now()

	records, err := o.readLocal()
	if err != nil {
		return nil, err
	}
	entries := GroupEntries(records, o.baseLocale)
	o.logger.Info("uploading translations", "table", tableID, "entries", len(entries), "records", len(records), "dry_run", dryRun)

	if !dryRun && len(entries) > 0 {
		if err := o.push(ctx, tableID, entries); err != nil {
			return nil, err
		}
	}

	return &UploadStats{
		EntriesUploaded:  len(records),
		LocalesProcessed: len(translation.Locales(records)),
		Duration:         o.now().Sub(start),
	}, nil
}

// Download pulls every table entry and replaces the matching locale files.
// Locales are classified as created or updated even in dry-run mode.
func (o *Orchestrator) Download(ctx context.Context, tableID string, dryRun bool) (*DownloadStats, error) {
	start := o.now()

	entries, err := o.fetch(ctx, tableID)
	if err != nil {
		return nil, err
	}
	byLocale := translation.GroupByLocale(ExpandEntries(entries, o.baseLocale))
	o.logger.Info("downloaded translations", "table", tableID, "entries", len(entries), "locales", len(byLocale), "dry_run", dryRun)

	stats := &DownloadStats{EntriesDownloaded: len(entries)}
	for _, locale := range sortedLocales(byLocale) {
		exists, err := o.local.LocaleExists(locale)
		if err != nil {
			return nil, err
		}
		if exists {
			stats.LocalesUpdated++
		} else {
			stats.LocalesCreated++
		}
		if dryRun {
			continue
		}
		if err := o.local.WriteLocaleFile(locale, byLocale[locale]); err != nil {
			return nil, err
		}
		o.logger.Debug("wrote locale file", "locale", locale, "records", len(byLocale[locale]))
	}

	stats.Duration = o.now().Sub(start)
	return stats, nil
}

// Sync reconciles local files and the table with strategy. Without dryRun
// it uploads, then writes downloaded values, then records conflicts, in
// that order.
func (o *Orchestrator) Sync(ctx context.Context, tableID string, strategy merge.Strategy, dryRun bool) (*SyncStats, error) {
	if !strategy.Valid() {
		return nil, fmt.Errorf("invalid merge strategy %s", strategy)
	}
	start := o.now()

	localRecords, err := o.readLocal()
	if err != nil {
		return nil, err
	}
	entries, err := o.fetch(ctx, tableID)
	if err != nil {
		return nil, err
	}

	local := translation.ToMap(localRecords)
	remote := translation.ToMap(ExpandEntries(entries, o.baseLocale))
	diff := merge.ComputeDiff(local, remote)
	result := merge.ApplyStrategy(diff, strategy, local)

	o.logger.Info("computed sync plan",
		"strategy", strategy.String(),
		"upload", len(result.ToUpload),
		"download", len(result.ToDownload),
		"conflicts", len(result.Conflicts),
		"dry_run", dryRun,
	)

	stats := &SyncStats{
		EntriesAdded:     len(result.ToUpload),
		EntriesUpdated:   len(result.ToDownload),
		ConflictsSkipped: len(result.Conflicts),
	}

	if !dryRun {
		if len(result.ToUpload) > 0 {
			upload := withSource(result.ToUpload, o.baseLocale, local, remote)
			if err := o.push(ctx, tableID, GroupEntries(upload, o.baseLocale)); err != nil {
				return nil, err
			}
		}
		if len(result.ToDownload) > 0 {
			if err := o.overlay(result.ToDownload); err != nil {
				return nil, err
			}
		}
		if len(result.Conflicts) > 0 && o.conflicts != nil {
			path, err := o.conflicts.WriteConflicts(result.Conflicts)
			if err != nil {
				return nil, fmt.Errorf("writing conflicts: %w", err)
			}
			stats.ConflictsFile = path
		}
	}

	stats.Duration = o.now().Sub(start)
	return stats, nil
}

// readLocal reads the configured locales. Locales without a file are skipped.
func (o *Orchestrator) readLocal() ([]translation.Record, error) {
	var all []translation.Record
	for _, locale := range o.locales {
		records, err := o.local.ReadLocaleFile(locale)
		if errors.Is(err, fs.ErrNotExist) {
			o.logger.Debug("no local file for locale", "locale", locale)
			continue
		}
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

func (o *Orchestrator) fetch(ctx context.Context, tableID string) ([]cloud.Entry, error) {
	entries, err := ratelimit.Execute(ctx, o.limiter, func(ctx context.Context) ([]cloud.Entry, error) {
		return o.remote.GetTableEntries(ctx, tableID)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching table %s: %w", tableID, err)
	}
	return entries, nil
}

func (o *Orchestrator) push(ctx context.Context, tableID string, entries []cloud.Entry) error {
	res, err := ratelimit.Execute(ctx, o.limiter, func(ctx context.Context) (*cloud.UpdateResult, error) {
		return o.remote.UpdateTableEntries(ctx, tableID, entries)
	})
	if err != nil {
		return fmt.Errorf("updating table %s: %w", tableID, err)
	}
	if res != nil {
		o.logger.Info("table updated", "table", tableID, "modified", res.Modified, "failed", res.Failed)
	}
	return nil
}

// overlay writes downloaded records on top of each locale's existing file
// so keys absent from the download survive.
func (o *Orchestrator) overlay(records []translation.Record) error {
	byLocale := translation.GroupByLocale(records)
	for _, locale := range sortedLocales(byLocale) {
		existing, err := o.local.ReadLocaleFile(locale)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		merged := translation.ToMap(append(existing, byLocale[locale]...))
		if err := o.local.WriteLocaleFile(locale, merged.Records()); err != nil {
			return err
		}
		o.logger.Debug("wrote locale file", "locale", locale, "downloaded", len(byLocale[locale]))
	}
	return nil
}

// withSource adds the base-locale record of every uploaded key that lacks
// one. The table's current source is used when it has one; the local value
// only fills in keys the table has no source for.
func withSource(upload []translation.Record, baseLocale string, local, remote translation.Map) []translation.Record {
	hasBase := make(map[string]bool)
	for _, r := range upload {
		if r.Locale == baseLocale {
			hasBase[r.Key] = true
		}
	}

	out := append([]translation.Record(nil), upload...)
	for _, r := range upload {
		if hasBase[r.Key] {
			continue
		}
		k := translation.Key{Key: r.Key, Locale: baseLocale}
		if v, ok := remote[k]; ok {
			out = append(out, translation.Record{Key: r.Key, Locale: baseLocale, Value: v})
		} else if v, ok := local[k]; ok {
			out = append(out, translation.Record{Key: r.Key, Locale: baseLocale, Value: v})
		}
		hasBase[r.Key] = true
	}
	return out
}

func sortedLocales(m map[string][]translation.Record) []string {
	out := make([]string, 0, len(m))
	for l := range m {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
