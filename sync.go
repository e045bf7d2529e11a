package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/minios-linux/locsync/cloud"
	"github.com/minios-linux/locsync/cloudsync"
	"github.com/minios-linux/locsync/config"
	"github.com/minios-linux/locsync/i18n"
	"github.com/minios-linux/locsync/merge"
	"github.com/minios-linux/locsync/ratelimit"
	"github.com/minios-linux/locsync/settings"
	"github.com/minios-linux/locsync/store"
)

// cloudArgs are the flags shared by upload, download and sync.
type cloudArgs struct {
	tableID string
	apiKey  string
	dryRun  bool
}

func (a *cloudArgs) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.tableID, "table-id", "", "Table UUID or universe id (default: cloud.table_id)")
	cmd.Flags().StringVar(&a.apiKey, "api-key", "", "Open Cloud API key (default: env, config, then stored key)")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "Show what would change without writing anything")
}

// session holds everything one cloud command needs.
type session struct {
	cfg     *config.Config
	orch    *cloudsync.Orchestrator
	tableID string
}

// openSession loads the config, resolves the key and the table, and wires
// the orchestrator to the project's translation directory.
func openSession(ctx context.Context, a cloudArgs) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	key, source, err := settings.ResolveAPIKey(a.apiKey, cfg.Cloud.APIKey)
	if err != nil {
		return nil, err
	}
	slog.Debug("using API key", "source", source, "key", settings.MaskKey(key))

	tableID := a.tableID
	if tableID == "" {
		tableID = cfg.Cloud.TableID
	}
	if tableID == "" {
		return nil, cloud.NewConfigError(i18n.T("no table id; set cloud.table_id or pass --table-id"))
	}

	limiter := ratelimit.New(
		ratelimit.WithMaxRetries(cfg.Cloud.MaxRetries),
		ratelimit.WithBaseDelay(cfg.Cloud.BaseDelay),
		ratelimit.WithLogger(slog.Default()),
	)
	client := cloud.NewClient(key,
		cloud.WithBaseURL(apiURL),
		cloud.WithGameID(cfg.Cloud.GameID),
		cloud.WithRequestsPerSecond(cfg.Cloud.RequestsPerSecond),
		cloud.WithUserAgent("locsync/"+version),
		cloud.WithLogger(slog.Default()),
	)

	resolved, err := ratelimit.Execute(ctx, limiter, func(ctx context.Context) (string, error) {
		return client.ResolveTableID(ctx, tableID)
	})
	if err != nil {
		return nil, err
	}
	if resolved != tableID {
		logInfo(i18n.T("Universe %s resolved to table %s"), tableID, resolved)
	}
	if name := tableName(ctx, client, resolved); name != "" {
		logInfo(i18n.T("Using table %s (%s)"), name, resolved)
	}

	local, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	orch := cloudsync.New(client, local, cloudsync.Options{
		BaseLocale: cfg.BaseLocale,
		Locales:    cfg.SupportedLocales,
		Limiter:    limiter,
		Conflicts:  cloudsync.NewConflictFile(osfs.New(cfg.OutputPath(rootDir)), "."),
		Logger:     slog.Default(),
	})

	return &session{cfg: cfg, orch: orch, tableID: resolved}, nil
}

// loadConfig reads locsync.yaml from the project root and prints its
// warnings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cloud.NewConfigError(fmt.Sprintf(i18n.T("no %s in %s; run 'locsync init' first"), config.FileName, rootDir))
		}
		return nil, err
	}
	for _, w := range cfg.Warnings() {
		logWarning("%s", w)
	}
	return cfg, nil
}

// openStore returns the local translation files of the project.
func openStore(cfg *config.Config) (*store.FileStore, error) {
	format, err := cfg.FileFormat()
	if err != nil {
		return nil, err
	}
	return store.New(osfs.New(cfg.InputPath(rootDir)), ".",
		store.WithFormat(format),
		store.WithLogger(slog.Default()),
	), nil
}

// tableName returns the display name of a table, or "" when the metadata
// cannot be read. The lookup is informational and never fails a command.
func tableName(ctx context.Context, client *cloud.Client, tableID string) string {
	meta, err := client.GetTableMetadata(ctx, tableID)
	if err != nil {
		slog.Debug("table metadata unavailable", "table", tableID, "error", err)
		return ""
	}
	return meta.Name
}

// withInterrupt returns a context cancelled on Ctrl+C.
func withInterrupt() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		select {
		case <-sigCh:
			logWarning("%s", i18n.T("Interrupted, stopping..."))
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func reportDryRun(dryRun bool) {
	if dryRun {
		logInfo("%s", i18n.T("This was a dry run. No changes were made."))
	}
}

// ---------------------------------------------------------------------------
// upload
// ---------------------------------------------------------------------------

func newUploadCmd() *cobra.Command {
	var a cloudArgs

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Push local translations to the localization table",
		Long: `Push every local translation to the table. Entries not present locally are
left untouched in the table.

Examples:
  locsync upload
  locsync upload --dry-run
  locsync upload --table-id 1234567890`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withInterrupt()
			defer cancel()

			s, err := openSession(ctx, a)
			if err != nil {
				return err
			}
			logInfo(i18n.T("Uploading translations to table %s"), s.tableID)

			stats, err := s.orch.Upload(ctx, s.tableID, a.dryRun)
			if err != nil {
				return err
			}

			printRows(
				row{i18n.T("Entries uploaded"), stats.EntriesUploaded},
				row{i18n.T("Locales processed"), stats.LocalesProcessed},
				row{i18n.T("Duration"), formatDuration(stats.Duration)},
			)
			reportDryRun(a.dryRun)
			if !a.dryRun {
				logSuccess("%s", i18n.T("Upload complete"))
			}
			return nil
		},
	}
	a.register(cmd)

	return cmd
}

// ---------------------------------------------------------------------------
// download
// ---------------------------------------------------------------------------

func newDownloadCmd() *cobra.Command {
	var a cloudArgs

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Pull the localization table into local files",
		Long: `Replace each locale file with the contents of the table.

Examples:
  locsync download
  locsync download --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withInterrupt()
			defer cancel()

			s, err := openSession(ctx, a)
			if err != nil {
				return err
			}
			logInfo(i18n.T("Downloading translations from table %s"), s.tableID)

			stats, err := s.orch.Download(ctx, s.tableID, a.dryRun)
			if err != nil {
				return err
			}

			printRows(
				row{i18n.T("Entries downloaded"), stats.EntriesDownloaded},
				row{i18n.T("Locales created"), stats.LocalesCreated},
				row{i18n.T("Locales updated"), stats.LocalesUpdated},
				row{i18n.T("Duration"), formatDuration(stats.Duration)},
			)
			reportDryRun(a.dryRun)
			if !a.dryRun {
				n := stats.LocalesCreated + stats.LocalesUpdated
				logSuccess(i18n.N("%d locale file written to %s", "%d locale files written to %s", n), n, s.cfg.InputPath(rootDir))
			}
			return nil
		},
	}
	a.register(cmd)

	return cmd
}

// ---------------------------------------------------------------------------
// sync
// ---------------------------------------------------------------------------

func newSyncCmd() *cobra.Command {
	var (
		a        cloudArgs
		strategy string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile local files and the localization table",
		Long: `Compare local translations with the table and apply a merge strategy.

Strategies:
  overwrite       Push every local value; nothing is downloaded
  merge           Upload local-only keys, download cloud-only keys, cloud wins conflicts
  skip-conflicts  Like merge, but conflicts are saved to <output_directory>/conflicts.yaml

Examples:
  locsync sync
  locsync sync --strategy skip-conflicts --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withInterrupt()
			defer cancel()

			s, err := openSession(ctx, a)
			if err != nil {
				return err
			}

			name := strategy
			if name == "" {
				name = s.cfg.Cloud.Strategy
			}
			st, err := merge.ParseStrategy(name)
			if err != nil {
				return err
			}
			logInfo(i18n.T("Syncing with table %s (strategy: %s)"), s.tableID, st)

			stats, err := s.orch.Sync(ctx, s.tableID, st, a.dryRun)
			if err != nil {
				return err
			}

			printRows(
				row{i18n.T("Added to cloud"), stats.EntriesAdded},
				row{i18n.T("Updated locally"), stats.EntriesUpdated},
				row{i18n.T("Deleted"), stats.EntriesDeleted},
				row{i18n.T("Conflicts skipped"), stats.ConflictsSkipped},
				row{i18n.T("Duration"), formatDuration(stats.Duration)},
			)
			if stats.ConflictsFile != "" {
				path := filepath.Join(s.cfg.OutputPath(rootDir), stats.ConflictsFile)
				logWarning(i18n.T("Conflicts saved to %s. Review and resolve them manually."), path)
			}
			reportDryRun(a.dryRun)
			if !a.dryRun {
				logSuccess("%s", i18n.T("Translations synchronized"))
			}
			return nil
		},
	}
	a.register(cmd)
	cmd.Flags().StringVar(&strategy, "strategy", "", "overwrite, merge or skip-conflicts (default: cloud.strategy)")
	_ = cmd.RegisterFlagCompletionFunc("strategy", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{
			merge.Overwrite.String() + "\tpush every local value",
			merge.Merge.String() + "\tcloud wins conflicts",
			merge.SkipConflicts.String() + "\tsave conflicts for review",
		}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// ---------------------------------------------------------------------------
// Output helpers
// ---------------------------------------------------------------------------

type row struct {
	label string
	value any
}

func printRows(rows ...row) {
	fmt.Println()
	for _, r := range rows {
		fmt.Printf("  %-20s %v\n", r.label+":", r.value)
	}
	fmt.Println()
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
