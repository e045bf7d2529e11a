// Command locsync syncs game translation files with Roblox Open Cloud localization tables.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/locsync/cloud"
	"github.com/minios-linux/locsync/config"
	"github.com/minios-linux/locsync/i18n"
	"github.com/minios-linux/locsync/locales"
	"github.com/minios-linux/locsync/settings"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir string
	verbose bool
	apiURL  string
)

// setupLogging routes library logs to stderr. Retry warnings are always
// shown; --verbose adds request and file tracing.
func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "locsync",
		Short: i18n.T("Sync translation files with Roblox Open Cloud localization tables"),
		Long: `locsync keeps local translation files and a Roblox localization table in sync.

Local translations live in one JSON or YAML file per locale. The table is
addressed by its UUID or by the numeric id of the universe that owns it.

Commands:
  init        Create locsync.yaml
  upload      Push local translations to the table
  download    Pull the table into local files
  sync        Reconcile both sides with a merge strategy
  validate    Check local files for missing translations
  auth        Manage the Open Cloud API key
  locales     List locales accepted by localization tables

Merge strategies (sync):
  overwrite       Push every local value; nothing is downloaded
  merge           Upload local-only keys, download cloud-only keys, cloud wins conflicts
  skip-conflicts  Like merge, but conflicting keys are left alone and saved to conflicts.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(verbose)
		},
	}

	// Global persistent flags, inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests, retries and file writes")
	root.PersistentFlags().StringVar(&apiURL, "api-url", cloud.DefaultBaseURL, "Open Cloud API root")
	_ = root.PersistentFlags().MarkHidden("api-url")

	root.AddCommand(
		newInitCmd(),
		newUploadCmd(),
		newDownloadCmd(),
		newSyncCmd(),
		newValidateCmd(),
		newAuthCmd(),
		newLocalesCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		if hint := errorHint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", hint)
		}
		os.Exit(1)
	}
}

// errorHint suggests a next step based on the kind of a cloud error.
func errorHint(err error) string {
	switch cloud.KindOf(err) {
	case cloud.KindAuthentication:
		return i18n.T("Check the API key and that it has access to this table (locsync auth status).")
	case cloud.KindRateLimit:
		return i18n.T("Still rate limited after retrying. Wait a minute or lower cloud.requests_per_second.")
	case cloud.KindServer:
		return i18n.T("Roblox Open Cloud is having trouble. Try again later.")
	case cloud.KindNetwork:
		return i18n.T("Could not reach Roblox Open Cloud. Check your network connection.")
	case cloud.KindConfig:
		return fmt.Sprintf(i18n.T("Fix %s or your credentials and try again."), config.FileName)
	case cloud.KindAPI:
		return i18n.T("The request was rejected. Check the table id and locale codes.")
	}
	return ""
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, build date and interface language.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("locsync version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
			fmt.Printf("  language:  %s\n", uiLanguage())
		},
	}
}

// uiLanguage names the active message catalog.
func uiLanguage() string {
	if lang := i18n.Language(); lang != "" {
		return lang
	}
	return "en (built in)"
}

// ---------------------------------------------------------------------------
// init (write locsync.yaml)
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	var (
		baseLocale string
		localeList []string
		tableID    string
		format     string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create locsync.yaml in the project root",
		Long: `Create a locsync.yaml with default settings.

Examples:
  locsync init --locales en,es,id --table-id 0b3c8a64-7f0e-4f1a-9c3d-2a5b6c7d8e9f
  locsync init --base-locale en --locales en,pt,zh-cn --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.Exists(rootDir) && !force {
				return fmt.Errorf(i18n.T("%s already exists (use --force to overwrite)"), config.Path(rootDir))
			}

			cfg := config.Default()
			cfg.BaseLocale = locales.Normalize(baseLocale)
			cfg.SupportedLocales = normalizeLocales(localeList, cfg.BaseLocale)
			cfg.Cloud.TableID = tableID
			cfg.Format = format
			if err := cfg.Validate(); err != nil {
				return err
			}
			for _, w := range cfg.Warnings() {
				logWarning("%s", w)
			}
			if err := cfg.Save(rootDir); err != nil {
				return err
			}

			logSuccess(i18n.T("Created %s"), config.Path(rootDir))
			if tableID == "" {
				logInfo("%s", i18n.T("Set cloud.table_id before running upload, download or sync"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseLocale, "base-locale", "en", "Source locale of every key")
	cmd.Flags().StringSliceVar(&localeList, "locales", nil, "Comma-separated locales to sync (base locale is always included)")
	cmd.Flags().StringVar(&tableID, "table-id", "", "Localization table UUID or universe id")
	cmd.Flags().StringVar(&format, "format", "json", "Translation file format: json or yaml")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing locsync.yaml")

	return cmd
}

// normalizeLocales puts base first, then the other locales in the given
// order, normalized and without duplicates.
func normalizeLocales(list []string, base string) []string {
	out := []string{base}
	seen := map[string]bool{base: true}
	for _, l := range list {
		l = locales.Normalize(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

// ---------------------------------------------------------------------------
// locales (list supported locales)
// ---------------------------------------------------------------------------

func newLocalesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locales",
		Short: "List locales accepted by localization tables",
		Run: func(cmd *cobra.Command, args []string) {
			configured := map[string]bool{}
			if cfg, err := config.Load(rootDir); err == nil {
				for _, l := range cfg.SupportedLocales {
					configured[locales.Normalize(l)] = true
				}
			}

			fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Supported locales"), colorReset)
			fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
			for _, code := range locales.Codes() {
				fmt.Println(localeLine(code, configured[code]))
			}
			fmt.Fprintln(os.Stderr)
		},
	}
}

func localeLine(code string, configured bool) string {
	m := locales.Resolve(code)
	mark := " "
	if configured {
		mark = colorGreen + "*" + colorReset
	}
	return fmt.Sprintf("%s %s %-6s %-22s %s", mark, m.Flag, code, m.English, m.Name)
}

// ---------------------------------------------------------------------------
// auth (API key management)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Open Cloud API key",
		Long: `Manage the Open Cloud API key used for localization tables.

The key needs the legacy-localization-tables read and write scopes.
Lookup order: --api-key flag, ROBLOX_CLOUD_API_KEY, cloud.api_key in
locsync.yaml, then the key stored by 'locsync auth login'.

Examples:
  locsync auth login                 Prompt for a key and store it
  locsync auth login --key <key>     Store a key non-interactively
  locsync auth logout                Remove the stored key
  locsync auth status                Show which key would be used`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an Open Cloud API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				existing := settings.GetAPIKey()
				fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Roblox Open Cloud API Key Setup"), colorReset)
				fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
				fmt.Fprintf(os.Stderr, "  %s %s%s%s\n\n", i18n.T("Create a key at:"), colorGreen, "https://create.roblox.com/dashboard/credentials", colorReset)
				if existing != "" {
					fmt.Fprintf(os.Stderr, "  %s %s%s%s\n", i18n.T("Current key:"), colorYellow, settings.MaskKey(existing), colorReset)
					fmt.Fprintf(os.Stderr, "  %s", i18n.T("Enter new key to replace, or press Enter to keep: "))
				} else {
					fmt.Fprintf(os.Stderr, "  %s", i18n.T("Enter API key: "))
				}

				scanner := bufio.NewScanner(cmd.InOrStdin())
				if !scanner.Scan() {
					return errors.New(i18n.T("no input received"))
				}
				key = strings.TrimSpace(scanner.Text())
				if key == "" {
					if existing != "" {
						logInfo("%s", i18n.T("Keeping existing key"))
						return nil
					}
					return errors.New(i18n.T("no API key provided"))
				}
			}

			if err := settings.SetAPIKey(key); err != nil {
				return err
			}
			logSuccess(i18n.T("API key saved to %s"), settings.FilePath())
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "API key (prompted when omitted)")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.Remove(); err != nil {
				return fmt.Errorf(i18n.T("removing stored key: %w"), err)
			}
			logSuccess("%s", i18n.T("Stored API key removed"))
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which API key would be used",
		Run: func(cmd *cobra.Command, args []string) {
			configKey := ""
			if cfg, err := config.Load(rootDir); err == nil {
				configKey = cfg.Cloud.APIKey
			}

			fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("API Key"), colorReset)
			fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

			key, source, err := settings.ResolveAPIKey("", configKey)
			switch {
			case err != nil && source != "":
				fmt.Fprintf(os.Stderr, "  %-18s %s%s%s\n", source, colorRed, err, colorReset)
			case err != nil:
				fmt.Fprintf(os.Stderr, "  %s%s%s\n", colorRed, i18n.T("not configured"), colorReset)
			default:
				fmt.Fprintf(os.Stderr, "  %-18s %s%s%s\n", source, colorGreen, settings.MaskKey(key), colorReset)
			}

			envKey := os.Getenv(settings.EnvAPIKey)
			if envKey != "" {
				fmt.Fprintf(os.Stderr, "  %s: %s%s%s\n", settings.EnvAPIKey, colorGreen, settings.MaskKey(envKey), colorReset)
			} else {
				fmt.Fprintf(os.Stderr, "  %s: %s%s%s\n", settings.EnvAPIKey, colorRed, i18n.T("not set"), colorReset)
			}
			fmt.Fprintf(os.Stderr, "  %s %s\n\n", i18n.T("Credential store:"), settings.FilePath())
		},
	}
}
