package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/locsync/i18n"
	"github.com/minios-linux/locsync/store"
	"github.com/minios-linux/locsync/translation"
	"github.com/minios-linux/locsync/validate"
)

// maxListedKeys limits how many missing keys are printed per locale
// without --verbose.
const maxListedKeys = 10

// ---------------------------------------------------------------------------
// validate (local completeness check)
// ---------------------------------------------------------------------------

func newValidateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check local translations for missing keys",
		Long: `Compare every configured locale with the base locale and report
translation coverage, missing and empty values, and keys the base locale
does not have. Nothing is sent to the cloud.

Examples:
  locsync validate
  locsync validate --strict     Exit with an error when any key is missing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			local, err := openStore(cfg)
			if err != nil {
				return err
			}
			records, err := readLocales(local, cfg.SupportedLocales)
			if err != nil {
				return err
			}

			report := validate.Check(records, cfg.BaseLocale, cfg.SupportedLocales)
			printReport(report)

			if report.Complete() {
				logSuccess("%s", i18n.T("All locales are complete"))
				return nil
			}
			n := report.MissingCount()
			msg := fmt.Sprintf(i18n.N("%d translation is missing", "%d translations are missing", n), n)
			if strict {
				return errors.New(msg)
			}
			logWarning("%s", msg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any locale is incomplete")

	return cmd
}

// readLocales reads the given locales. Locales without a file contribute
// no records.
func readLocales(local *store.FileStore, locales []string) ([]translation.Record, error) {
	var all []translation.Record
	for _, locale := range locales {
		records, err := local.ReadLocaleFile(locale)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

func printReport(r validate.Report) {
	fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Translation coverage"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	for _, c := range r.Locales {
		fmt.Printf("  %-6s %s  %d/%d\n", c.Locale, progressBar(int(c.Percent()), 20), c.Translated, c.Total)
		printKeys(i18n.T("missing"), c.Missing)
		printKeys(i18n.T("empty"), c.Empty)
		printKeys(fmt.Sprintf(i18n.T("not in %s"), r.BaseLocale), c.Extra)
	}
	fmt.Println()
}

func printKeys(label string, keys []string) {
	if len(keys) == 0 {
		return
	}
	shown := keys
	if !verbose && len(shown) > maxListedKeys {
		shown = shown[:maxListedKeys]
	}
	fmt.Printf("         %s%s:%s %s", colorYellow, label, colorReset, strings.Join(shown, ", "))
	if len(shown) < len(keys) {
		fmt.Printf(i18n.T(" (+%d more, use --verbose)"), len(keys)-len(shown))
	}
	fmt.Println()
}

// progressBar renders percent as a colored bar of width cells followed by
// the percentage.
func progressBar(percent, width int) string {
	percent = max(0, min(percent, 100))
	filled := percent * width / 100

	color := colorRed
	switch {
	case percent >= 100:
		color = colorGreen
	case percent >= 50:
		color = colorYellow
	}
	return color + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + colorReset + fmt.Sprintf(" %3d%%", percent)
}
