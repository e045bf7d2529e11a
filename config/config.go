// Package config loads and validates locsync.yaml project configuration.
//
// The file lives in the project root and names the locales, the local
// translation directories and the remote table:
//
//	base_locale: en
//	supported_locales: [en, es, id]
//	input_directory: translations
//	output_directory: output
//	cloud:
//	  table_id: 0b3c8a64-7f0e-4f1a-9c3d-2a5b6c7d8e9f
//	  strategy: merge
//
// Missing fields take the values of Default().
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/locsync/cloud"
	"github.com/minios-linux/locsync/locales"
	"github.com/minios-linux/locsync/merge"
	"github.com/minios-linux/locsync/ratelimit"
	"github.com/minios-linux/locsync/store"
)

// FileName is the config file name looked up in the project root.
const FileName = "locsync.yaml"

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// Config is the top-level locsync.yaml structure.
type Config struct {
	// BaseLocale is the source language of every key (default "en").
	BaseLocale string `yaml:"base_locale"`
	// SupportedLocales are the locales read and written locally.
	SupportedLocales []string `yaml:"supported_locales"`
	// InputDirectory holds the per-locale translation files.
	InputDirectory string `yaml:"input_directory"`
	// OutputDirectory receives side files such as conflicts.yaml.
	OutputDirectory string `yaml:"output_directory"`
	// Format of the translation files: "json" or "yaml".
	Format string `yaml:"format,omitempty"`
	Cloud  Cloud  `yaml:"cloud"`
}

// Cloud configures the remote table and the retry policy.
type Cloud struct {
	// TableID is a table UUID or a numeric universe id.
	TableID string `yaml:"table_id,omitempty"`
	GameID  string `yaml:"game_id,omitempty"`
	// APIKey is accepted but discouraged; prefer the environment or `auth login`.
	APIKey            string        `yaml:"api_key,omitempty"`
	Strategy          string        `yaml:"strategy,omitempty"`
	MaxRetries        int           `yaml:"max_retries"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// Default returns the configuration used for missing fields and by init.
func Default() *Config {
	return &Config{
		BaseLocale:       "en",
		SupportedLocales: []string{"en"},
		InputDirectory:   "translations",
		OutputDirectory:  "output",
		Format:           string(store.FormatJSON),
		Cloud: Cloud{
			Strategy:          merge.Merge.String(),
			MaxRetries:        ratelimit.DefaultMaxRetries,
			BaseDelay:         ratelimit.DefaultBaseDelay,
			RequestsPerSecond: cloud.DefaultRequestsPerSecond,
		},
	}
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Path returns the config file path inside rootDir.
func Path(rootDir string) string {
	return filepath.Join(rootDir, FileName)
}

// Exists reports whether rootDir contains a config file.
func Exists(rootDir string) bool {
	_, err := os.Stat(Path(rootDir))
	return err == nil
}

// Load reads and validates locsync.yaml from rootDir. A missing file is an
// error matching fs.ErrNotExist.
func Load(rootDir string) (*Config, error) {
	path := Path(rootDir)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to rootDir, replacing any existing file.
func (c *Config) Save(rootDir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	path := Path(rootDir)
	header := "# locsync configuration. The API key is read from ROBLOX_CLOUD_API_KEY\n# or from `locsync auth login`; avoid committing cloud.api_key.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate checks the config and returns every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.BaseLocale == "" {
		errs = append(errs, errors.New("base_locale must not be empty"))
	}
	if len(c.SupportedLocales) == 0 {
		errs = append(errs, errors.New("supported_locales must not be empty"))
	}

	seen := make(map[string]bool)
	hasBase := false
	for _, l := range c.SupportedLocales {
		if seen[l] {
			errs = append(errs, fmt.Errorf("supported_locales lists %q twice", l))
		}
		seen[l] = true
		if l == c.BaseLocale {
			hasBase = true
		}
	}
	if c.BaseLocale != "" && len(c.SupportedLocales) > 0 && !hasBase {
		errs = append(errs, fmt.Errorf("base_locale %q is not in supported_locales", c.BaseLocale))
	}

	if c.InputDirectory == "" {
		errs = append(errs, errors.New("input_directory must not be empty"))
	}
	if _, err := store.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if _, err := merge.ParseStrategy(c.Cloud.Strategy); err != nil {
		errs = append(errs, err)
	}
	if id := c.Cloud.TableID; id != "" && !cloud.IsTableUUID(id) && !cloud.IsUniverseID(id) {
		errs = append(errs, fmt.Errorf("cloud.table_id %q is neither a table UUID nor a universe id", id))
	}
	if c.Cloud.MaxRetries < 0 {
		errs = append(errs, errors.New("cloud.max_retries must not be negative"))
	}
	if c.Cloud.BaseDelay < 0 {
		errs = append(errs, errors.New("cloud.base_delay must not be negative"))
	}
	if c.Cloud.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("cloud.requests_per_second must not be negative"))
	}

	return errors.Join(errs...)
}

// Warnings lists locales a localization table does not accept. They are
// still synced locally.
func (c *Config) Warnings() []string {
	var out []string
	for _, l := range c.SupportedLocales {
		if !locales.IsSupported(l) {
			out = append(out, fmt.Sprintf("locale %q is not supported by cloud localization tables", l))
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Strategy returns the parsed merge strategy.
func (c *Config) Strategy() (merge.Strategy, error) {
	return merge.ParseStrategy(c.Cloud.Strategy)
}

// FileFormat returns the parsed translation file format.
func (c *Config) FileFormat() (store.Format, error) {
	return store.ParseFormat(c.Format)
}

// InputPath resolves InputDirectory against rootDir.
func (c *Config) InputPath(rootDir string) string {
	return resolve(rootDir, c.InputDirectory)
}

// OutputPath resolves OutputDirectory against rootDir.
func (c *Config) OutputPath(rootDir string) string {
	return resolve(rootDir, c.OutputDirectory)
}

func resolve(rootDir, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(rootDir, dir)
}
