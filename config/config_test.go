package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/minios-linux/locsync/merge"
	"github.com/minios-linux/locsync/store"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return dir
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := writeConfig(t, `
base_locale: en
supported_locales: [en, es, id]
cloud:
  table_id: 0b3c8a64-7f0e-4f1a-9c3d-2a5b6c7d8e9f
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.InputDirectory != "translations" || cfg.OutputDirectory != "output" {
		t.Fatalf("directories = %q, %q, want defaults", cfg.InputDirectory, cfg.OutputDirectory)
	}
	if !reflect.DeepEqual(cfg.SupportedLocales, []string{"en", "es", "id"}) {
		t.Fatalf("SupportedLocales = %v", cfg.SupportedLocales)
	}
	if cfg.Cloud.MaxRetries != 3 || cfg.Cloud.BaseDelay != time.Second || cfg.Cloud.RequestsPerSecond != 5 {
		t.Fatalf("retry defaults = %+v", cfg.Cloud)
	}
	s, err := cfg.Strategy()
	if err != nil || s != merge.Merge {
		t.Fatalf("Strategy() = %v, %v, want merge", s, err)
	}
	f, err := cfg.FileFormat()
	if err != nil || f != store.FormatJSON {
		t.Fatalf("FileFormat() = %v, %v, want json", f, err)
	}
}

func TestLoadReadsCloudSettings(t *testing.T) {
	dir := writeConfig(t, `
base_locale: en
supported_locales: [en]
format: yaml
cloud:
  table_id: "123456"
  game_id: "42"
  strategy: skip-conflicts
  max_retries: 5
  base_delay: 250ms
  requests_per_second: 2.5
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cloud.TableID != "123456" || cfg.Cloud.GameID != "42" {
		t.Fatalf("cloud ids = %+v", cfg.Cloud)
	}
	if cfg.Cloud.MaxRetries != 5 || cfg.Cloud.BaseDelay != 250*time.Millisecond || cfg.Cloud.RequestsPerSecond != 2.5 {
		t.Fatalf("retry settings = %+v", cfg.Cloud)
	}
	if s, _ := cfg.Strategy(); s != merge.SkipConflicts {
		t.Fatalf("Strategy() = %v, want skip-conflicts", s)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Load(empty dir) error = %v, want fs.ErrNotExist", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "empty base", mutate: func(c *Config) { c.BaseLocale = "" }, want: "base_locale must not be empty"},
		{name: "no locales", mutate: func(c *Config) { c.SupportedLocales = nil }, want: "supported_locales must not be empty"},
		{name: "base not listed", mutate: func(c *Config) { c.SupportedLocales = []string{"es"} }, want: `base_locale "en" is not in supported_locales`},
		{name: "duplicate", mutate: func(c *Config) { c.SupportedLocales = []string{"en", "es", "es"} }, want: `"es" twice`},
		{name: "bad format", mutate: func(c *Config) { c.Format = "toml" }, want: "unknown file format"},
		{name: "bad strategy", mutate: func(c *Config) { c.Cloud.Strategy = "yolo" }, want: "yolo"},
		{name: "bad table", mutate: func(c *Config) { c.Cloud.TableID = "my-table" }, want: "cloud.table_id"},
		{name: "negative retries", mutate: func(c *Config) { c.Cloud.MaxRetries = -1 }, want: "max_retries"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tc.want)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, want nil", err)
	}
}

func TestWarningsForUnsupportedLocales(t *testing.T) {
	cfg := Default()
	cfg.SupportedLocales = []string{"en", "nl", "zh-cn"}

	got := cfg.Warnings()
	if len(got) != 1 || !strings.Contains(got[0], `"nl"`) {
		t.Fatalf("Warnings() = %v, want one warning for nl", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.SupportedLocales = []string{"en", "id"}
	cfg.Cloud.TableID = "0b3c8a64-7f0e-4f1a-9c3d-2a5b6c7d8e9f"

	if Exists(dir) {
		t.Fatalf("Exists before Save = true")
	}
	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists(dir) {
		t.Fatalf("Exists after Save = false")
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Fatalf("Load(Save(cfg)) = %+v, want %+v", got, cfg)
	}
}

func TestPaths(t *testing.T) {
	cfg := Default()
	if got, want := cfg.InputPath("/work"), filepath.Join("/work", "translations"); got != want {
		t.Fatalf("InputPath = %q, want %q", got, want)
	}
	cfg.OutputDirectory = "/abs/out"
	if got := cfg.OutputPath("/work"); got != "/abs/out" {
		t.Fatalf("OutputPath = %q, want %q", got, "/abs/out")
	}
}
