package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"

	"github.com/minios-linux/locsync/cloud"
)

func useTempDataHome(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)
	t.Setenv(EnvAPIKey, "")
	xdg.Reload()
	return tmp
}

func TestDataDirAndFilePathUseXDGDataHome(t *testing.T) {
	tmp := useTempDataHome(t)

	if got, want := DataDir(), filepath.Join(tmp, "locsync"); got != want {
		t.Fatalf("DataDir() = %q, want %q", got, want)
	}
	if got, want := FilePath(), filepath.Join(tmp, "locsync", "auth.json"); got != want {
		t.Fatalf("FilePath() = %q, want %q", got, want)
	}
}

func TestSetGetRemoveLifecycle(t *testing.T) {
	useTempDataHome(t)

	if got := GetAPIKey(); got != "" {
		t.Fatalf("GetAPIKey() on empty store = %q, want empty", got)
	}
	if err := SetAPIKey("  rbx_key_1234567890  "); err != nil {
		t.Fatalf("SetAPIKey() error: %v", err)
	}

	info, err := os.Stat(FilePath())
	if err != nil {
		t.Fatalf("stat auth.json: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("auth.json mode = %o, want 600", info.Mode().Perm())
	}
	if got := GetAPIKey(); got != "rbx_key_1234567890" {
		t.Fatalf("GetAPIKey() = %q, want %q", got, "rbx_key_1234567890")
	}

	if err := Remove(); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if got := GetAPIKey(); got != "" {
		t.Fatalf("GetAPIKey() after Remove = %q, want empty", got)
	}
	if err := Remove(); err != nil {
		t.Fatalf("second Remove() error: %v", err)
	}
}

func TestSetAPIKeyRejectsShortKey(t *testing.T) {
	useTempDataHome(t)

	err := SetAPIKey("short")
	if !cloud.IsKind(err, cloud.KindConfig) {
		t.Fatalf("SetAPIKey(short) error = %v, want configuration error", err)
	}
	if _, statErr := os.Stat(FilePath()); !os.IsNotExist(statErr) {
		t.Fatalf("auth.json written for rejected key")
	}
}

func TestLoadInvalidFileReturnsEmptyStore(t *testing.T) {
	useTempDataHome(t)
	if err := os.MkdirAll(DataDir(), 0700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(FilePath(), []byte("{not json"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if got := Load(); len(got) != 0 {
		t.Fatalf("Load() = %#v, want empty store", got)
	}
}

func TestResolveAPIKeyOrder(t *testing.T) {
	useTempDataHome(t)
	if err := SetAPIKey("stored_key_123456"); err != nil {
		t.Fatalf("SetAPIKey: %v", err)
	}

	key, src, err := ResolveAPIKey("", "")
	if err != nil || key != "stored_key_123456" || src != SourceStore {
		t.Fatalf("store: got %q, %q, %v", key, src, err)
	}

	key, src, err = ResolveAPIKey("", "config_key_123456")
	if err != nil || key != "config_key_123456" || src != SourceConfig {
		t.Fatalf("config: got %q, %q, %v", key, src, err)
	}

	t.Setenv(EnvAPIKey, "env_key_1234567890")
	key, src, err = ResolveAPIKey("", "config_key_123456")
	if err != nil || key != "env_key_1234567890" || src != SourceEnv {
		t.Fatalf("env: got %q, %q, %v", key, src, err)
	}

	key, src, err = ResolveAPIKey("flag_key_1234567890", "config_key_123456")
	if err != nil || key != "flag_key_1234567890" || src != SourceFlag {
		t.Fatalf("flag: got %q, %q, %v", key, src, err)
	}
}

func TestResolveAPIKeyErrors(t *testing.T) {
	useTempDataHome(t)

	if _, _, err := ResolveAPIKey("", ""); !cloud.IsKind(err, cloud.KindConfig) {
		t.Fatalf("missing key error = %v, want configuration error", err)
	}
	if _, src, err := ResolveAPIKey("abc", ""); !cloud.IsKind(err, cloud.KindConfig) || src != SourceFlag {
		t.Fatalf("short key = %q, %v, want configuration error from flag", src, err)
	}
}

func TestMaskKey(t *testing.T) {
	cases := map[string]string{
		"":                   "****",
		"12345678":           "****",
		"rbx_key_1234567890": "rbx_...7890",
	}
	for in, want := range cases {
		if got := MaskKey(in); got != want {
			t.Fatalf("MaskKey(%q) = %q, want %q", in, got, want)
		}
	}
}
