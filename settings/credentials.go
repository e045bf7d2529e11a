// Package settings stores locsync user credentials.
//
// Credentials live in the XDG data directory:
//
//	$XDG_DATA_HOME/locsync/auth.json  (default: ~/.local/share/locsync/)
//
// The file is a JSON object keyed by provider ID. File permissions are
// 0600 (owner read/write only).
//
// Lookup order for the API key:
//  1. --api-key flag (highest priority)
//  2. ROBLOX_CLOUD_API_KEY environment variable
//  3. cloud.api_key in locsync.yaml
//  4. This credential store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/minios-linux/locsync/cloud"
)

const (
	dataDirName = "locsync"
	fileName    = "auth.json"

	// ProviderID is the store key of the Open Cloud API key.
	ProviderID = "roblox-cloud"
	// EnvAPIKey is the environment variable holding the API key.
	EnvAPIKey = "ROBLOX_CLOUD_API_KEY"
	// MinKeyLength is the shortest key accepted before any request is sent.
	MinKeyLength = 10
)

// ---------------------------------------------------------------------------
// Store model
// ---------------------------------------------------------------------------

// Info is the entry stored per provider in auth.json.
type Info struct {
	// Type is always "api" for now.
	Type string `json:"type"`
	Key  string `json:"key,omitempty"`
}

// Store holds all provider credentials, keyed by provider ID.
type Store map[string]*Info

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// DataDir returns the locsync data directory.
func DataDir() string {
	return filepath.Join(xdg.DataHome, dataDirName)
}

// FilePath returns the auth.json file path.
func FilePath() string {
	return filepath.Join(DataDir(), fileName)
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	data, err := os.ReadFile(FilePath())
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(DataDir(), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(FilePath(), data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// SetAPIKey stores the API key after checking its length.
func SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if err := ValidateKey(key); err != nil {
		return err
	}
	store := Load()
	store[ProviderID] = &Info{Type: "api", Key: key}
	return Save(store)
}

// GetAPIKey returns the stored API key, or "" when none is stored.
func GetAPIKey() string {
	info := Load()[ProviderID]
	if info == nil || info.Type != "api" {
		return ""
	}
	return info.Key
}

// Remove deletes the stored API key.
func Remove() error {
	store := Load()
	if _, ok := store[ProviderID]; !ok {
		return nil
	}
	delete(store, ProviderID)
	return Save(store)
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

// Key sources reported by ResolveAPIKey.
const (
	SourceFlag   = "flag"
	SourceEnv    = "environment"
	SourceConfig = "config"
	SourceStore  = "credential store"
)

// ResolveAPIKey returns the first non-empty key from flagKey, the
// environment, configKey and the credential store, with its source.
// Missing or short keys are configuration errors.
func ResolveAPIKey(flagKey, configKey string) (key, source string, err error) {
	candidates := []struct {
		key, source string
	}{
		{flagKey, SourceFlag},
		{os.Getenv(EnvAPIKey), SourceEnv},
		{configKey, SourceConfig},
		{GetAPIKey(), SourceStore},
	}
	for _, c := range candidates {
		k := strings.TrimSpace(c.key)
		if k == "" {
			continue
		}
		if err := ValidateKey(k); err != nil {
			return "", c.source, err
		}
		return k, c.source, nil
	}
	return "", "", cloud.NewConfigError(fmt.Sprintf(
		"API key not found; set %s, pass --api-key or run `locsync auth login`", EnvAPIKey))
}

// ValidateKey rejects empty keys and keys shorter than MinKeyLength.
func ValidateKey(key string) error {
	if key == "" {
		return cloud.NewConfigError("API key is empty")
	}
	if len(key) < MinKeyLength {
		return cloud.NewConfigError(fmt.Sprintf("API key is too short (%d characters, need at least %d)", len(key), MinKeyLength))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Display helpers
// ---------------------------------------------------------------------------

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
