// Package keys persists provider API keys under the user's config directory
// and resolves which credential a session should use.
package keys

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const keyFileName = "keys.json"

// Store reads and writes the keys.json keyring. Every mutation rewrites the
// whole file with owner-only permissions.
type Store struct {
	configDir string
}

type keyRecord struct {
	Key string `json:"key"`
}

// keyring maps a provider name to its stored credential.
type keyring map[string]keyRecord

func NewStore() (*Store, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	return &Store{configDir: dir}, nil
}

// configDir resolves the platform config directory for logoforge. The
// LOGOFORGE_CONFIG_DIR override exists for tests and containers.
func configDir() (string, error) {
	if dir := os.Getenv("LOGOFORGE_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "logoforge"), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "logoforge"), nil
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "logoforge"), nil
	default:
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			base = filepath.Join(home, ".config")
		}
		return filepath.Join(base, "logoforge"), nil
	}
}

// Path returns the location of the keyring file.
func (s *Store) Path() string {
	return filepath.Join(s.configDir, keyFileName)
}

func (s *Store) read() (keyring, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return keyring{}, nil
		}
		return nil, err
	}

	var ring keyring
	if err := json.Unmarshal(data, &ring); err != nil {
		return nil, fmt.Errorf("corrupt %s: %w", keyFileName, err)
	}
	return ring, nil
}

func (s *Store) write(ring keyring) error {
	if err := os.MkdirAll(s.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(ring, "", "  ")
	if err != nil {
		return err
	}
	// 0600: the file holds live credentials.
	if err := os.WriteFile(s.Path(), data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", keyFileName, err)
	}
	return nil
}

func (s *Store) Set(provider, key string) error {
	ring, err := s.read()
	if err != nil {
		return err
	}
	ring[provider] = keyRecord{Key: key}
	return s.write(ring)
}

// Get returns the stored key for provider, or empty when none is stored.
func (s *Store) Get(provider string) (string, error) {
	ring, err := s.read()
	if err != nil {
		return "", err
	}
	return ring[provider].Key, nil
}

func (s *Store) Delete(provider string) error {
	ring, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := ring[provider]; !ok {
		return fmt.Errorf("no key found for %s", provider)
	}
	delete(ring, provider)
	return s.write(ring)
}

func (s *Store) Exists(provider string) (bool, error) {
	ring, err := s.read()
	if err != nil {
		return false, err
	}
	_, ok := ring[provider]
	return ok, nil
}

// MaskKey keeps the first and last four characters visible so a user can
// recognize which key is connected without exposing it.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// GetAPIKey resolves the credential for a provider: an explicit key wins,
// then the keyring, then the named environment variable. The second return
// names the winning source for display.
func GetAPIKey(explicitKey, provider, envVar string) (string, string, error) {
	if explicitKey != "" {
		return explicitKey, "command-line flag", nil
	}

	if store, err := NewStore(); err == nil {
		if key, err := store.Get(provider); err == nil && key != "" {
			return key, "stored key (keys.json)", nil
		}
	}

	if key := os.Getenv(envVar); key != "" {
		return key, fmt.Sprintf("environment variable (%s)", envVar), nil
	}

	return "", "", fmt.Errorf("no API key configured for %s", provider)
}
