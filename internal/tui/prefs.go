package tui

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Prefs holds review preferences that persist across sessions.
type Prefs struct {
	// ShowValues displays detected values unmasked in the table.
	ShowValues bool `json:"show_values"`
}

// prefsPath returns $XDG_CONFIG_HOME/datafog/tui_prefs.json, falling back to
// ~/.config.
func prefsPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "datafog", "tui_prefs.json"), nil
}

// LoadPrefs loads preferences from disk, returning defaults if not found.
func LoadPrefs() Prefs {
	var prefs Prefs
	path, err := prefsPath()
	if err != nil {
		return prefs
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return prefs
	}
	_ = json.Unmarshal(data, &prefs) //nolint:errcheck // fall back to defaults
	return prefs
}

// SavePrefs persists preferences to disk.
func SavePrefs(prefs Prefs) error {
	path, err := prefsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
