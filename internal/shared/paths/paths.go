package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AppName names the per-user configuration directory
const AppName = "menuterm"

// Files inside the configuration directory
const (
	SettingsFileName = "settings.toml"
)

// ConfigDir returns the per-user configuration directory, such as
// ~/.config/menuterm or ~/Library/Application Support/menuterm
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("no user config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// SettingsFile returns the default settings path, or "" when the user has
// no config directory
func SettingsFile() string {
	dir, err := ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, SettingsFileName)
}

// Expand resolves a leading ~ to the home directory and cleans the result.
// Empty paths stay empty.
func Expand(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot expand %q: %w", path, err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}

// ValidateDir checks that path exists and is a directory
func ValidateDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("invalid directory %q: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("invalid directory %q: not a directory", path)
	}
	return nil
}
