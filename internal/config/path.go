// Package config resolves Zenith settings from viper, the environment and
// an optional .env file.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands a leading ~ and $VAR references in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}

// ConfigDir is where config.yaml and saved tokens live.
func ConfigDir() string {
	return ExpandPath("~/.config/zenith")
}

// DefaultDatabasePath is the SQLite file used when database.path is unset.
func DefaultDatabasePath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "zenith", "zenith.db")
	}
	return ExpandPath("~/.local/share/zenith/zenith.db")
}
