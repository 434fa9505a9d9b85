// Package xdg resolves XDG Base Directory paths for qbase.
//
// Each helper falls back to the conventional location under the home
// directory when the XDG variable is unset, and creates the directory with
// private permissions.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under every XDG base.
const AppName = "qbase"

func resolve(env string, fallback ...string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(append([]string{home}, fallback...)...)
	}
	dir := filepath.Join(base, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}

// ConfigDir returns $XDG_CONFIG_HOME/qbase, or ~/.config/qbase.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// StateDir returns $XDG_STATE_HOME/qbase, or ~/.local/state/qbase.
func StateDir() (string, error) {
	return resolve("XDG_STATE_HOME", ".local", "state")
}

// CacheDir returns $XDG_CACHE_HOME/qbase, or ~/.cache/qbase.
func CacheDir() (string, error) {
	return resolve("XDG_CACHE_HOME", ".cache")
}
