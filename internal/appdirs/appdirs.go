// Package appdirs resolves the per-user directories of the operator console.
package appdirs

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const AppName = "rconsole"

type dirKind int

const (
	configKind dirKind = iota
	stateKind
)

func baseDir(kind dirKind) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("appdirs: resolve home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support"), nil
	case "windows":
		env, fallback := "APPDATA", filepath.Join(home, "AppData", "Roaming")
		if kind == stateKind {
			env, fallback = "LOCALAPPDATA", filepath.Join(home, "AppData", "Local")
		}
		if dir := os.Getenv(env); dir != "" {
			return dir, nil
		}
		return fallback, nil
	default:
		env, fallback := "XDG_CONFIG_HOME", filepath.Join(home, ".config")
		if kind == stateKind {
			env, fallback = "XDG_STATE_HOME", filepath.Join(home, ".local", "state")
		}
		if dir := os.Getenv(env); dir != "" {
			return dir, nil
		}
		return fallback, nil
	}
}

// ConfigDir is where config.toml lives.
func ConfigDir() (string, error) {
	base, err := baseDir(configKind)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName), nil
}

func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func EnsureConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return dir, ensurePrivate(dir)
}

// StateDir holds the settings database and the TUI log.
func StateDir() (string, error) {
	base, err := baseDir(stateKind)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName, "state"), nil
}

func EnsureStateDir() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return dir, ensurePrivate(dir)
}

// StateFilePath creates the state dir and returns name inside it.
func StateFilePath(name string) (string, error) {
	dir, err := EnsureStateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func ensurePrivate(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("appdirs: create %s: %w", dir, err)
	}
	if err := os.Chmod(dir, 0o700); err != nil {
		return fmt.Errorf("appdirs: secure %s: %w", dir, err)
	}
	return nil
}
