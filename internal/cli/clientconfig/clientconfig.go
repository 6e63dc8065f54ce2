// Package clientconfig stores the operator console settings in a TOML file.
package clientconfig

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/Rauks/Minecraft-RCON-Console/internal/appdirs"
	"github.com/Rauks/Minecraft-RCON-Console/internal/console"
)

const DefaultAPI = "http://127.0.0.1:8000"

// Keys accepted by Set and Get.
const (
	KeyAPI          = "api"
	KeyLocale       = "locale"
	KeyLoaderDelay  = "loader_delay"
	KeyHistoryLimit = "history_limit"
)

type Config struct {
	// API is the base URL of the gateway daemon.
	API string `toml:"api"`
	// Locale is a JSON string table replacing the built-in one. Empty keeps
	// the built-in strings.
	Locale string `toml:"locale,omitempty"`
	// LoaderDelay is a Go duration string.
	LoaderDelay string `toml:"loader_delay"`
	// HistoryLimit caps the history pane; zero keeps everything.
	HistoryLimit int `toml:"history_limit"`
}

func Default() Config {
	return Config{
		API:         DefaultAPI,
		LoaderDelay: console.DefaultLoaderDelay.String(),
	}
}

// Path returns the default location of the config file.
func Path() (string, error) {
	return appdirs.ConfigFilePath()
}

// Load reads path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("clientconfig: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("clientconfig: parse %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("clientconfig: %s: %w", path, err)
	}
	return cfg, nil
}

// Save replaces path atomically.
func Save(path string, cfg Config) error {
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("clientconfig: %w", err)
	}
	payload, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("clientconfig: serialize: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("clientconfig: create %s: %w", dir, err)
	}
	tempFile, err := os.CreateTemp(dir, ".rconsole-config-*.toml")
	if err != nil {
		return fmt.Errorf("clientconfig: create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	if _, err := tempFile.Write(payload); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("clientconfig: write temp file: %w", err)
	}
	if err := tempFile.Chmod(0o600); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("clientconfig: secure temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("clientconfig: close temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("clientconfig: replace %s: %w", path, err)
	}
	return nil
}

func (c *Config) normalize() {
	defaults := Default()
	c.API = strings.TrimRight(strings.TrimSpace(c.API), "/")
	if c.API == "" {
		c.API = defaults.API
	}
	c.Locale = strings.TrimSpace(c.Locale)
	c.LoaderDelay = strings.TrimSpace(c.LoaderDelay)
	if c.LoaderDelay == "" {
		c.LoaderDelay = defaults.LoaderDelay
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.API); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api %q is not an http(s) url", c.API))
	}
	if d, err := time.ParseDuration(c.LoaderDelay); err != nil || d <= 0 {
		errs = append(errs, fmt.Errorf("loader_delay %q is not a positive duration", c.LoaderDelay))
	}
	if c.HistoryLimit < 0 {
		errs = append(errs, fmt.Errorf("history_limit must not be negative"))
	}
	return errors.Join(errs...)
}

// Delay returns the parsed loader delay, falling back to the default.
func (c Config) Delay() time.Duration {
	d, err := time.ParseDuration(c.LoaderDelay)
	if err != nil || d <= 0 {
		return console.DefaultLoaderDelay
	}
	return d
}

// Set assigns one key from its text form.
func (c *Config) Set(key, value string) error {
	next := *c
	switch key {
	case KeyAPI:
		next.API = value
	case KeyLocale:
		next.Locale = value
	case KeyLoaderDelay:
		next.LoaderDelay = value
	case KeyHistoryLimit:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("clientconfig: history_limit: %w", err)
		}
		next.HistoryLimit = n
	default:
		return fmt.Errorf("clientconfig: unknown key %q", key)
	}
	next.normalize()
	if err := next.Validate(); err != nil {
		return fmt.Errorf("clientconfig: %w", err)
	}
	*c = next
	return nil
}

// Get returns the text form of one key.
func (c Config) Get(key string) (string, error) {
	switch key {
	case KeyAPI:
		return c.API, nil
	case KeyLocale:
		return c.Locale, nil
	case KeyLoaderDelay:
		return c.LoaderDelay, nil
	case KeyHistoryLimit:
		return strconv.Itoa(c.HistoryLimit), nil
	default:
		return "", fmt.Errorf("clientconfig: unknown key %q", key)
	}
}
