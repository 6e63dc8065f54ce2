package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Rauks/Minecraft-RCON-Console/internal/rcon"
)

// ServerConfig captures the runtime configuration required by the daemon.
type ServerConfig struct {
	RCONHost      string `env:"RCON_HOST,required"`
	RCONPort      uint16 `env:"RCON_PORT,required"`
	RCONPassword  string `env:"RCON_PASSWORD,required"`
	RCONTimeoutMS uint64 `env:"RCON_TIMEOUT" envDefault:"5000"`

	APIListenAddr string `env:"RCON_API_LISTEN" envDefault:"0.0.0.0:8000"`
	WWWRoot       string `env:"ROOT_WWW" envDefault:"./ui/dist/browser"`
	ConfigRoot    string `env:"ROOT_CONFIG" envDefault:"./config"`
	LocaleFile    string `env:"RCON_LOCALE_FILE"`
	LogLevel      string `env:"RCON_LOG_LEVEL" envDefault:"info"`
}

// FromEnv loads server configuration from environment variables, applying
// defaults when unset. Variables set to an empty string count as unset.
func FromEnv() (ServerConfig, error) {
	environment := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if ok && value != "" {
			environment[key] = value
		}
	}

	var cfg ServerConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return ServerConfig{}, fmt.Errorf("load environment: %w", err)
	}

	listenAddr := strings.TrimSpace(cfg.APIListenAddr)
	if _, _, err := net.SplitHostPort(listenAddr); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid api listen address %q: %w", listenAddr, err)
	}
	cfg.APIListenAddr = listenAddr
	if cfg.RCONTimeoutMS == 0 {
		return ServerConfig{}, fmt.Errorf("RCON_TIMEOUT must be positive")
	}
	cfg.WWWRoot = expandPath(cfg.WWWRoot)
	cfg.ConfigRoot = expandPath(cfg.ConfigRoot)
	cfg.LocaleFile = expandPath(cfg.LocaleFile)
	return cfg, nil
}

// RCON returns the protocol client configuration.
func (c ServerConfig) RCON() rcon.Configuration {
	return rcon.Configuration{
		Host:     c.RCONHost,
		Port:     c.RCONPort,
		Password: c.RCONPassword,
		Timeout:  time.Duration(c.RCONTimeoutMS) * time.Millisecond,
	}
}

func expandPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return filepath.Clean(path)
}
