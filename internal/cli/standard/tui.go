package standard

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rauks/Minecraft-RCON-Console/internal/appdirs"
	"github.com/Rauks/Minecraft-RCON-Console/internal/cli/tui"
	"github.com/Rauks/Minecraft-RCON-Console/internal/settings"
	"github.com/Rauks/Minecraft-RCON-Console/internal/shared/logging"
	"github.com/Rauks/Minecraft-RCON-Console/internal/store"
	"github.com/Rauks/Minecraft-RCON-Console/internal/store/sqlite"
)

const (
	tuiLogFile     = "rconsole.log"
	settingsDBFile = "settings.db"
)

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}

	logger, closeLog, err := tuiLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	svc, closeSettings := openSettings(ctx, logger)
	defer closeSettings()

	c, cfg, err := s.newConsole(ctx, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	return tui.Run(ctx, tui.Options{
		Console:   c,
		Config:    cfg,
		Localizer: s.localizer,
		Settings:  svc,
		Logger:    logger,
	})
}

// tuiLogger writes to a file in the state dir so that records never reach
// the terminal the TUI draws on.
func tuiLogger() (*slog.Logger, func(), error) {
	path, err := appdirs.StateFilePath(tuiLogFile)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := logging.NewTo(f, "rconsole", envOrDefault("RCON_LOG_LEVEL", "info"))
	return logger, func() { _ = f.Close() }, nil
}

// openSettings loads the operator preferences. Without a usable database
// the settings live in memory only.
func openSettings(ctx context.Context, logger *slog.Logger) (*settings.Service, func()) {
	svc := settings.NewService()

	var st store.Store
	if path, err := appdirs.StateFilePath(settingsDBFile); err != nil {
		logger.Warn("settings store unavailable", "error", err)
	} else if opened, err := sqlite.Open(ctx, path); err != nil {
		logger.Warn("settings store unavailable", "path", path, "error", err)
	} else {
		st = opened
	}

	storage := settings.NewStorage(svc, st, logger)
	if err := storage.ReloadAll(ctx); err != nil {
		logger.Warn("reload settings", "error", err)
	}
	if _, ok := svc.Get(settings.ThemeKey); !ok {
		svc.Set(settings.ThemeKey, settings.ThemeDark)
	}
	storage.EnablePersistence()

	return svc, func() {
		storage.Close()
		svc.Close()
		if st != nil {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := st.Close(closeCtx); err != nil {
				logger.Warn("close settings store", "error", err)
			}
		}
	}
}
