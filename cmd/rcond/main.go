package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rauks/Minecraft-RCON-Console/internal/consoleconfig"
	"github.com/Rauks/Minecraft-RCON-Console/internal/i18n"
	"github.com/Rauks/Minecraft-RCON-Console/internal/rcon"
	"github.com/Rauks/Minecraft-RCON-Console/internal/server/app"
	"github.com/Rauks/Minecraft-RCON-Console/internal/server/config"
	"github.com/Rauks/Minecraft-RCON-Console/internal/server/eventbus/memory"
	"github.com/Rauks/Minecraft-RCON-Console/internal/server/httpapi"
	"github.com/Rauks/Minecraft-RCON-Console/internal/server/ui"
	"github.com/Rauks/Minecraft-RCON-Console/internal/shared/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.FromEnv()
	if err != nil {
		logging.New("rcond").Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.NewWithLevel("rcond", cfg.LogLevel)

	consoleCfg, err := consoleconfig.Load(cfg.ConfigRoot)
	if err != nil {
		logger.Error("load console config", "root", cfg.ConfigRoot, "error", err)
		os.Exit(1)
	}

	localizer := i18n.New()
	if cfg.LocaleFile != "" {
		if err := localizer.LoadFile(cfg.LocaleFile); err != nil {
			logger.Error("load locale", "path", cfg.LocaleFile, "error", err)
			os.Exit(1)
		}
	}

	client := rcon.NewClient(cfg.RCON(), logger.With("component", "rcon"))
	events := memory.New()

	mux := httpapi.New(httpapi.Options{
		Logger:    logger,
		RCON:      client,
		Console:   consoleCfg,
		Localizer: localizer,
		Bus:       events,
		UI:        ui.New(cfg.WWWRoot),
	})

	application, err := app.New(cfg, logger, mux)
	if err != nil {
		logger.Error("init app", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
