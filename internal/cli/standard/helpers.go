package standard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Rauks/Minecraft-RCON-Console/internal/cli/client"
	"github.com/Rauks/Minecraft-RCON-Console/internal/cli/clientconfig"
	"github.com/Rauks/Minecraft-RCON-Console/internal/console"
	"github.com/Rauks/Minecraft-RCON-Console/internal/consoleconfig"
	"github.com/Rauks/Minecraft-RCON-Console/internal/i18n"
	"github.com/Rauks/Minecraft-RCON-Console/internal/shared/logging"
)

const apiEnv = "RCONSOLE_API"

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// session is what every command needs: the settings, the API client and
// the localizer.
type session struct {
	cfg        clientconfig.Config
	configPath string
	api        *client.Client
	localizer  *i18n.Localizer
}

func configPathFromCmd(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	if path != "" {
		return path, nil
	}
	return clientconfig.Path()
}

func loadSession(cmd *cobra.Command) (*session, error) {
	path, err := configPathFromCmd(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := clientconfig.Load(path)
	if err != nil {
		return nil, err
	}

	base, _ := cmd.Root().PersistentFlags().GetString("api")
	if base == "" {
		base = envOrDefault(apiEnv, cfg.API)
	}
	api, err := client.New(base)
	if err != nil {
		return nil, err
	}

	localizer := i18n.New()
	if cfg.Locale != "" {
		if err := localizer.LoadFile(cfg.Locale); err != nil {
			return nil, err
		}
	}
	return &session{cfg: cfg, configPath: path, api: api, localizer: localizer}, nil
}

// consoleConfig fetches the tables from the daemon. When it cannot be
// reached the built-in tables are used and commands settle as offline.
func (s *session) consoleConfig(ctx context.Context, logger *slog.Logger) (*consoleconfig.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cfg, err := s.api.ConsoleConfig(ctx)
	if err == nil {
		return cfg, nil
	}
	logger.Warn("using built-in console config", "error", err)
	return consoleconfig.Default()
}

func (s *session) newConsole(ctx context.Context, logger *slog.Logger) (*console.Console, *consoleconfig.Config, error) {
	cfg, err := s.consoleConfig(ctx, logger)
	if err != nil {
		return nil, nil, err
	}
	classifier, err := cfg.Classifier()
	if err != nil {
		return nil, nil, err
	}
	c, err := console.New(console.Options{
		Transport:    s.api,
		Classifier:   classifier,
		Decoder:      cfg.Decoder(),
		Localizer:    s.localizer,
		Placeholder:  cfg.Placeholder,
		LoaderDelay:  s.cfg.Delay(),
		HistoryLimit: s.cfg.HistoryLimit,
		Logger:       logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, cfg, nil
}

func stderrLogger(cmd *cobra.Command) *slog.Logger {
	return logging.NewTo(cmd.ErrOrStderr(), "rconsole", envOrDefault("RCON_LOG_LEVEL", "warn"))
}

// terminalRenderer returns a styled renderer when w is a terminal, nil
// otherwise.
func terminalRenderer(w io.Writer) *lipgloss.Renderer {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return lipgloss.NewRenderer(f)
}

func newestID(c *console.Console) string {
	if history := c.History().Get(); len(history) > 0 {
		return history[0].ID
	}
	return ""
}

// awaitRecord waits until a record newer than the one with id previous
// lands in the history and returns it.
func awaitRecord(ctx context.Context, c *console.Console, previous string) (console.CommandResult, error) {
	updates, unsubscribe := c.History().Subscribe()
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return console.CommandResult{}, ctx.Err()
		case history, ok := <-updates:
			if !ok {
				return console.CommandResult{}, console.ErrClosed
			}
			if len(history) > 0 && history[0].ID != previous {
				return history[0], nil
			}
		}
	}
}

func statusLabel(loc *i18n.Localizer, status console.Status) string {
	return fmt.Sprintf("[%s]", loc.Translate("tk.status."+string(status)))
}
