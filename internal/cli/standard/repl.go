package standard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/Rauks/Minecraft-RCON-Console/internal/cli/render"
	"github.com/Rauks/Minecraft-RCON-Console/internal/console"
	"github.com/Rauks/Minecraft-RCON-Console/internal/consoleconfig"
	"github.com/Rauks/Minecraft-RCON-Console/internal/i18n"
)

type lineReader interface {
	Readline() (string, error)
}

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Line mode console",
		Long:  "Read commands line by line. An empty line sends the default command; exit or ctrl+d quits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			logger := stderrLogger(cmd)
			c, cfg, err := s.newConsole(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer c.Close()

			// History stays in memory for the lifetime of the process.
			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "> ",
				HistoryLimit:    200,
				AutoComplete:    shortcutCompleter(cfg),
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("init readline: %w", err)
			}
			defer rl.Close()

			return runRepl(cmd.Context(), rl, cmd.OutOrStdout(), c, s.localizer, terminalRenderer(cmd.OutOrStdout()))
		},
	}
}

func shortcutCompleter(cfg *consoleconfig.Config) readline.AutoCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(cfg.Shortcuts))
	for _, s := range cfg.Shortcuts {
		items = append(items, readline.PcItem(s.Command))
	}
	return readline.NewPrefixCompleter(items...)
}

func runRepl(ctx context.Context, in lineReader, out io.Writer, c *console.Console, loc *i18n.Localizer, r *lipgloss.Renderer) error {
	for {
		line, err := in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read line: %w", err)
		}
		switch strings.TrimSpace(line) {
		case "exit", "quit":
			return nil
		}

		previous := newestID(c)
		command, err := c.Submit(line)
		if err != nil {
			return err
		}
		record, err := awaitRecord(ctx, c, previous)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n%s\n", statusLabel(loc, record.MatchedStatus), command, render.Markup(record.DecodedReply, r))
	}
}
