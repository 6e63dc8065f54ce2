package standard

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/Rauks/Minecraft-RCON-Console/internal/consoleconfig"
	"github.com/Rauks/Minecraft-RCON-Console/internal/i18n"
)

func newShortcutsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shortcuts [query]",
		Short: "List the predefined commands",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			cfg, err := s.consoleConfig(cmd.Context(), stderrLogger(cmd))
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			out := cmd.OutOrStdout()
			shortcuts := matchShortcuts(cfg.Shortcuts, query)
			if len(shortcuts) == 0 {
				fmt.Fprintln(out, s.localizer.Translatef("tk.shortcuts.none", query))
				return nil
			}
			fmt.Fprintf(out, "%-20s %s\n", "NAME", "COMMAND")
			for _, sc := range shortcuts {
				fmt.Fprintf(out, "%-20s %s\n", sc.Name, sc.Command)
			}
			return nil
		},
	}
	return cmd
}

// matchShortcuts returns every shortcut for an empty query, otherwise the
// fuzzy matches on name and command, best first. Case and diacritics are
// ignored.
func matchShortcuts(shortcuts []consoleconfig.Shortcut, query string) []consoleconfig.Shortcut {
	query = i18n.Sanitize(strings.TrimSpace(query))
	if query == "" {
		return shortcuts
	}
	source := make([]string, len(shortcuts))
	for i, sc := range shortcuts {
		source[i] = i18n.Sanitize(sc.Name + " " + sc.Command)
	}
	var out []consoleconfig.Shortcut
	for _, match := range fuzzy.Find(query, source) {
		out = append(out, shortcuts[match.Index])
	}
	return out
}
