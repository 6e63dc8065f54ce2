package standard

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rauks/Minecraft-RCON-Console/internal/cli/render"
	"github.com/Rauks/Minecraft-RCON-Console/internal/console"
)

// ErrOffline is returned when the command could not reach the server. The
// reply has already been printed.
var ErrOffline = errors.New("command not delivered")

func newExecCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "exec [command...]",
		Short: "Run one command and print the reply",
		Long:  "Run one command and print the reply. Without arguments the default command is sent.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			logger := stderrLogger(cmd)
			c, _, err := s.newConsole(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer c.Close()

			previous := newestID(c)
			if _, err := c.Submit(strings.Join(args, " ")); err != nil {
				return err
			}
			record, err := awaitRecord(cmd.Context(), c, previous)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(record); err != nil {
					return err
				}
			} else {
				reply := render.Markup(record.DecodedReply, terminalRenderer(out))
				if record.MatchedStatus != console.StatusUnknown {
					reply = statusLabel(s.localizer, record.MatchedStatus) + " " + reply
				}
				fmt.Fprintln(out, reply)
			}
			if record.MatchedStatus == console.StatusCom {
				return ErrOffline
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full record as JSON")
	return cmd
}
