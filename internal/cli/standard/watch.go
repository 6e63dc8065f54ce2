package standard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rauks/Minecraft-RCON-Console/internal/cli/client"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream the commands relayed by rcond",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			err = s.api.WatchCommands(ctx, func(ev client.CommandEvent) {
				target := cmd.OutOrStdout()
				fmt.Fprintf(target, "%s\t%s\t%s\t%s\t%s\n", ev.Timestamp.Format(time.RFC3339), ev.Origin, ev.Status, ev.Duration.Round(time.Millisecond), ev.Command)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	return cmd
}
