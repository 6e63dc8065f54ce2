package standard

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X ...standard.version=...".
var version = "dev"

// Execute runs the Cobra-based CLI entry point.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rconsole",
		Short:         "Minecraft RCON operator console",
		Long:          "rconsole sends console commands to a Minecraft server through the rcond gateway.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}

	cmd.PersistentFlags().StringP("api", "a", "", "rcond base URL (default from RCONSOLE_API or the config file)")
	cmd.PersistentFlags().String("config", "", "config file path (default in the user config dir)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newExecCmd())
	cmd.AddCommand(newReplCmd())
	cmd.AddCommand(newConfigureCmd())
	cmd.AddCommand(newShortcutsCmd())
	cmd.AddCommand(newWatchCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rconsole version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rconsole %s\n", version)
		},
	}
}
