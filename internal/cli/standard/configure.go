package standard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/Rauks/Minecraft-RCON-Console/internal/cli/clientconfig"
)

func newConfigureCmd() *cobra.Command {
	var assignments []string
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Edit the rconsole settings",
		Long:  "Edit the rconsole settings interactively, or non-interactively with --set key=value.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPathFromCmd(cmd)
			if err != nil {
				return err
			}
			cfg, err := clientconfig.Load(path)
			if err != nil {
				return err
			}

			if len(assignments) > 0 {
				err = applyAssignments(&cfg, assignments)
			} else {
				err = runConfigureForm(&cfg)
			}
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			if err != nil {
				return err
			}

			if err := clientconfig.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&assignments, "set", nil, "key=value to assign (api, locale, loader_delay, history_limit)")
	return cmd
}

func applyAssignments(cfg *clientconfig.Config, assignments []string) error {
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		if !ok {
			return fmt.Errorf("invalid assignment %q, expected key=value", a)
		}
		if err := cfg.Set(strings.TrimSpace(key), value); err != nil {
			return err
		}
	}
	return nil
}

func runConfigureForm(cfg *clientconfig.Config) error {
	api := cfg.API
	locale := cfg.Locale
	delay := cfg.LoaderDelay
	limit := strconv.Itoa(cfg.HistoryLimit)

	check := func(key string) func(string) error {
		return func(value string) error {
			probe := *cfg
			return probe.Set(key, value)
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("rcond URL").
				Value(&api).
				Validate(check(clientconfig.KeyAPI)),
			huh.NewInput().
				Title("Locale file").
				Description("JSON string table, empty for the built-in strings").
				Value(&locale),
			huh.NewInput().
				Title("Loader delay").
				Description("How long a command runs before the spinner shows").
				Value(&delay).
				Validate(check(clientconfig.KeyLoaderDelay)),
			huh.NewInput().
				Title("History limit").
				Description("0 keeps every record").
				Value(&limit).
				Validate(check(clientconfig.KeyHistoryLimit)),
		),
	).WithTheme(huh.ThemeCharm())
	if err := form.Run(); err != nil {
		return err
	}

	return applyAssignments(cfg, []string{
		clientconfig.KeyAPI + "=" + api,
		clientconfig.KeyLocale + "=" + locale,
		clientconfig.KeyLoaderDelay + "=" + delay,
		clientconfig.KeyHistoryLimit + "=" + limit,
	})
}
