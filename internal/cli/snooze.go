package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ylingtech/updatewatch/internal/updater"
)

func init() {
	rootCmd.AddCommand(snoozeCmd)
	rootCmd.AddCommand(dismissCmd)
}

var snoozeCmd = &cobra.Command{
	Use:   "snooze",
	Short: "Stop prompting for the deployed build for a while",
	Long: `Checks the deployed build and snoozes it for snooze_ttl (60m by default).
A different build deployed in the meantime is still reported.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return checkThen(cmd, "snooze", func(ctx context.Context, a *app) error {
			if err := a.coord.Snooze(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Snoozed %s for %s\n", a.coord.LatestVersion(), a.settings.SnoozeTTL)
			return nil
		})
	},
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Never prompt for the deployed build again",
	Long: `Checks the deployed build and dismisses it permanently. Only that exact
version is suppressed; the next version is reported as usual.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return checkThen(cmd, "dismiss", func(ctx context.Context, a *app) error {
			if err := a.coord.Dismiss(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dismissed %s\n", a.coord.LatestVersion())
			return nil
		})
	},
}

// checkThen runs one check so the latest version is known, then act.
func checkThen(cmd *cobra.Command, action string, act func(context.Context, *app) error) error {
	a, err := openApp(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	a.coord.CheckForUpdate(cmd.Context(), 0)
	if err := act(cmd.Context(), a); err != nil {
		if errors.Is(err, updater.ErrInvalidVersion) {
			if last := a.coord.State().LastError; last != nil {
				return fmt.Errorf("nothing to %s: %w", action, last)
			}
			return fmt.Errorf("nothing to %s: deployed version is unknown", action)
		}
		return err
	}
	return nil
}
