package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ylingtech/updatewatch/internal/updater"
)

var applyForce bool

func init() {
	applyCmd.Flags().BoolVar(&applyForce, "force", false, "Apply the deployed build even if no prompt is pending")
	rootCmd.AddCommand(applyCmd)
}

var applyCmd = &cobra.Command{
	Use:     "apply",
	Aliases: []string{"update"},
	Short:   "Apply the deployed build and reload",
	Long: `Checks for an update and, if one is offered, records it as applied,
clears any snooze or dismiss and runs the reload command.

  updatewatch apply            # apply if an update is offered
  updatewatch apply --force    # record whatever is deployed and reload`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		a, err := openApp(cmd.Context(), out, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintln(cmd.ErrOrStderr(), "Checking for updates...")
		found := a.coord.CheckForUpdate(cmd.Context(), 0)
		s := a.coord.State()
		if s.LastError != nil {
			return fmt.Errorf("checking for updates: %w", s.LastError)
		}
		if !found && !applyForce {
			fmt.Fprintf(out, "You are on the latest build (%s)\n", s.CurrentVersion)
			return nil
		}

		if err := a.coord.Apply(cmd.Context()); err != nil {
			if errors.Is(err, updater.ErrNoUpdate) {
				return fmt.Errorf("nothing to apply: no build has been fetched")
			}
			return err
		}
		fmt.Fprintf(out, "Successfully applied %s\n", a.coord.CurrentVersion())
		return nil
	},
}
