package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ylingtech/updatewatch/internal/logging"
)

func init() {
	rootCmd.AddCommand(resetCmd)
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget every applied, snoozed and dismissed build",
	Long: `Removes all update records. The next check behaves like a first visit
and offers whatever build is deployed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		st, err := openStore(cmd.Context(), s, logging.Discard())
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("clearing update records: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cleared all update records")
		return nil
	},
}
