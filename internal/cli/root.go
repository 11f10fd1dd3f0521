package cli

import (
	"github.com/spf13/cobra"

	"github.com/ylingtech/updatewatch/internal/branding"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` watches a deployed web build and tells you when a newer one is live.
It remembers whether you applied, snoozed or dismissed each build so you are
never prompted more often than necessary.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}
