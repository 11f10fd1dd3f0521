package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ylingtech/updatewatch/internal/updater"
	"github.com/ylingtech/updatewatch/internal/version"
)

var checkJSON bool

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(checkCmd)
}

// checkReport is the JSON form of a check result.
type checkReport struct {
	HasUpdate      bool                `json:"hasUpdate"`
	CurrentVersion string              `json:"currentVersion"`
	LatestVersion  string              `json:"latestVersion"`
	Change         string              `json:"change,omitempty"`
	Pending        *version.Descriptor `json:"pending,omitempty"`
	Error          string              `json:"error,omitempty"`
}

func newCheckReport(s updater.State) checkReport {
	r := checkReport{
		HasUpdate:      s.HasUpdate(),
		CurrentVersion: s.CurrentVersion,
		LatestVersion:  s.LatestVersion,
		Pending:        s.Pending,
	}
	if s.Pending != nil && s.CurrentVersion != version.Unknown {
		r.Change = version.Classify(version.Descriptor{Version: s.CurrentVersion}, *s.Pending).String()
	}
	if s.LastError != nil {
		r.Error = s.LastError.Error()
	}
	return r
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check once whether a newer build is deployed",
	Long: `Fetches the version descriptor once and applies the prompt policy:
builds you applied, dismissed or recently snoozed are not reported.

A failed fetch is reported but is not an error; the exit status is 0.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		a.coord.CheckForUpdate(cmd.Context(), 0)
		return printCheck(cmd.OutOrStdout(), a.coord.State(), checkJSON)
	},
}

func printCheck(w io.Writer, s updater.State, asJSON bool) error {
	if asJSON {
		out, err := json.MarshalIndent(newCheckReport(s), "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling check result: %w", err)
		}
		fmt.Fprintln(w, string(out))
		return nil
	}

	switch {
	case s.LastError != nil:
		fmt.Fprintf(w, "Update check failed: %v\n", s.LastError)
	case s.HasUpdate():
		updater.PrintUpdateBanner(w, s)
	default:
		fmt.Fprintf(w, "No update to show (current: %s, deployed: %s)\n", s.CurrentVersion, s.LatestVersion)
	}
	return nil
}
