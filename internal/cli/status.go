package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ylingtech/updatewatch/internal/logging"
	"github.com/ylingtech/updatewatch/internal/policy"
	"github.com/ylingtech/updatewatch/internal/version"
)

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print status as JSON")
	rootCmd.AddCommand(statusCmd)
}

type snoozeStatus struct {
	Version   string    `json:"version"`
	SnoozedAt time.Time `json:"snoozedAt"`
	Active    bool      `json:"active"`
	Remaining string    `json:"remaining,omitempty"`
}

type statusReport struct {
	Endpoint       string                 `json:"endpoint"`
	Store          string                 `json:"store"`
	CurrentVersion string                 `json:"currentVersion"`
	Applied        *version.AppliedRecord `json:"applied,omitempty"`
	Snooze         *snoozeStatus          `json:"snooze,omitempty"`
	Dismissed      string                 `json:"dismissed,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored update records",
	Long:  `Prints the applied, snoozed and dismissed records without contacting the endpoint.`,
	Args:  cobra.NoArgs,
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

		recs := st.Load(cmd.Context())
		report := statusReport{
			Endpoint:       s.Endpoint,
			Store:          s.StoreBackend + ":" + s.StorePath,
			CurrentVersion: version.Unknown,
			Applied:        recs.Applied,
		}
		if recs.Applied != nil {
			report.CurrentVersion = recs.Applied.Version
		}
		if recs.Snooze != nil {
			left := policy.SnoozeRemaining(*recs.Snooze, time.Now(), s.SnoozeTTL)
			report.Snooze = &snoozeStatus{
				Version:   recs.Snooze.Version,
				SnoozedAt: recs.Snooze.Time(),
				Active:    left > 0,
			}
			if left > 0 {
				report.Snooze.Remaining = left.Round(time.Second).String()
			}
		}
		if recs.Dismiss != nil {
			report.Dismissed = string(*recs.Dismiss)
		}

		out := cmd.OutOrStdout()
		if statusJSON {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling status: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintf(out, "Endpoint:  %s\n", report.Endpoint)
		fmt.Fprintf(out, "Store:     %s\n", report.Store)
		fmt.Fprintf(out, "Current:   %s\n", report.CurrentVersion)
		if a := report.Applied; a != nil {
			fmt.Fprintf(out, "Applied:   %s", a.Descriptor)
			if !a.AppliedAt.IsZero() {
				fmt.Fprintf(out, " at %s", a.AppliedAt.Local().Format(time.RFC3339))
			}
			fmt.Fprintln(out)
		}
		if sn := report.Snooze; sn != nil {
			if sn.Active {
				fmt.Fprintf(out, "Snoozed:   %s (%s left)\n", sn.Version, sn.Remaining)
			} else {
				fmt.Fprintf(out, "Snoozed:   %s (expired)\n", sn.Version)
			}
		}
		if report.Dismissed != "" {
			fmt.Fprintf(out, "Dismissed: %s\n", report.Dismissed)
		}
		return nil
	},
}
