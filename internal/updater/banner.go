package updater

import (
	"fmt"
	"io"

	"github.com/ylingtech/updatewatch/internal/branding"
)

// PrintUpdateBanner prints the update notification for s to w. It prints
// nothing unless an update is pending.
func PrintUpdateBanner(w io.Writer, s State) {
	if !s.HasUpdate() || s.Pending == nil {
		return
	}
	fmt.Fprintf(w, "\nUpdate available: %s -> %s\n", s.CurrentVersion, s.Pending.String())
	fmt.Fprintf(w, "    Run `%s apply` to reload, `%s snooze` or `%s dismiss` to skip it\n\n",
		branding.CLIName(), branding.CLIName(), branding.CLIName())
}
