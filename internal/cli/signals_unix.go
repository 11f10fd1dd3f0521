//go:build !windows

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func notifyControlSignals(ch chan<- os.Signal) {
	signal.Notify(ch, syscall.SIGUSR1, syscall.SIGCONT)
}

// handleControlSignal maps SIGUSR1 to a manual check and SIGCONT (resumed
// after a stop) to the host becoming visible again.
func handleControlSignal(ctx context.Context, a *app, sig os.Signal) {
	switch sig {
	case syscall.SIGUSR1:
		a.logger.Info("manual check requested by signal")
		go a.coord.CheckForUpdate(ctx, a.settings.MinDisplay)
	case syscall.SIGCONT:
		a.coord.SetVisible(false)
		a.coord.SetVisible(true)
	}
}
