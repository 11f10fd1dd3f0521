package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ylingtech/updatewatch/internal/config"
	"github.com/ylingtech/updatewatch/internal/netwatch"
	"github.com/ylingtech/updatewatch/internal/platform"
	"github.com/ylingtech/updatewatch/internal/push"
	"github.com/ylingtech/updatewatch/internal/scheduler"
	"github.com/ylingtech/updatewatch/internal/ui"
	"github.com/ylingtech/updatewatch/internal/updater"
)

const watchLogFile = "watch.log"

var watchTUI bool

func init() {
	watchCmd.Flags().BoolVar(&watchTUI, "tui", false, "Show an interactive prompt instead of log output")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep checking for new builds until interrupted",
	Long: `Checks shortly after start and then every interval. A check also runs
when the endpoint becomes reachable after an outage, when the deploy event
stream (push_url) announces a build, and when the terminal regains focus
(--tui) or the process receives SIGCONT.

Send SIGUSR1 to force a check. In --tui mode logs go to ~/.updatewatch/watch.log.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logOut := cmd.ErrOrStderr()
		if watchTUI {
			f, err := openWatchLog()
			if err != nil {
				return err
			}
			defer f.Close()
			logOut = f
		}

		feed := newStateFeed()
		a, err := openApp(ctx, cmd.OutOrStdout(), logOut, updater.WithObserver(feed.publish))
		if err != nil {
			return err
		}
		defer a.Close()

		startTriggerSources(ctx, a)
		a.coord.StartAutoCheck(ctx)
		defer a.coord.StopAutoCheck()

		if watchTUI {
			return runTUI(ctx, a, feed)
		}
		return runHeadless(ctx, cmd.OutOrStdout(), a, feed)
	},
}

func openWatchLog() (*os.File, error) {
	if err := config.EnsureDir(); err != nil {
		return nil, err
	}
	path := filepath.Join(config.Dir(), watchLogFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, platform.FilePermSecure)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	return f, nil
}

// startTriggerSources starts the reachability probe and, when configured,
// the deploy event listener. Both stop with ctx.
func startTriggerSources(ctx context.Context, a *app) {
	probe, err := netwatch.DialProber(a.settings.Endpoint, a.settings.HTTPTimeout)
	if err != nil {
		a.logger.Warn("reachability probe disabled", "error", err)
	} else {
		w := netwatch.New(probe, func() { a.coord.Trigger(scheduler.TriggerReconnect) },
			netwatch.WithInterval(a.settings.ProbeInterval),
			netwatch.WithLogger(a.logger),
		)
		go w.Run(ctx)
	}

	if a.settings.PushURL != "" {
		l := push.New(a.settings.PushURL, func(push.Event) { a.coord.Trigger(scheduler.TriggerPush) },
			push.WithLogger(a.logger),
		)
		go l.Run(ctx)
	}
}

func runHeadless(ctx context.Context, out io.Writer, a *app, feed *stateFeed) error {
	sigs := make(chan os.Signal, 1)
	notifyControlSignals(sigs)
	defer signal.Stop(sigs)

	fmt.Fprintf(out, "Watching %s (every %s). Press Ctrl+C to stop.\n", a.settings.Endpoint, a.settings.Interval)
	prev := a.coord.State().Phase
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-sigs:
			handleControlSignal(ctx, a, sig)
		case s := <-feed.ch:
			if s.Phase == updater.PhaseUpdateAvailable && prev != updater.PhaseUpdateAvailable {
				updater.PrintUpdateBanner(out, s)
			}
			prev = s.Phase
		}
	}
}

func runTUI(ctx context.Context, a *app, feed *stateFeed) error {
	m := ui.New(ui.Options{
		Context:    ctx,
		Controller: a.coord,
		Updates:    feed.ch,
		MinDisplay: a.settings.MinDisplay,
	})
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running prompt: %w", err)
	}
	return nil
}

// stateFeed forwards coordinator states to a single consumer, keeping only
// the newest state when the consumer falls behind.
type stateFeed struct {
	ch chan updater.State
}

func newStateFeed() *stateFeed {
	return &stateFeed{ch: make(chan updater.State, 1)}
}

func (f *stateFeed) publish(s updater.State) {
	for {
		select {
		case f.ch <- s:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}
