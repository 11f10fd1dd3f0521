package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ylingtech/updatewatch/internal/branding"
	"github.com/ylingtech/updatewatch/internal/config"
	"github.com/ylingtech/updatewatch/internal/logging"
	"github.com/ylingtech/updatewatch/internal/scheduler"
	"github.com/ylingtech/updatewatch/internal/store"
	"github.com/ylingtech/updatewatch/internal/updater"
	"github.com/ylingtech/updatewatch/internal/version"
)

// app holds everything a command needs to talk to the coordinator.
type app struct {
	settings config.Settings
	logger   *slog.Logger
	store    *store.Store
	fetcher  *version.Fetcher
	coord    *updater.Coordinator
}

// loadSettings initialises viper and resolves the settings.
func loadSettings() (config.Settings, error) {
	config.Init()
	s, err := config.Load()
	if err != nil {
		return config.Settings{}, fmt.Errorf("loading config: %w", err)
	}
	return s, nil
}

// openStore opens the configured record store.
func openStore(ctx context.Context, s config.Settings, logger *slog.Logger) (*store.Store, error) {
	backend, err := store.Open(ctx, s.StoreBackend, s.StorePath)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", s.StoreBackend, err)
	}
	return store.New(backend, store.WithLogger(logger)), nil
}

// openApp builds the full stack. Logs go to logOut; reload output to out.
func openApp(ctx context.Context, out, logOut io.Writer, extra ...updater.Option) (*app, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logOut, s.LogLevel, s.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}
	st, err := openStore(ctx, s, logger)
	if err != nil {
		return nil, err
	}

	fetcher := version.NewFetcher(s.Endpoint,
		version.WithHTTPClient(&http.Client{Timeout: s.HTTPTimeout}),
		version.WithUserAgent(branding.UserAgent()),
	)

	opts := []updater.Option{
		updater.WithLogger(logger),
		updater.WithReloader(newReloader(s.ReloadCommand, out)),
		updater.WithSnoozeTTL(s.SnoozeTTL),
		updater.WithSchedulerOptions(
			scheduler.WithInterval(s.Interval),
			scheduler.WithDebounce(s.Debounce),
			scheduler.WithVisibleDebounce(s.VisibleDebounce),
			scheduler.WithMinDisplay(s.MinDisplay),
		),
	}
	coord := updater.New(fetcher, st, append(opts, extra...)...)

	return &app{
		settings: s,
		logger:   logger,
		store:    st,
		fetcher:  fetcher,
		coord:    coord,
	}, nil
}

// Close stops the coordinator and releases the store.
func (a *app) Close() {
	a.coord.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store", "error", err)
	}
}
