// Package netwatch reports when the update endpoint becomes reachable again
// after an outage.
package netwatch

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ylingtech/updatewatch/internal/logging"
)

// DefaultInterval is how often reachability is probed.
const DefaultInterval = 15 * time.Second

// Prober checks reachability once. A nil error means online.
type Prober func(ctx context.Context) error

// DialProber returns a Prober that opens and closes a TCP connection to the
// host of endpoint.
func DialProber(endpoint string, timeout time.Duration) (Prober, error) {
	addr, err := hostPort(endpoint)
	if err != nil {
		return nil, err
	}
	d := &net.Dialer{Timeout: timeout}
	return func(ctx context.Context) error {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		return conn.Close()
	}, nil
}

func hostPort(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing endpoint: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("endpoint %q has no host", endpoint)
	}
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "http", "ws":
			port = "80"
		case "https", "wss":
			port = "443"
		default:
			return "", fmt.Errorf("endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

// Watcher probes on an interval and calls onReconnect on every
// offline-to-online transition. It starts out assuming the host is online.
type Watcher struct {
	probe       Prober
	onReconnect func()
	clock       clockwork.Clock
	interval    time.Duration
	logger      *slog.Logger

	mu     sync.Mutex
	online bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithClock sets the time source.
func WithClock(c clockwork.Clock) Option {
	return func(w *Watcher) { w.clock = c }
}

// WithInterval sets the probe interval.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New creates a Watcher.
func New(probe Prober, onReconnect func(), opts ...Option) *Watcher {
	w := &Watcher{
		probe:       probe,
		onReconnect: onReconnect,
		clock:       clockwork.NewRealClock(),
		interval:    DefaultInterval,
		logger:      logging.Discard(),
		online:      true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Online reports the result of the last probe.
func (w *Watcher) Online() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.online
}

// Run probes until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			w.step(ctx)
		}
	}
}

func (w *Watcher) step(ctx context.Context) {
	err := w.probe(ctx)
	if ctx.Err() != nil {
		return
	}

	w.mu.Lock()
	was := w.online
	w.online = err == nil
	w.mu.Unlock()

	switch {
	case was && err != nil:
		w.logger.Warn("update endpoint unreachable", "error", err)
	case !was && err == nil:
		w.logger.Info("update endpoint reachable again")
		if w.onReconnect != nil {
			w.onReconnect()
		}
	}
}
