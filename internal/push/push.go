// Package push listens on a websocket for deploy announcements so checks can
// run as soon as a new build goes out instead of waiting for the interval.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/ylingtech/updatewatch/internal/branding"
	"github.com/ylingtech/updatewatch/internal/logging"
)

// Reconnect backoff bounds.
const (
	DefaultMinBackoff = time.Second
	DefaultMaxBackoff = 30 * time.Second
)

// Event is one deploy announcement. Messages that are not JSON objects still
// produce an Event carrying only Raw.
type Event struct {
	Type    string `json:"type,omitempty"`
	Version string `json:"version,omitempty"`
	Raw     string `json:"-"`
}

// ParseEvent decodes a text frame.
func ParseEvent(data []byte) Event {
	var ev Event
	_ = json.Unmarshal(data, &ev)
	ev.Raw = string(data)
	return ev
}

// Listener keeps a websocket connection open and reports every text message.
type Listener struct {
	url        string
	onEvent    func(Event)
	dialer     *websocket.Dialer
	clock      clockwork.Clock
	logger     *slog.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

// Option configures a Listener.
type Option func(*Listener)

// WithDialer sets the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(l *Listener) { l.dialer = d }
}

// WithClock sets the time source used for reconnect backoff.
func WithClock(c clockwork.Clock) Option {
	return func(l *Listener) { l.clock = c }
}

// WithLogger sets the logger.
func WithLogger(lg *slog.Logger) Option {
	return func(l *Listener) { l.logger = lg }
}

// WithBackoff sets the reconnect backoff bounds.
func WithBackoff(lo, hi time.Duration) Option {
	return func(l *Listener) {
		if lo > 0 && hi >= lo {
			l.minBackoff, l.maxBackoff = lo, hi
		}
	}
}

// New creates a Listener for url.
func New(url string, onEvent func(Event), opts ...Option) *Listener {
	l := &Listener{
		url:        url,
		onEvent:    onEvent,
		dialer:     websocket.DefaultDialer,
		clock:      clockwork.NewRealClock(),
		logger:     logging.Discard(),
		minBackoff: DefaultMinBackoff,
		maxBackoff: DefaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run connects and reads until ctx is cancelled, reconnecting with
// exponential backoff whenever the connection drops.
func (l *Listener) Run(ctx context.Context) {
	backoff := l.minBackoff
	for {
		connected, err := l.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			backoff = l.minBackoff
		}
		l.logger.Warn("deploy event stream disconnected", "url", l.url, "error", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return
		case <-l.clock.After(backoff):
		}
		backoff = min(backoff*2, l.maxBackoff)
	}
}

// session runs one connection. connected reports whether the dial succeeded.
func (l *Listener) session(ctx context.Context) (connected bool, err error) {
	header := http.Header{}
	header.Set("User-Agent", branding.UserAgent())
	conn, resp, err := l.dialer.DialContext(ctx, l.url, header)
	if err != nil {
		if resp != nil {
			return false, fmt.Errorf("dialing %s: %s: %w", l.url, resp.Status, err)
		}
		return false, fmt.Errorf("dialing %s: %w", l.url, err)
	}
	defer conn.Close()
	l.logger.Info("deploy event stream connected", "url", l.url)

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return true, nil
			}
			return true, fmt.Errorf("reading: %w", err)
		}
		if typ != websocket.TextMessage {
			continue
		}
		ev := ParseEvent(data)
		l.logger.Debug("deploy event received", "type", ev.Type, "version", ev.Version)
		if l.onEvent != nil {
			l.onEvent(ev)
		}
	}
}
