package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ylingtech/updatewatch/internal/logging"
)

// Defaults for a Scheduler.
const (
	DefaultInterval        = 5 * time.Minute
	DefaultDebounce        = 1 * time.Second
	DefaultVisibleDebounce = 2 * time.Second
	DefaultMinDisplay      = 2 * time.Second
)

// Job performs one check. The returned commit function, if any, runs after
// the minimum display duration has elapsed, still under the in-flight guard.
type Job func(ctx context.Context, t Trigger) (commit func())

type pendingFire struct {
	timer clockwork.Timer
	gen   uint64
}

// Scheduler coordinates when checks run.
type Scheduler struct {
	job             Job
	clock           clockwork.Clock
	logger          *slog.Logger
	interval        time.Duration
	debounce        time.Duration
	visibleDebounce time.Duration
	minDisplay      time.Duration

	inFlight atomic.Bool

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool
	visible  bool
	ticker   clockwork.Ticker
	tickDone chan struct{}
	pending  map[Trigger]pendingFire
	gen      uint64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the time source.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithInterval sets the recurring check interval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithDebounce sets the delay applied to startup, reconnect, push and
// manual triggers.
func WithDebounce(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithVisibleDebounce sets the delay applied to visibility triggers.
func WithVisibleDebounce(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.visibleDebounce = d
		}
	}
}

// WithMinDisplay sets how long triggered checks hold the in-flight guard at
// minimum.
func WithMinDisplay(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.minDisplay = d
		}
	}
}

// New creates a stopped Scheduler that runs job.
func New(job Job, opts ...Option) *Scheduler {
	s := &Scheduler{
		job:             job,
		clock:           clockwork.NewRealClock(),
		logger:          logging.Discard(),
		interval:        DefaultInterval,
		debounce:        DefaultDebounce,
		visibleDebounce: DefaultVisibleDebounce,
		minDisplay:      DefaultMinDisplay,
		visible:         true,
		pending:         make(map[Trigger]pendingFire),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MinDisplay returns the configured minimum display duration.
func (s *Scheduler) MinDisplay() time.Duration {
	return s.minDisplay
}

// InFlight reports whether a check is currently running.
func (s *Scheduler) InFlight() bool {
	return s.inFlight.Load()
}

// Running reports whether Start has been called without a matching Stop.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Run executes job under the in-flight guard. If another check is running
// the call is dropped and Run returns false without calling job. The guard
// is held for at least minDisplay; the commit function returned by job runs
// at the end of that hold.
func (s *Scheduler) Run(ctx context.Context, t Trigger, minDisplay time.Duration, job Job) bool {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("check dropped, another check is in flight", "trigger", t)
		return false
	}
	defer s.inFlight.Store(false)

	start := s.clock.Now()
	commit := job(ctx, t)

	if wait := minDisplay - s.clock.Since(start); wait > 0 {
		timer := s.clock.NewTimer(wait)
		select {
		case <-timer.Chan():
		case <-ctx.Done():
			timer.Stop()
		}
	}
	if commit != nil {
		commit()
	}
	return true
}

// Start begins the recurring interval and schedules a startup check. It is a
// no-op if the scheduler is already running.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	if s.visible {
		s.startTickerLocked()
	}
	s.fireLocked(TriggerStartup)
	s.logger.Debug("auto-check started", "interval", s.interval)
}

// Stop cancels the interval and every pending trigger. Checks already in
// flight are not interrupted. Stop is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.stopTickerLocked()
	for t, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, t)
	}
	s.cancel()
	s.logger.Debug("auto-check stopped")
}

// Fire schedules a debounced check for t. Repeated fires of the same trigger
// inside the debounce window collapse into one check. Fire does nothing
// while the scheduler is stopped.
func (s *Scheduler) Fire(t Trigger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.fireLocked(t)
}

// SetVisible records host visibility. Hiding pauses the interval; becoming
// visible again restarts it and schedules a visibility check.
func (s *Scheduler) SetVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visible == visible {
		return
	}
	s.visible = visible
	if !s.running {
		return
	}
	if !visible {
		s.stopTickerLocked()
		s.logger.Debug("host hidden, interval paused")
		return
	}
	s.startTickerLocked()
	s.fireLocked(TriggerVisible)
}

func (s *Scheduler) fireLocked(t Trigger) {
	delay := s.debounce
	if t == TriggerVisible {
		delay = s.visibleDebounce
	}
	if old, ok := s.pending[t]; ok {
		old.timer.Stop()
	}
	s.gen++
	gen := s.gen
	timer := s.clock.AfterFunc(delay, func() {
		go s.fireDue(t, gen)
	})
	s.pending[t] = pendingFire{timer: timer, gen: gen}
}

func (s *Scheduler) fireDue(t Trigger, gen uint64) {
	s.mu.Lock()
	p, ok := s.pending[t]
	if !ok || p.gen != gen || !s.running {
		s.mu.Unlock()
		return
	}
	delete(s.pending, t)
	ctx := s.ctx
	s.mu.Unlock()

	s.Run(ctx, t, s.minDisplay, s.job)
}

func (s *Scheduler) startTickerLocked() {
	if s.ticker != nil {
		return
	}
	ticker := s.clock.NewTicker(s.interval)
	done := make(chan struct{})
	s.ticker = ticker
	s.tickDone = done
	go s.loop(s.ctx, ticker, done)
}

func (s *Scheduler) stopTickerLocked() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.tickDone)
	s.ticker = nil
	s.tickDone = nil
}

func (s *Scheduler) loop(ctx context.Context, ticker clockwork.Ticker, done <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.Chan():
			s.Run(ctx, TriggerInterval, s.minDisplay, s.job)
		}
	}
}
