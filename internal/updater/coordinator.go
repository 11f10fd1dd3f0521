package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ylingtech/updatewatch/internal/logging"
	"github.com/ylingtech/updatewatch/internal/policy"
	"github.com/ylingtech/updatewatch/internal/scheduler"
	"github.com/ylingtech/updatewatch/internal/store"
	"github.com/ylingtech/updatewatch/internal/version"
)

var (
	// ErrInvalidVersion is returned by Snooze and Dismiss when no usable
	// latest version is known. Nothing is written.
	ErrInvalidVersion = errors.New("no valid latest version to act on")
	// ErrNoUpdate is returned by Apply when no remote build has been seen.
	ErrNoUpdate = errors.New("no update to apply")
	// ErrApplying is returned by Apply while another apply is running.
	ErrApplying = errors.New("apply already in progress")
	// ErrClosed is returned by operations on a closed Coordinator.
	ErrClosed = errors.New("coordinator closed")
)

// DescriptorSource fetches the descriptor of the deployed build.
type DescriptorSource interface {
	Fetch(ctx context.Context) (version.Descriptor, error)
}

// Coordinator runs update checks and tracks the prompt state.
type Coordinator struct {
	source    DescriptorSource
	store     *store.Store
	clock     clockwork.Clock
	logger    *slog.Logger
	reloader  Reloader
	snoozeTTL time.Duration
	observers []func(State)
	schedOpts []scheduler.Option
	sched     *scheduler.Scheduler

	mu      sync.Mutex
	state   State
	remote  *version.Descriptor // last fetched descriptor
	autoCtx context.Context
	closed  bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock sets the time source for the coordinator and its scheduler.
func WithClock(c clockwork.Clock) Option {
	return func(co *Coordinator) { co.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(co *Coordinator) { co.logger = l }
}

// WithReloader sets what Apply invokes once the new build is recorded.
func WithReloader(r Reloader) Option {
	return func(co *Coordinator) { co.reloader = r }
}

// WithSnoozeTTL sets how long a snooze suppresses its version.
func WithSnoozeTTL(d time.Duration) Option {
	return func(co *Coordinator) { co.snoozeTTL = d }
}

// WithSchedulerOptions passes options through to the check scheduler.
func WithSchedulerOptions(opts ...scheduler.Option) Option {
	return func(co *Coordinator) { co.schedOpts = append(co.schedOpts, opts...) }
}

// WithObserver registers fn to receive every state change. Observers run
// synchronously on the goroutine that caused the change.
func WithObserver(fn func(State)) Option {
	return func(co *Coordinator) { co.observers = append(co.observers, fn) }
}

// New creates an idle Coordinator. The current version is read from the
// applied record in st.
func New(source DescriptorSource, st *store.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		source:    source,
		store:     st,
		clock:     clockwork.NewRealClock(),
		logger:    logging.Discard(),
		reloader:  nopReloader{},
		snoozeTTL: policy.DefaultSnoozeTTL,
	}
	for _, opt := range opts {
		opt(c)
	}

	schedOpts := append([]scheduler.Option{
		scheduler.WithClock(c.clock),
		scheduler.WithLogger(c.logger),
	}, c.schedOpts...)
	c.sched = scheduler.New(c.job, schedOpts...)

	c.state.CurrentVersion = version.Unknown
	if rec := st.Applied(context.Background()); rec != nil {
		c.state.CurrentVersion = rec.Version
	}
	return c
}

// State returns a snapshot of the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// HasUpdate reports whether an update prompt is pending.
func (c *Coordinator) HasUpdate() bool { return c.State().HasUpdate() }

// IsChecking reports whether a check is in progress.
func (c *Coordinator) IsChecking() bool { return c.State().IsChecking() }

// CurrentVersion returns the applied version, or version.Unknown.
func (c *Coordinator) CurrentVersion() string { return c.State().CurrentVersion }

// LatestVersion returns the version of the last fetched descriptor, or "".
func (c *Coordinator) LatestVersion() string { return c.State().LatestVersion }

// CheckForUpdate runs a check now and reports whether it ended with an
// update prompt. The check holds the in-flight guard for at least
// minDisplay. If another check is already running the call does nothing
// and returns false.
func (c *Coordinator) CheckForUpdate(ctx context.Context, minDisplay time.Duration) bool {
	var prompt bool
	c.sched.Run(ctx, scheduler.TriggerManual, minDisplay,
		func(ctx context.Context, t scheduler.Trigger) func() {
			commit, ok := c.check(ctx, t)
			if commit == nil {
				return nil
			}
			return func() { prompt = commit() && ok }
		})
	return prompt
}

func (c *Coordinator) job(ctx context.Context, t scheduler.Trigger) func() {
	commit, _ := c.check(ctx, t)
	if commit == nil {
		return nil
	}
	return func() { commit() }
}

// check performs the fetch and decision for one trigger. It returns the
// commit that publishes the result, which reports whether it took effect,
// and whether the result is a prompt.
func (c *Coordinator) check(ctx context.Context, t scheduler.Trigger) (func() bool, bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, false
	}
	switch c.state.Phase {
	case PhaseApplying:
		c.mu.Unlock()
		c.logger.Debug("check skipped, apply in progress", "trigger", t)
		return nil, false
	case PhaseUpdateAvailable:
		if t.Automatic() {
			c.mu.Unlock()
			c.logger.Debug("check skipped, prompt pending", "trigger", t)
			return nil, false
		}
	}
	c.state.Phase = PhaseChecking
	c.state.Pending = nil
	snap := c.state.clone()
	c.mu.Unlock()
	c.notify(snap)

	c.logger.Debug("checking for update", "trigger", t)
	remote, err := c.source.Fetch(ctx)
	now := c.clock.Now()
	if err != nil {
		c.logger.Warn("update check failed", "trigger", t, "error", err)
		return func() bool {
			return c.commit(func(s *State) {
				s.Phase = PhaseIdle
				s.LastChecked = now
				s.LastError = err
			})
		}, false
	}

	recs := c.store.Load(ctx)
	d := policy.Decide(policy.Input{
		Stored:    recs.Applied,
		Remote:    remote,
		Snooze:    recs.Snooze,
		Dismiss:   recs.Dismiss,
		Now:       now,
		SnoozeTTL: c.snoozeTTL,
	})
	if d.DiscardSnooze {
		c.remove(ctx, store.KindSnooze)
	}
	if d.DiscardDismiss {
		c.remove(ctx, store.KindDismiss)
	}
	c.logger.Info("update check finished",
		"trigger", t,
		"remote", remote.String(),
		"verdict", d.Verdict,
		"reason", d.Reason,
	)

	current := version.Unknown
	if recs.Applied != nil {
		current = recs.Applied.Version
	}
	prompt := d.Verdict == policy.ShouldPrompt
	return func() bool {
		return c.commit(func(s *State) {
			s.CurrentVersion = current
			s.LatestVersion = remote.Version
			s.LastChecked = now
			s.LastError = nil
			if prompt {
				s.Phase = PhaseUpdateAvailable
				s.Pending = &remote
			} else {
				s.Phase = PhaseIdle
			}
			c.remote = &remote
		})
	}, prompt
}

// commit applies the result of a check unless the coordinator was closed or
// moved on while the check was in flight. update runs with c.mu held.
func (c *Coordinator) commit(update func(*State)) bool {
	c.mu.Lock()
	if c.closed || c.state.Phase != PhaseChecking {
		c.mu.Unlock()
		c.logger.Debug("check result discarded")
		return false
	}
	update(&c.state)
	snap := c.state.clone()
	c.mu.Unlock()
	c.notify(snap)
	return true
}

// Apply records the pending build as applied, clears snooze and dismiss
// records and invokes the reloader once. Storage failures are logged and do
// not stop the reload. If no prompt is pending the last fetched build is
// applied instead; with nothing fetched yet Apply returns ErrNoUpdate.
//
// Once the reloader returns the coordinator goes back to idle and resumes
// auto-checking if it was running, as a reloaded host would.
func (c *Coordinator) Apply(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state.Phase == PhaseApplying {
		c.mu.Unlock()
		return ErrApplying
	}
	var target version.Descriptor
	switch {
	case c.state.Pending != nil && c.state.Phase == PhaseUpdateAvailable:
		target = *c.state.Pending
	case c.remote != nil:
		target = *c.remote
	default:
		c.mu.Unlock()
		return ErrNoUpdate
	}
	resume := c.sched.Running()
	autoCtx := c.autoCtx
	c.state.Phase = PhaseApplying
	c.state.Pending = &target
	snap := c.state.clone()
	c.mu.Unlock()
	c.notify(snap)

	c.sched.Stop()

	rec := version.AppliedRecord{Descriptor: target, AppliedAt: c.clock.Now()}
	if err := c.store.SetApplied(ctx, rec); err != nil {
		c.logger.Error("recording applied build failed", "version", target.Version, "error", err)
	}
	c.remove(ctx, store.KindSnooze)
	c.remove(ctx, store.KindDismiss)
	c.logger.Info("applying update", "version", target.String())

	reloadErr := c.reloader.Reload(ctx, target)
	if reloadErr != nil {
		c.logger.Error("reload failed", "version", target.Version, "error", reloadErr)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return wrapReload(reloadErr)
	}
	c.state.Phase = PhaseIdle
	c.state.Pending = nil
	c.state.CurrentVersion = target.Version
	c.state.LatestVersion = target.Version
	snap = c.state.clone()
	c.mu.Unlock()
	c.notify(snap)

	if resume && autoCtx != nil && autoCtx.Err() == nil {
		c.sched.Start(autoCtx)
	}
	return wrapReload(reloadErr)
}

func wrapReload(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("reloading: %w", err)
}

// Snooze suppresses the latest version for the snooze TTL and clears the
// prompt and any dismiss record. It returns ErrInvalidVersion without
// writing anything when the latest version is empty or unknown. The prompt
// is cleared before the records are written; a failed write is logged.
func (c *Coordinator) Snooze(ctx context.Context) error {
	latest, err := c.latestForAction("snooze")
	if err != nil {
		return err
	}
	c.clearPrompt()

	c.remove(ctx, store.KindDismiss)
	if err := c.store.SetSnooze(ctx, version.NewSnoozeRecord(latest, c.clock.Now())); err != nil {
		c.logger.Error("recording snooze failed", "version", latest, "error", err)
	}
	c.logger.Info("update snoozed", "version", latest, "ttl", c.snoozeTTL)
	return nil
}

// Dismiss suppresses the latest version permanently and clears any snooze.
// The guard, ordering and failure handling match Snooze.
func (c *Coordinator) Dismiss(ctx context.Context) error {
	latest, err := c.latestForAction("dismiss")
	if err != nil {
		return err
	}
	c.clearPrompt()

	c.remove(ctx, store.KindSnooze)
	if err := c.store.SetDismiss(ctx, version.DismissRecord(latest)); err != nil {
		c.logger.Error("recording dismiss failed", "version", latest, "error", err)
	}
	c.logger.Info("update dismissed", "version", latest)
	return nil
}

func (c *Coordinator) latestForAction(action string) (string, error) {
	c.mu.Lock()
	closed, latest := c.closed, c.state.LatestVersion
	c.mu.Unlock()
	if closed {
		return "", ErrClosed
	}
	if version.IsPlaceholder(latest) {
		c.logger.Warn(action+" ignored, latest version is not known", "latest", latest)
		return "", ErrInvalidVersion
	}
	return latest, nil
}

func (c *Coordinator) clearPrompt() {
	c.mu.Lock()
	if c.closed || c.state.Phase != PhaseUpdateAvailable {
		c.mu.Unlock()
		return
	}
	c.state.Phase = PhaseIdle
	c.state.Pending = nil
	snap := c.state.clone()
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Coordinator) remove(ctx context.Context, kind store.Kind) {
	if err := c.store.Remove(ctx, kind); err != nil {
		c.logger.Error("removing update record failed", "kind", kind, "error", err)
	}
}

// StartAutoCheck starts the recurring and event-driven checks. The
// scheduler stops when ctx is cancelled or StopAutoCheck is called.
func (c *Coordinator) StartAutoCheck(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.autoCtx = ctx
	c.mu.Unlock()
	c.sched.Start(ctx)
}

// StopAutoCheck stops the recurring and event-driven checks.
func (c *Coordinator) StopAutoCheck() {
	c.sched.Stop()
}

// Trigger requests a debounced check for t. It does nothing unless auto
// checking is running.
func (c *Coordinator) Trigger(t scheduler.Trigger) {
	c.sched.Fire(t)
}

// SetVisible forwards host visibility to the scheduler.
func (c *Coordinator) SetVisible(visible bool) {
	c.sched.SetVisible(visible)
}

// Close stops auto checking. Results of checks still in flight are
// discarded and observers are no longer called. The store is not closed.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.sched.Stop()
}

func (c *Coordinator) notify(s State) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	for _, fn := range c.observers {
		fn(s)
	}
}
