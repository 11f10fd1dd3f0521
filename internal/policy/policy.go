package policy

import (
	"time"

	"github.com/ylingtech/updatewatch/internal/version"
)

// DefaultSnoozeTTL is how long a snooze suppresses prompting for its version.
const DefaultSnoozeTTL = 60 * time.Minute

// Verdict is the outcome of a decision.
type Verdict int

const (
	// NoUpdate means the remote build is the one already applied.
	NoUpdate Verdict = iota
	// ShouldPrompt means the user should be offered the remote build.
	ShouldPrompt
	// Suppressed means the remote build differs but a dismiss or an active
	// snooze covers it. Callers treat it like NoUpdate.
	Suppressed
)

func (v Verdict) String() string {
	switch v {
	case ShouldPrompt:
		return "should-prompt"
	case Suppressed:
		return "suppressed"
	default:
		return "no-update"
	}
}

// Reasons attached to a Decision.
const (
	ReasonFirstVisit = "first-visit"
	ReasonUnchanged  = "unchanged"
	ReasonDismissed  = "dismissed"
	ReasonSnoozed    = "snoozed"
	ReasonChanged    = "changed"
)

// Input carries everything Decide looks at. Nil pointers mean "absent".
type Input struct {
	Stored    *version.AppliedRecord
	Remote    version.Descriptor
	Snooze    *version.SnoozeRecord
	Dismiss   *version.DismissRecord
	Now       time.Time
	SnoozeTTL time.Duration // DefaultSnoozeTTL when zero
}

// Decision is the verdict plus the record cleanup it implies.
type Decision struct {
	Verdict Verdict
	Reason  string
	// DiscardSnooze is set when the snooze record is expired or belongs to a
	// different version than the remote one.
	DiscardSnooze bool
	// DiscardDismiss is set when the remote build changed to a version other
	// than the dismissed one.
	DiscardDismiss bool
}

// Decide applies the update policy. The order of the checks matters: a
// dismiss outranks a snooze, and both outrank the plain "changed" signal.
func Decide(in Input) Decision {
	ttl := in.SnoozeTTL
	if ttl <= 0 {
		ttl = DefaultSnoozeTTL
	}

	var d Decision
	if in.Snooze != nil && in.Snooze.Version != in.Remote.Version {
		d.DiscardSnooze = true
	}

	// No applied record: first visit or cleared storage. Always offer the
	// remote build so the client converges on a known baseline.
	if in.Stored == nil {
		d.Verdict, d.Reason = ShouldPrompt, ReasonFirstVisit
		return d
	}

	if in.Stored.Descriptor.Equal(in.Remote) {
		d.Verdict, d.Reason = NoUpdate, ReasonUnchanged
		return d
	}

	if in.Dismiss != nil {
		if string(*in.Dismiss) == in.Remote.Version {
			d.Verdict, d.Reason = Suppressed, ReasonDismissed
			return d
		}
		d.DiscardDismiss = true
	}

	if in.Snooze != nil && in.Snooze.Version == in.Remote.Version {
		if in.Now.Sub(in.Snooze.Time()) < ttl {
			d.Verdict, d.Reason = Suppressed, ReasonSnoozed
			return d
		}
		d.DiscardSnooze = true
	}

	d.Verdict, d.Reason = ShouldPrompt, ReasonChanged
	return d
}

// SnoozeRemaining returns how long rec keeps suppressing prompts at now, or
// zero when it has expired.
func SnoozeRemaining(rec version.SnoozeRecord, now time.Time, ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = DefaultSnoozeTTL
	}
	left := ttl - now.Sub(rec.Time())
	if left < 0 {
		return 0
	}
	return left
}
