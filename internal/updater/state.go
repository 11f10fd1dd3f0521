package updater

import (
	"time"

	"github.com/ylingtech/updatewatch/internal/version"
)

// Phase is the coordinator's position in the check cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseChecking
	PhaseUpdateAvailable
	PhaseApplying
)

func (p Phase) String() string {
	switch p {
	case PhaseChecking:
		return "checking"
	case PhaseUpdateAvailable:
		return "update-available"
	case PhaseApplying:
		return "applying"
	default:
		return "idle"
	}
}

// State is a snapshot of the coordinator.
type State struct {
	Phase          Phase
	CurrentVersion string
	LatestVersion  string
	// Pending is the descriptor being offered while Phase is
	// PhaseUpdateAvailable, or the one being applied in PhaseApplying.
	Pending     *version.Descriptor
	LastChecked time.Time
	LastError   error
}

// HasUpdate reports whether an update prompt is pending.
func (s State) HasUpdate() bool {
	return s.Phase == PhaseUpdateAvailable
}

// IsChecking reports whether a check is in progress.
func (s State) IsChecking() bool {
	return s.Phase == PhaseChecking
}

func (s State) clone() State {
	if s.Pending != nil {
		d := *s.Pending
		s.Pending = &d
	}
	return s
}
