package version

import (
	"fmt"
	"strings"
	"time"
)

// Unknown is the placeholder shown when no version has been observed yet.
const Unknown = "unknown"

// Descriptor describes the build that is currently deployed.
type Descriptor struct {
	Version   string `json:"version"`
	BuildHash string `json:"buildHash"`
	BuildTime string `json:"buildTime"`
}

// Equal reports whether all three fields match. A deploy can change the
// build artifacts without bumping the version string, so the hash and build
// time take part in the comparison.
func (d Descriptor) Equal(other Descriptor) bool {
	return d.Version == other.Version &&
		d.BuildHash == other.BuildHash &&
		d.BuildTime == other.BuildTime
}

func (d Descriptor) String() string {
	var extra []string
	if d.BuildHash != "" {
		extra = append(extra, d.BuildHash)
	}
	if d.BuildTime != "" {
		extra = append(extra, d.BuildTime)
	}
	if len(extra) == 0 {
		return d.Version
	}
	return fmt.Sprintf("%s (%s)", d.Version, strings.Join(extra, ", "))
}

// AppliedRecord is the descriptor that was deployed the last time the user
// applied an update.
type AppliedRecord struct {
	Descriptor
	AppliedAt time.Time `json:"appliedAt,omitzero"`
}

// SnoozeRecord defers prompting for one version. SnoozedAt is epoch milliseconds.
type SnoozeRecord struct {
	Version   string `json:"version"`
	SnoozedAt int64  `json:"snoozedAt"`
}

// NewSnoozeRecord returns a snooze for v taken at now.
func NewSnoozeRecord(v string, now time.Time) SnoozeRecord {
	return SnoozeRecord{Version: v, SnoozedAt: now.UnixMilli()}
}

// Time returns SnoozedAt as a time.Time.
func (s SnoozeRecord) Time() time.Time {
	return time.UnixMilli(s.SnoozedAt)
}

// DismissRecord permanently suppresses prompting for exactly one version.
type DismissRecord string

// IsPlaceholder reports whether v carries no usable version information.
func IsPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == Unknown
}
