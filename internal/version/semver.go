package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Change labels the difference between the applied build and a remote one.
type Change int

const (
	// ChangeUnknown means the version strings are not comparable as semver.
	ChangeUnknown Change = iota
	// ChangeNone means the descriptors are identical.
	ChangeNone
	// ChangeUpgrade means the remote version is newer.
	ChangeUpgrade
	// ChangeDowngrade means the remote version is older (a rollback).
	ChangeDowngrade
	// ChangeRebuild means the version is the same but the build differs.
	ChangeRebuild
)

func (c Change) String() string {
	switch c {
	case ChangeNone:
		return "none"
	case ChangeUpgrade:
		return "upgrade"
	case ChangeDowngrade:
		return "downgrade"
	case ChangeRebuild:
		return "rebuild"
	default:
		return "unknown"
	}
}

// CompareVersions compares two version strings using semver.
// Returns -1 if current < latest, 0 if equal, 1 if current > latest.
// Handles "v" prefix tolerance (strips leading "v" before parsing).
func CompareVersions(current, latest string) (int, error) {
	cv, err := parseSemver(current)
	if err != nil {
		return 0, fmt.Errorf("parsing current version %q: %w", current, err)
	}
	lv, err := parseSemver(latest)
	if err != nil {
		return 0, fmt.Errorf("parsing latest version %q: %w", latest, err)
	}
	return cv.Compare(lv), nil
}

// Classify labels how remote differs from applied. It is used for display
// only; whether to prompt is decided by a structural comparison.
func Classify(applied, remote Descriptor) Change {
	if applied.Equal(remote) {
		return ChangeNone
	}
	cmp, err := CompareVersions(applied.Version, remote.Version)
	if err != nil {
		if applied.Version == remote.Version {
			return ChangeRebuild
		}
		return ChangeUnknown
	}
	switch cmp {
	case -1:
		return ChangeUpgrade
	case 1:
		return ChangeDowngrade
	default:
		return ChangeRebuild
	}
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(version, "v")
	return semver.NewVersion(version)
}
