package version

import (
	"testing"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		latest   string
		expected int
		wantErr  bool
	}{
		{"older patch", "1.0.0", "1.0.1", -1, false},
		{"older minor", "1.0.0", "1.1.0", -1, false},
		{"equal", "1.2.3", "1.2.3", 0, false},
		{"newer", "1.1.0", "1.0.0", 1, false},
		{"v prefix both", "v1.0.0", "v1.0.1", -1, false},
		{"prerelease less than release", "1.0.0-beta", "1.0.0", -1, false},
		{"invalid current", "notaversion", "1.0.0", 0, true},
		{"unknown placeholder", Unknown, "1.0.0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CompareVersions(tt.current, tt.latest)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.current, tt.latest, result, tt.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	base := Descriptor{Version: "1.0.0", BuildHash: "h1", BuildTime: "t1"}

	tests := []struct {
		name     string
		remote   Descriptor
		expected Change
	}{
		{"identical", base, ChangeNone},
		{"upgrade", Descriptor{Version: "1.0.1", BuildHash: "h2", BuildTime: "t2"}, ChangeUpgrade},
		{"rollback", Descriptor{Version: "0.9.0", BuildHash: "h0", BuildTime: "t0"}, ChangeDowngrade},
		{"same version new hash", Descriptor{Version: "1.0.0", BuildHash: "h9", BuildTime: "t1"}, ChangeRebuild},
		{"non-semver", Descriptor{Version: "nightly-42", BuildHash: "h1", BuildTime: "t1"}, ChangeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(base, tt.remote); got != tt.expected {
				t.Errorf("Classify() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestClassify_NonSemverRebuild(t *testing.T) {
	a := Descriptor{Version: "nightly", BuildHash: "a"}
	b := Descriptor{Version: "nightly", BuildHash: "b"}
	if got := Classify(a, b); got != ChangeRebuild {
		t.Errorf("Classify() = %s, want %s", got, ChangeRebuild)
	}
}
