package version

import (
	"strings"
	"testing"
)

func TestInfoShort(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"version only", Info{Version: "dev"}, "dev"},
		{"with commit", Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0-abc1234"},
		{"dirty", Info{Version: "1.0.0", GitCommit: "abc1234", Dirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.info.Short(); got != tc.want {
				t.Errorf("Short() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Version: "1.0.0", BuildTime: "2024-01-15T10:30:00Z", GoVersion: "go1.26.0"}
	got := info.String()
	if !strings.HasPrefix(got, "1.0.0 (built 2024-01-15T10:30:00Z") || !strings.Contains(got, "go1.26.0") {
		t.Errorf("unexpected String() %q", got)
	}
	if (Info{Version: "dev"}).String() != "dev" {
		t.Error("expected bare version without build time")
	}
}

func TestIsRelease(t *testing.T) {
	if (Info{Version: "dev"}).IsRelease() {
		t.Error("dev must not be a release")
	}
	if (Info{Version: "1.0.0", Dirty: true}).IsRelease() {
		t.Error("dirty build must not be a release")
	}
	if !(Info{Version: "1.0.0"}).IsRelease() {
		t.Error("expected release")
	}
}

func TestGetUsesLinkedValues(t *testing.T) {
	origVersion, origCommit, origBuild := Version, GitCommit, BuildTime
	defer func() { Version, GitCommit, BuildTime = origVersion, origCommit, origBuild }()

	Version, GitCommit, BuildTime = "2.1.0", "deadbeefcafe", "2025-01-01T00:00:00Z"
	info := Get()
	if info.Version != "2.1.0" {
		t.Errorf("expected linked version, got %q", info.Version)
	}
	if info.GitCommit != "deadbee" {
		t.Errorf("expected abbreviated commit, got %q", info.GitCommit)
	}
	if info.BuildTime != "2025-01-01T00:00:00Z" {
		t.Errorf("expected linked build time, got %q", info.BuildTime)
	}
}
