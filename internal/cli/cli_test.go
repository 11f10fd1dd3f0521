package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/viper"

	"github.com/ylingtech/updatewatch/internal/updater"
	"github.com/ylingtech/updatewatch/internal/version"
)

// deployment serves a mutable version descriptor.
type deployment struct {
	mu     sync.Mutex
	body   string
	status int
}

func (d *deployment) set(v, hash string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = http.StatusOK
	d.body = fmt.Sprintf(`{"version":%q,"buildHash":%q,"buildTime":"2026-10-01T00:00:00Z"}`, v, hash)
}

func (d *deployment) fail(status int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = status
}

func (d *deployment) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status != http.StatusOK {
		w.WriteHeader(d.status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, d.body)
}

func setupCLI(t *testing.T) *deployment {
	t.Helper()
	dep := &deployment{}
	dep.set("1.0.1", "h1")
	srv := httptest.NewServer(dep)
	t.Cleanup(srv.Close)

	t.Setenv("UPDATEWATCH_HOME", t.TempDir())
	t.Setenv("UPDATEWATCH_ENDPOINT", srv.URL+"/version.json")
	viper.Reset()
	t.Cleanup(viper.Reset)
	return dep
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	checkJSON, statusJSON, applyForce = false, false, false
	versionShort, versionJSON = false, false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("%s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func checkResult(t *testing.T) checkReport {
	t.Helper()
	var r checkReport
	out := mustRun(t, "check", "--json")
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("check --json output is not JSON: %v\n%s", err, out)
	}
	return r
}

func statusResult(t *testing.T) statusReport {
	t.Helper()
	var r statusReport
	out := mustRun(t, "status", "--json")
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("status --json output is not JSON: %v\n%s", err, out)
	}
	return r
}

func TestCheckThenApply(t *testing.T) {
	setupCLI(t)

	r := checkResult(t)
	if !r.HasUpdate || r.LatestVersion != "1.0.1" || r.CurrentVersion != version.Unknown {
		t.Fatalf("first check = %+v, want first-visit prompt", r)
	}

	out := mustRun(t, "apply")
	if !strings.Contains(out, "Successfully applied 1.0.1") {
		t.Errorf("apply output:\n%s", out)
	}
	if !strings.Contains(out, "Reload your application") {
		t.Errorf("apply without reload_command should print a reload hint:\n%s", out)
	}

	if r := checkResult(t); r.HasUpdate {
		t.Errorf("check after apply = %+v, want no update", r)
	}
	st := statusResult(t)
	if st.CurrentVersion != "1.0.1" || st.Applied == nil || st.Applied.BuildHash != "h1" {
		t.Errorf("status = %+v", st)
	}
	if st.Applied != nil && st.Applied.AppliedAt.IsZero() {
		t.Error("applied record should carry appliedAt")
	}

	out = mustRun(t, "apply")
	if !strings.Contains(out, "latest build") {
		t.Errorf("second apply should report nothing to do:\n%s", out)
	}
}

func TestDismissAndReset(t *testing.T) {
	dep := setupCLI(t)
	mustRun(t, "apply")
	dep.set("1.0.2", "h2")

	if r := checkResult(t); !r.HasUpdate || r.Change != "upgrade" {
		t.Fatalf("check after deploy = %+v, want upgrade prompt", r)
	}
	if out := mustRun(t, "dismiss"); !strings.Contains(out, "Dismissed 1.0.2") {
		t.Errorf("dismiss output:\n%s", out)
	}
	for i := 0; i < 2; i++ {
		if r := checkResult(t); r.HasUpdate {
			t.Fatalf("check %d after dismiss = %+v", i, r)
		}
	}
	if st := statusResult(t); st.Dismissed != "1.0.2" {
		t.Errorf("status dismissed = %q", st.Dismissed)
	}

	mustRun(t, "reset")
	st := statusResult(t)
	if st.CurrentVersion != version.Unknown || st.Dismissed != "" || st.Applied != nil {
		t.Errorf("status after reset = %+v", st)
	}
	if r := checkResult(t); !r.HasUpdate {
		t.Error("check after reset should behave like a first visit")
	}
}

func TestSnooze(t *testing.T) {
	dep := setupCLI(t)
	t.Setenv("UPDATEWATCH_STORE_BACKEND", "sqlite")
	mustRun(t, "apply")
	dep.set("1.0.2", "h2")

	out := mustRun(t, "snooze")
	if !strings.Contains(out, "Snoozed 1.0.2 for 1h0m0s") {
		t.Errorf("snooze output:\n%s", out)
	}
	if r := checkResult(t); r.HasUpdate {
		t.Errorf("check inside the snooze = %+v", r)
	}
	st := statusResult(t)
	if st.Snooze == nil || !st.Snooze.Active || st.Snooze.Version != "1.0.2" {
		t.Errorf("status snooze = %+v", st.Snooze)
	}
	if !strings.HasPrefix(st.Store, "sqlite:") {
		t.Errorf("status store = %q, want sqlite backend", st.Store)
	}

	dep.set("1.0.3", "h3")
	if r := checkResult(t); !r.HasUpdate {
		t.Error("a different build should prompt despite the snooze")
	}
}

func TestCheck_FetchFailureIsNotAnError(t *testing.T) {
	dep := setupCLI(t)
	dep.fail(http.StatusServiceUnavailable)

	r := checkResult(t)
	if r.HasUpdate || !strings.Contains(r.Error, "503") {
		t.Errorf("check = %+v, want error mentioning 503", r)
	}

	out := mustRun(t, "check")
	if !strings.Contains(out, "Update check failed") {
		t.Errorf("check output:\n%s", out)
	}

	if _, err := runCLI(t, "dismiss"); err == nil || !strings.Contains(err.Error(), "nothing to dismiss") {
		t.Errorf("dismiss err = %v, want nothing to dismiss", err)
	}
	if _, err := runCLI(t, "apply"); err == nil {
		t.Error("apply should fail when the check fails")
	}
}

func TestConfigCommands(t *testing.T) {
	setupCLI(t)

	mustRun(t, "config", "set", "interval", "30s")
	if out := mustRun(t, "config", "get", "interval"); strings.TrimSpace(out) != "30s" {
		t.Errorf("config get interval = %q", out)
	}
	if out := mustRun(t, "config", "list"); !strings.Contains(out, "snooze_ttl") {
		t.Errorf("config list output:\n%s", out)
	}
	if _, err := runCLI(t, "config", "set", "mirror", "x"); err == nil {
		t.Error("unknown key should be rejected")
	}
	if _, err := runCLI(t, "config", "get", "mirror"); err == nil {
		t.Error("unknown key should be rejected")
	}
	if _, err := runCLI(t, "config", "set", "interval", "often"); err == nil {
		t.Error("invalid duration should be reported")
	}
}

func TestVersionCommand(t *testing.T) {
	buildVersion, buildCommit, buildDate = "1.2.3", "abc123", "2026-10-01"

	if out := mustRun(t, "version", "--short"); strings.TrimSpace(out) != "1.2.3" {
		t.Errorf("version --short = %q", out)
	}
	var info map[string]string
	if err := json.Unmarshal([]byte(mustRun(t, "version", "--json")), &info); err != nil {
		t.Fatal(err)
	}
	if info["commit"] != "abc123" {
		t.Errorf("version --json = %v", info)
	}
}

func TestCommandReloader(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	marker := filepath.Join(t.TempDir(), "reloaded")
	var out bytes.Buffer
	r := CommandReloader{
		Command: `printf '%s %s' "$UPDATEWATCH_VERSION" "$UPDATEWATCH_BUILD_HASH" > ` + marker,
		Stdout:  &out,
		Stderr:  &out,
	}

	if err := r.Reload(context.Background(), version.Descriptor{Version: "1.0.1", BuildHash: "h1"}); err != nil {
		t.Fatalf("Reload: %v\n%s", err, out.String())
	}
	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "1.0.1 h1" {
		t.Errorf("reload command saw %q", data)
	}

	r.Command = "exit 3"
	if err := r.Reload(context.Background(), version.Descriptor{Version: "1.0.1"}); err == nil {
		t.Error("failing command should return an error")
	}
}

func TestStateFeedKeepsNewest(t *testing.T) {
	f := newStateFeed()
	f.publish(updater.State{Phase: updater.PhaseChecking})
	f.publish(updater.State{Phase: updater.PhaseUpdateAvailable})

	if got := (<-f.ch).Phase; got != updater.PhaseUpdateAvailable {
		t.Errorf("feed delivered %s, want update-available", got)
	}
	select {
	case s := <-f.ch:
		t.Errorf("unexpected extra state %s", s.Phase)
	default:
	}
}
