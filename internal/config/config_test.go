package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("UPDATEWATCH_HOME", dir)
	viper.Reset()
	t.Cleanup(viper.Reset)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := setup(t)
	Init()

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	checks := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"interval", s.Interval, 5 * time.Minute},
		{"debounce", s.Debounce, time.Second},
		{"visible_debounce", s.VisibleDebounce, 2 * time.Second},
		{"min_display", s.MinDisplay, 2 * time.Second},
		{"snooze_ttl", s.SnoozeTTL, 60 * time.Minute},
		{"http_timeout", s.HTTPTimeout, 10 * time.Second},
		{"probe_interval", s.ProbeInterval, 15 * time.Second},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if s.StoreBackend != "file" {
		t.Errorf("StoreBackend = %q, want file", s.StoreBackend)
	}
	if want := filepath.Join(dir, "state"); s.StorePath != want {
		t.Errorf("StorePath = %q, want %q", s.StorePath, want)
	}
	if s.Endpoint == "" {
		t.Error("Endpoint should default to the branded endpoint")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setup(t)
	t.Setenv("UPDATEWATCH_INTERVAL", "30s")
	t.Setenv("UPDATEWATCH_STORE_BACKEND", "sqlite")
	t.Setenv("UPDATEWATCH_ENDPOINT", "https://example.com/version.json")
	Init()

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Interval != 30*time.Second {
		t.Errorf("Interval = %v, want 30s", s.Interval)
	}
	if s.StoreBackend != "sqlite" {
		t.Errorf("StoreBackend = %q, want sqlite", s.StoreBackend)
	}
	if s.Endpoint != "https://example.com/version.json" {
		t.Errorf("Endpoint = %q", s.Endpoint)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	setup(t)
	t.Setenv("UPDATEWATCH_SNOOZE_TTL", "soon")
	Init()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "snooze_ttl") {
		t.Fatalf("Load err = %v, want snooze_ttl error", err)
	}
}

func TestSetAndGet(t *testing.T) {
	setup(t)
	Init()

	if err := Set(KeyReloadCommand, "systemctl restart web"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := Get(KeyReloadCommand); got != "systemctl restart web" {
		t.Errorf("Get = %q", got)
	}

	data, err := os.ReadFile(FilePath())
	if err != nil {
		t.Fatalf("reading config file: %v", err)
	}
	if !strings.Contains(string(data), "systemctl restart web") {
		t.Errorf("config file missing value:\n%s", data)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(Dir())
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o700 {
			t.Errorf("config dir perm = %o, want 700", perm)
		}
	}

	viper.Reset()
	Init()
	if got := Get(KeyReloadCommand); got != "systemctl restart web" {
		t.Errorf("after reload Get = %q", got)
	}
}

func TestSet_UnknownKey(t *testing.T) {
	setup(t)
	Init()

	if err := Set("mirror", "x"); err == nil {
		t.Error("Set should reject unknown keys")
	}
	if _, err := os.Stat(FilePath()); !os.IsNotExist(err) {
		t.Error("rejected Set should not create the config file")
	}
}
