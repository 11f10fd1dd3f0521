package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestChmod(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "app_update_applied.json")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Chmod(path, FilePermSecure); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("permissions = %o, want %o", perm, 0600)
		}
	}
}

func TestEnsureSecureDir(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "state", "nested")

	if err := EnsureSecureDir(dir); err != nil {
		t.Fatalf("EnsureSecureDir failed: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Fatal("expected a directory")
	}
	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm != 0700 {
			t.Errorf("permissions = %o, want %o", perm, 0700)
		}
	}
}

func TestEnsureSecureDir_TightensExisting(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on Windows")
	}
	dir := filepath.Join(t.TempDir(), "open")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	if err := EnsureSecureDir(dir); err != nil {
		t.Fatalf("EnsureSecureDir failed: %v", err)
	}

	info, _ := os.Stat(dir)
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("permissions = %o, want %o", perm, 0700)
	}
}
