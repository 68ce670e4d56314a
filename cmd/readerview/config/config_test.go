package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	t.Setenv("READERVIEW_CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DebugPort != 9333 {
		t.Errorf("default port = %d", cfg.DebugPort)
	}
	if cfg.SettingsDir != "my-settings" {
		t.Errorf("default settings dir = %q", cfg.SettingsDir)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("READERVIEW_CONFIG_DIR", t.TempDir())

	want := DefaultConfig()
	want.ChromeBin = "/opt/chrome/chrome"
	want.Headless = true
	if err := Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("READERVIEW_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"chrome_bin":"/usr/bin/chromium"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChromeBin != "/usr/bin/chromium" {
		t.Errorf("chrome_bin = %q", cfg.ChromeBin)
	}
	if cfg.DebugPort != 9333 {
		t.Errorf("unset field lost its default: %+v", cfg)
	}
}
