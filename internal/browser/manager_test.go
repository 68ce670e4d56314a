package browser

import (
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNormalizeTargetURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "https://example.com"},
		{"https://example.com", "https://example.com"},
		{"http://example.com/a", "http://example.com/a"},
		{"chrome://version", "chrome://version"},
		{"chrome-extension://abc/page.html", "chrome-extension://abc/page.html"},
		{"about:blank", "about:blank"},
		{"file:///tmp/x.html", "file:///tmp/x.html"},
	}
	for _, tt := range tests {
		if got := NormalizeTargetURL(tt.in); got != tt.want {
			t.Errorf("NormalizeTargetURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtensionIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"chrome-extension://ecabifbgmdmgdllomnfinbmaellmclnh/data/reader/index.html", "ecabifbgmdmgdllomnfinbmaellmclnh"},
		{"chrome-extension://abc", "abc"},
		{"https://example.com", ""},
		{"chrome://newtab", ""},
	}
	for _, tt := range tests {
		if got := extensionIDFromURL(tt.url); got != tt.want {
			t.Errorf("extensionIDFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestBuiltinExtensionsSkipped(t *testing.T) {
	if !isBuiltinExtension("mhjfbmdgcfjbbpaeojofohoefgiehjai") {
		t.Error("PDF viewer should be treated as builtin")
	}
	if isBuiltinExtension(WebStoreExtensionID) {
		t.Error("Reader View must not be treated as builtin")
	}
}

func TestOptionsURL(t *testing.T) {
	got := optionsURL("abc123")
	want := "chrome-extension://abc123/data/options/index.html"
	if got != want {
		t.Errorf("optionsURL = %q, want %q", got, want)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DebugPort != 9333 {
		t.Errorf("default debug port = %d, want 9333", cfg.DebugPort)
	}
	if cfg.NavigationTimeout() != 30*time.Second {
		t.Errorf("default navigation timeout = %v", cfg.NavigationTimeout())
	}
	if (Config{}).SettleDelay() != 2500*time.Millisecond {
		t.Errorf("zero-value settle delay = %v", Config{}.SettleDelay())
	}
}

func TestStatePersistence(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "state.json")
	cfg := DefaultConfig()
	cfg.StateFile = stateFile

	m := NewManager(cfg, zap.NewNop())
	m.state = State{
		ControlURL:  "ws://127.0.0.1:9333/devtools/browser/xyz",
		ExtensionID: "abc123",
		StartedAt:   time.Now().Truncate(time.Second),
	}
	if err := m.persistStateLocked(); err != nil {
		t.Fatalf("persist: %v", err)
	}

	reloaded := NewManager(cfg, zap.NewNop())
	if err := reloaded.loadStateLocked(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if reloaded.state.ControlURL != m.state.ControlURL {
		t.Errorf("control URL = %q, want %q", reloaded.state.ControlURL, m.state.ControlURL)
	}
	if reloaded.state.ExtensionID != "abc123" {
		t.Errorf("extension ID = %q", reloaded.state.ExtensionID)
	}

	// Clearing state removes the file.
	m.state = State{}
	if err := m.persistStateLocked(); err != nil {
		t.Fatalf("persist empty: %v", err)
	}
	cleared := NewManager(cfg, zap.NewNop())
	if err := cleared.loadStateLocked(); err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if cleared.state.ControlURL != "" {
		t.Errorf("state survived clear: %+v", cleared.state)
	}
}

func TestStateMissingFileIsEmpty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StateFile = filepath.Join(t.TempDir(), "nope", "state.json")
	m := NewManager(cfg, nil)
	if err := m.loadStateLocked(); err != nil {
		t.Fatalf("missing state file should not error: %v", err)
	}
	if m.state != (State{}) {
		t.Errorf("expected empty state, got %+v", m.state)
	}
}
