// Package browser owns the dedicated Chrome instance used to develop and
// push Reader View settings, driven over the DevTools protocol. The
// extension itself is an unmodifiable external host: everything here talks
// to it only through navigation and chrome.storage.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Config holds Chrome settings for the manager.
type Config struct {
	Bin                 string `json:"bin"`
	DebugPort           int    `json:"debug_port"`
	UserDataDir         string `json:"user_data_dir"`
	StateFile           string `json:"state_file"`
	Headless            bool   `json:"headless"`
	NavigationTimeoutMs int    `json:"navigation_timeout_ms"`
	SettleDelayMs       int    `json:"settle_delay_ms"`
}

// DefaultConfig returns sensible defaults rooted under ~/.readerview.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".readerview")
	return Config{
		DebugPort:           9333,
		UserDataDir:         filepath.Join(base, "chrome-data"),
		StateFile:           filepath.Join(base, "state.json"),
		NavigationTimeoutMs: 30000,
		SettleDelayMs:       2500,
	}
}

// NavigationTimeout returns the navigation timeout.
func (c Config) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// SettleDelay is how long to let the extension options page settle after
// navigation before chrome.storage is touched.
func (c Config) SettleDelay() time.Duration {
	if c.SettleDelayMs == 0 {
		return 2500 * time.Millisecond
	}
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

// State is the persisted handle to a running Chrome, written on launch so
// later commands can reattach instead of starting a second instance.
type State struct {
	ControlURL  string    `json:"control_url"`
	UserDataDir string    `json:"user_data_dir"`
	ExtensionID string    `json:"extension_id,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	LastPushID  string    `json:"last_push_id,omitempty"`
	LastPushAt  time.Time `json:"last_push_at,omitempty"`
}

// Manager owns the dedicated Chrome instance.
type Manager struct {
	cfg Config
	log *zap.Logger

	mu      sync.Mutex
	browser *rod.Browser
	state   State
}

// NewManager creates a manager. A nil logger is replaced with a no-op.
func NewManager(cfg Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{cfg: cfg, log: log}
}

// ErrNotRunning is returned by Connect when no live Chrome is recorded.
var ErrNotRunning = errors.New("chrome is not running; use 'readerview start' first")

// Start reattaches to a live Chrome recorded in the state file, or launches
// a fresh one with remote debugging enabled. Chrome outlives this process:
// the launcher runs without leakless supervision and the control URL is
// persisted for later commands.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadStateLocked(); err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	if m.state.ControlURL != "" {
		if err := m.connectLocked(ctx); err == nil {
			m.log.Info("Reattached to running Chrome", zap.String("control_url", m.state.ControlURL))
			return nil
		}
		m.log.Info("Stale Chrome state, relaunching")
		m.state = State{}
	}

	launch := launcher.New().
		Leakless(false).
		Headless(m.cfg.Headless).
		UserDataDir(m.cfg.UserDataDir).
		Set(flags.RemoteDebuggingPort, strconv.Itoa(m.cfg.DebugPort)).
		Set("remote-allow-origins", "*").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-default-apps")
	if m.cfg.Bin != "" {
		launch = launch.Bin(m.cfg.Bin)
	}

	controlURL, err := launch.Launch()
	if err != nil {
		return fmt.Errorf("launch chrome: %w", err)
	}

	m.state = State{
		ControlURL:  controlURL,
		UserDataDir: m.cfg.UserDataDir,
		StartedAt:   time.Now(),
	}
	if err := m.connectLocked(ctx); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}
	if err := m.persistStateLocked(); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}

	m.log.Info("Chrome started",
		zap.String("control_url", controlURL),
		zap.String("user_data_dir", m.cfg.UserDataDir))
	return nil
}

// Connect attaches to the Chrome recorded in the state file. Unlike Start
// it never launches: commands that operate on a page require an instance
// started explicitly.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		return nil
	}
	if err := m.loadStateLocked(); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if m.state.ControlURL == "" {
		return ErrNotRunning
	}
	if err := m.connectLocked(ctx); err != nil {
		return ErrNotRunning
	}
	return nil
}

// connectLocked dials the control URL and verifies the browser answers.
func (m *Manager) connectLocked(ctx context.Context) error {
	browser := rod.New().ControlURL(m.state.ControlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return err
	}
	if _, err := browser.Version(); err != nil {
		_ = browser.Close()
		return err
	}
	m.browser = browser
	return nil
}

// Stop shuts the browser down and clears the state file.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadStateLocked(); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if m.state.ControlURL == "" {
		return ErrNotRunning
	}
	if m.browser == nil {
		if err := m.connectLocked(ctx); err != nil {
			// Chrome already gone; just drop the stale state.
			m.state = State{}
			return m.persistStateLocked()
		}
	}

	err := m.browser.Close()
	m.browser = nil
	m.state = State{}
	if perr := m.persistStateLocked(); perr != nil && err == nil {
		err = perr
	}
	m.log.Info("Chrome stopped")
	return err
}

// IsConnected reports whether a DevTools connection is live.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browser != nil
}

// State returns a copy of the persisted state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ActivePage returns the first open page target, creating a blank one when
// Chrome has none.
func (m *Manager) ActivePage(ctx context.Context) (*rod.Page, error) {
	m.mu.Lock()
	browser := m.browser
	m.mu.Unlock()
	if browser == nil {
		return nil, ErrNotRunning
	}

	pages, err := browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	if len(pages) > 0 {
		return pages[0].Context(ctx), nil
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return page.Context(ctx), nil
}

// PageInfo describes one open page for status output.
type PageInfo struct {
	Title string
	URL   string
}

// StatusInfo summarizes the running instance.
type StatusInfo struct {
	Running     bool
	ControlURL  string
	Version     string
	ExtensionID string
	Pages       []PageInfo
	StartedAt   time.Time
	LastPushAt  time.Time
}

// Status reports on the recorded Chrome without launching anything.
func (m *Manager) Status(ctx context.Context) (*StatusInfo, error) {
	err := m.Connect(ctx)
	if errors.Is(err, ErrNotRunning) {
		st := m.State()
		return &StatusInfo{ExtensionID: st.ExtensionID}, nil
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	browser := m.browser
	st := m.state
	m.mu.Unlock()

	info := &StatusInfo{
		Running:     true,
		ControlURL:  st.ControlURL,
		ExtensionID: st.ExtensionID,
		StartedAt:   st.StartedAt,
		LastPushAt:  st.LastPushAt,
	}
	if v, err := browser.Version(); err == nil {
		info.Version = v.Product
	}
	pages, err := browser.Pages()
	if err != nil {
		return info, nil
	}
	for _, p := range pages {
		pi, err := p.Info()
		if err != nil {
			continue
		}
		info.Pages = append(info.Pages, PageInfo{Title: pi.Title, URL: pi.URL})
	}
	return info, nil
}

func (m *Manager) persistStateLocked() error {
	if m.cfg.StateFile == "" {
		return nil
	}
	if m.state == (State{}) {
		err := os.Remove(m.cfg.StateFile)
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.cfg.StateFile), 0o755); err != nil {
		return err
	}
	return os.WriteFile(m.cfg.StateFile, data, 0o644)
}

func (m *Manager) loadStateLocked() error {
	if m.cfg.StateFile == "" || m.state.ControlURL != "" {
		return nil
	}
	data, err := os.ReadFile(m.cfg.StateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	m.state = st
	return nil
}

// NormalizeTargetURL fills in a scheme for bare hostnames passed to the
// open command.
func NormalizeTargetURL(url string) string {
	for _, prefix := range []string{"http", "chrome", "about", "file", "data"} {
		if strings.HasPrefix(url, prefix) {
			return url
		}
	}
	return "https://" + url
}
