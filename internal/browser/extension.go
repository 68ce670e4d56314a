package browser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reader View on the Chrome Web Store. Managed Chrome blocks
// --load-extension, so install happens once through the store page and the
// extension persists in the profile.
const (
	WebStoreExtensionID = "ecabifbgmdmgdllomnfinbmaellmclnh"
	webStoreURL         = "https://chromewebstore.google.com/detail/reader-view/" + WebStoreExtensionID
)

// Chrome component extension IDs, skipped during discovery.
var builtinExtensionIDs = map[string]bool{
	"ghbmnnjooekpmoecnnnilnnbdlolhkhi": true, // Chrome Web Store
	"nmmhkkegccagdldgiimedpiccmgmieda": true, // Payment Handler
	"nkeimhogjdpnpccoofpliimaahmaaome": true, // Hangouts
	"fignfifoniblkonapihmkfakmlgkbkcf": true, // TTS Engine
	"ahfgeienlihckogmohjhadlkjgocpleb": true, // Web Store component
	"mhjfbmdgcfjbbpaeojofohoefgiehjai": true, // PDF Viewer
}

func isBuiltinExtension(id string) bool { return builtinExtensionIDs[id] }

// extensionIDFromURL pulls the extension ID out of a chrome-extension URL,
// returning "" for anything else.
func extensionIDFromURL(url string) string {
	const prefix = "chrome-extension://"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	rest := strings.TrimPrefix(url, prefix)
	id, _, _ := strings.Cut(rest, "/")
	return id
}

func optionsURL(extID string) string {
	return fmt.Sprintf("chrome-extension://%s/data/options/index.html", extID)
}

// ExtensionID returns the cached Reader View extension ID, running
// discovery when none is recorded.
func (m *Manager) ExtensionID(ctx context.Context) (string, error) {
	m.mu.Lock()
	cached := m.state.ExtensionID
	m.mu.Unlock()
	if cached != "" && !isBuiltinExtension(cached) {
		return cached, nil
	}
	return m.DiscoverExtension(ctx)
}

// DiscoverExtension finds the Reader View extension in the running Chrome.
// Extension targets only show up while the service worker is awake, so the
// fallback probes the known Web Store ID by loading its reader page.
func (m *Manager) DiscoverExtension(ctx context.Context) (string, error) {
	if err := m.Connect(ctx); err != nil {
		return "", err
	}
	m.mu.Lock()
	browser := m.browser
	m.mu.Unlock()

	if res, err := (proto.TargetGetTargets{}).Call(browser); err == nil {
		for _, t := range res.TargetInfos {
			id := extensionIDFromURL(t.URL)
			if id != "" && !isBuiltinExtension(id) {
				return id, m.rememberExtension(id)
			}
		}
	}

	// Probe the Web Store install by navigating to a page the extension
	// serves. A load failure or an error title means it is not installed.
	page, err := m.ActivePage(ctx)
	if err != nil {
		return "", err
	}
	probeURL := fmt.Sprintf("chrome-extension://%s/data/reader/index.html", WebStoreExtensionID)
	if err := page.Timeout(m.cfg.NavigationTimeout()).Navigate(probeURL); err != nil {
		return "", fmt.Errorf("reader view is not installed; run 'readerview setup' first")
	}
	if err := sleepCtx(ctx, 500*time.Millisecond); err != nil {
		return "", err
	}
	title, err := m.Eval(ctx, "document.title || ''")
	if err != nil || title == "" || strings.Contains(strings.ToLower(title), "error") {
		return "", fmt.Errorf("reader view is not installed; run 'readerview setup' first")
	}
	_ = page.Navigate("about:blank")
	return WebStoreExtensionID, m.rememberExtension(WebStoreExtensionID)
}

func (m *Manager) rememberExtension(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.ExtensionID = id
	return m.persistStateLocked()
}

// OpenWebStore opens the Reader View store listing for one-time manual
// install.
func (m *Manager) OpenWebStore(ctx context.Context) error {
	return m.Navigate(ctx, webStoreURL)
}

// PushSettings writes the settings payload into the extension's
// chrome.storage.local. The write needs extension context, so the options
// page is loaded first and given time to settle. Each push fully replaces
// the stored values for its keys.
func (m *Manager) PushSettings(ctx context.Context, payload map[string]any) error {
	pushID := uuid.NewString()
	if err := m.storageSet(ctx, payload); err != nil {
		return err
	}

	m.mu.Lock()
	m.state.LastPushID = pushID
	m.state.LastPushAt = time.Now()
	err := m.persistStateLocked()
	m.mu.Unlock()
	if err != nil {
		m.log.Warn("Push succeeded but state not persisted", zap.Error(err))
	}
	m.log.Info("Settings pushed", zap.String("push_id", pushID), zap.Int("keys", len(payload)))
	return nil
}

// ImportPreferences replaces the extension's whole preference set.
func (m *Manager) ImportPreferences(ctx context.Context, prefs map[string]any) error {
	if err := m.storageSet(ctx, prefs); err != nil {
		return err
	}
	m.log.Info("Preferences imported", zap.Int("keys", len(prefs)))
	return nil
}

func (m *Manager) storageSet(ctx context.Context, doc map[string]any) error {
	extID, err := m.ExtensionID(ctx)
	if err != nil {
		return err
	}
	page, err := m.ActivePage(ctx)
	if err != nil {
		return err
	}

	if err := page.Timeout(m.cfg.NavigationTimeout()).Navigate(optionsURL(extID)); err != nil {
		return fmt.Errorf("open options page: %w", err)
	}
	_ = page.Timeout(m.cfg.NavigationTimeout()).WaitLoad()
	if err := sleepCtx(ctx, m.cfg.SettleDelay()); err != nil {
		return err
	}

	// Base64 the document so no value ever needs escaping inside the
	// evaluated script.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	b64 := base64.StdEncoding.EncodeToString(raw)

	res, err := page.Evaluate(&rod.EvalOptions{
		JS: `(b64) => new Promise((resolve, reject) => {
			const data = JSON.parse(atob(b64));
			chrome.storage.local.set(data, () => {
				if (chrome.runtime.lastError) reject(new Error(chrome.runtime.lastError.message));
				else resolve('OK');
			});
		})`,
		JSArgs:       []interface{}{b64},
		ByValue:      true,
		AwaitPromise: true,
		UserGesture:  true,
	})
	if err != nil {
		return fmt.Errorf("chrome.storage.local.set: %w", err)
	}
	if res == nil || res.Value.String() != "OK" {
		return fmt.Errorf("unexpected storage result: %v", res)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
