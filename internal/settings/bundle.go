// Package settings loads the maintained Reader View customization files
// and assembles the chrome.storage.local payload the extension expects.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"readerview/internal/action"
)

// File names inside the settings directory. The storage keys they map to
// are fixed by the extension and must not change.
const (
	ReaderCSSFile   = "reader-view.css"
	SidebarCSSFile  = "frame-sidebar.css"
	ActionsFile     = "user-action.json"
	PreferencesFile = "reader-view-preferences.json"
)

// Storage keys under chrome.storage.local.
const (
	keyReaderCSS  = "user-css"
	keySidebarCSS = "top-css"
	keyActions    = "user-action"
)

// Bundle is one loaded settings set: the article-frame stylesheet, the
// toolbar/sidebar stylesheet, and the validated action registry.
type Bundle struct {
	Dir        string
	ReaderCSS  string
	SidebarCSS string
	Actions    action.Registry
}

// Load reads and validates the three settings files from dir. A missing
// file or an invalid action registry is an error naming the file.
func Load(dir string) (*Bundle, error) {
	readerCSS, err := readSettingsFile(dir, ReaderCSSFile)
	if err != nil {
		return nil, err
	}
	sidebarCSS, err := readSettingsFile(dir, SidebarCSSFile)
	if err != nil {
		return nil, err
	}

	actionsPath := filepath.Join(dir, ActionsFile)
	reg, err := action.ValidateFile(actionsPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ActionsFile, err)
	}

	return &Bundle{
		Dir:        dir,
		ReaderCSS:  readerCSS,
		SidebarCSS: sidebarCSS,
		Actions:    reg,
	}, nil
}

// StoragePayload builds the document pushed wholesale into
// chrome.storage.local. Each push fully replaces the prior values; the
// extension has no partial-update path.
func (b *Bundle) StoragePayload() map[string]any {
	// The registry goes in as parsed JSON, not as text: the extension
	// stores the structured value.
	entries := make([]map[string]string, 0, len(b.Actions))
	for _, d := range b.Actions {
		entries = append(entries, map[string]string{
			"label": d.Label,
			"icon":  d.Icon,
			"code":  d.Code,
		})
	}
	return map[string]any{
		keyReaderCSS:  b.ReaderCSS,
		keySidebarCSS: b.SidebarCSS,
		keyActions:    entries,
	}
}

// LoadPreferences reads the full preferences export, used by the import
// command. The document is free-form beyond being a JSON object; its keys
// are the extension's own storage keys.
func LoadPreferences(dir string) (map[string]any, error) {
	path := filepath.Join(dir, PreferencesFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var prefs map[string]any
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("%s: not a JSON object: %w", PreferencesFile, err)
	}
	return prefs, nil
}

func readSettingsFile(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}
