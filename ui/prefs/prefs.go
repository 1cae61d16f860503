// Package prefs persists the editor's user preferences between runs as JSON
// under the user config dir: the last browsed directory, grid visibility,
// zoom level, and theme variant.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const prefsFile = "preferences.json"

// Preference keys. The file is a flat JSON object keyed by these.
const (
	keyLastDir  = "lastDirectory"
	keyShowGrid = "canvas.showGrid"
	keyZoom     = "canvas.zoom"
	keyTheme    = "ui.theme"
)

// Prefs holds the loaded preference values.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]interface{}
	path   string
}

// Load reads preferences from ~/.config/notecanvas/preferences.json.
// A missing or unreadable file yields defaults.
func Load() *Prefs {
	p := &Prefs{
		values: make(map[string]interface{}),
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	dir := filepath.Join(configDir, "notecanvas")
	p.path = filepath.Join(dir, prefsFile)

	data, err := os.ReadFile(p.path)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(data, &p.values)
	return p
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.RLock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

// LastDirectory returns the directory of the most recent file dialog, or ""
// when none has been recorded.
func (p *Prefs) LastDirectory() string {
	return p.getString(keyLastDir)
}

// SetLastDirectory records the directory for the next file dialog.
func (p *Prefs) SetLastDirectory(dir string) {
	p.set(keyLastDir, dir)
}

// ShowGrid returns whether the background grid was visible last run.
func (p *Prefs) ShowGrid() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if b, ok := p.values[keyShowGrid].(bool); ok {
		return b
	}
	return false
}

// SetShowGrid records grid visibility.
func (p *Prefs) SetShowGrid(on bool) {
	p.set(keyShowGrid, on)
}

// Zoom returns the saved zoom scale, or 0 when none is stored so the caller
// can keep the default.
func (p *Prefs) Zoom() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	// JSON numbers decode as float64; freshly set values may still be ints.
	switch n := p.values[keyZoom].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

// SetZoom records the zoom scale.
func (p *Prefs) SetZoom(scale float64) {
	p.set(keyZoom, scale)
}

// DarkTheme returns whether the dark theme was active. Dark is the default,
// so anything but an explicit "light" reads as dark.
func (p *Prefs) DarkTheme() bool {
	return p.getString(keyTheme) != "light"
}

// SetDarkTheme records the theme variant.
func (p *Prefs) SetDarkTheme(dark bool) {
	if dark {
		p.set(keyTheme, "dark")
	} else {
		p.set(keyTheme, "light")
	}
}

func (p *Prefs) getString(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if s, ok := p.values[key].(string); ok {
		return s
	}
	return ""
}

func (p *Prefs) set(key string, val interface{}) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}
