// Package prefs stores desktop editor preferences as JSON.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"facial-editor/internal/transform"
)

const prefsFile = "preferences.json"

// Keys used by the editor.
const (
	KeyLastDir     = "lastDirectory"
	KeyLastPhoto   = "lastPhoto"
	KeyLastScene   = "lastScene"
	KeyScale       = "scale"
	KeyRotation    = "rotation"
	KeyOpacity     = "opacity"
	KeyFitToWindow = "fitToWindow"
)

// Prefs stores preferences as a key-value map.
type Prefs struct {
	mu      sync.RWMutex
	values  map[string]any
	path    string
	changed bool
}

// DefaultPath returns <user config dir>/facial-editor/preferences.json.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "facial-editor", prefsFile)
}

// Load reads preferences from DefaultPath.
func Load() *Prefs {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads preferences from path. A missing or unreadable file gives
// empty preferences.
func LoadFrom(path string) *Prefs {
	p := &Prefs{values: make(map[string]any), path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(data, &p.values)
	return p
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.Lock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.changed = false
	p.mu.Unlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

// SaveIfChanged writes preferences only if a value was set since the last
// save.
func (p *Prefs) SaveIfChanged() error {
	p.mu.RLock()
	changed := p.changed
	p.mu.RUnlock()
	if !changed {
		return nil
	}
	return p.Save()
}

func (p *Prefs) set(key string, val any) {
	p.mu.Lock()
	if p.values[key] != val {
		p.values[key] = val
		p.changed = true
	}
	p.mu.Unlock()
}

// FloatWithFallback returns a float64 preference, or fallback if not set.
func (p *Prefs) FloatWithFallback(key string, fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key].(float64); ok {
		return v
	}
	return fallback
}

// SetFloat stores a float64 preference.
func (p *Prefs) SetFloat(key string, val float64) {
	p.set(key, val)
}

// String returns a string preference, or "" if not set.
func (p *Prefs) String(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, _ := p.values[key].(string)
	return s
}

// SetString stores a string preference.
func (p *Prefs) SetString(key string, val string) {
	p.set(key, val)
}

// Bool returns a bool preference, or fallback if not set.
func (p *Prefs) Bool(key string, fallback bool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if b, ok := p.values[key].(bool); ok {
		return b
	}
	return fallback
}

// SetBool stores a bool preference.
func (p *Prefs) SetBool(key string, val bool) {
	p.set(key, val)
}

// Params returns the last used sticker parameters, defaulting missing or
// invalid values.
func (p *Prefs) Params() transform.Params {
	d := transform.DefaultParams()
	params := transform.Params{
		Scale:    p.FloatWithFallback(KeyScale, d.Scale),
		Rotation: p.FloatWithFallback(KeyRotation, d.Rotation),
		Opacity:  p.FloatWithFallback(KeyOpacity, d.Opacity),
	}
	if params.Validate() != nil {
		return d
	}
	return params.Normalized()
}

// SetParams remembers the sticker parameters.
func (p *Prefs) SetParams(params transform.Params) {
	p.SetFloat(KeyScale, params.Scale)
	p.SetFloat(KeyRotation, params.Rotation)
	p.SetFloat(KeyOpacity, params.Opacity)
}
