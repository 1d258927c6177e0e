package camera

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Manager guards the capture configuration shared between the panel
// and the device opener. Changes take effect the next time a device
// opens, or immediately when OnConfigChange pushes them to a live one.
type Manager struct {
	mu  sync.RWMutex
	cfg Config

	// OnConfigChange, when set, is called with every accepted config.
	OnConfigChange func(cfg Config) error
}

// NewManager starts from DefaultConfig.
func NewManager() *Manager {
	return &Manager{cfg: DefaultConfig()}
}

// GetConfig returns the current capture configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// SetConfig validates and stores cfg, then notifies OnConfigChange.
func (m *Manager) SetConfig(cfg Config) error {
	if problems := cfg.Validate(); len(problems) > 0 {
		return fmt.Errorf("camera config: %s", strings.Join(problems, "; "))
	}

	m.mu.Lock()
	m.cfg = cfg
	apply := m.OnConfigChange
	m.mu.Unlock()

	if apply != nil {
		if err := apply(cfg); err != nil {
			return fmt.Errorf("apply camera config: %w", err)
		}
	}
	return nil
}

// UpdateConfig applies a partial update from decoded JSON. A "preset"
// key loads the named preset first; width, height, framerate and
// quality keys then override individual fields. Unknown keys are
// rejected so typos surface instead of silently doing nothing.
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	cfg := m.GetConfig()

	if name, ok := params["preset"].(string); ok {
		preset := GetPreset(name)
		if preset == nil {
			return fmt.Errorf("unknown preset %q (want one of %s)", name, strings.Join(PresetNames(), ", "))
		}
		cfg = *preset
	}

	for key, value := range params {
		var ok bool
		switch key {
		case "preset":
			ok = true
		case "width":
			cfg.Width, ok = asInt(value, cfg.Width)
		case "height":
			cfg.Height, ok = asInt(value, cfg.Height)
		case "framerate":
			cfg.Framerate, ok = asInt(value, cfg.Framerate)
		case "quality":
			cfg.Quality, ok = asInt(value, cfg.Quality)
		default:
			return fmt.Errorf("unknown camera setting %q", key)
		}
		if !ok {
			return fmt.Errorf("camera setting %q: want a number, got %T", key, value)
		}
	}

	return m.SetConfig(cfg)
}

// asInt converts the numeric types JSON decoding produces. On failure
// it returns fallback unchanged with ok false.
func asInt(v interface{}, fallback int) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i), true
		}
	}
	return fallback, false
}
