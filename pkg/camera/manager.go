package camera

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Manager owns the live camera configuration.
type Manager struct {
	mu     sync.RWMutex
	config Config

	// OnConfigChange applies an accepted config, typically by reopening
	// the device. Its error is returned from SetConfig, but the new
	// config stays stored.
	OnConfigChange func(cfg Config) error
}

// NewManager creates a new camera manager with cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{config: cfg}
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig validates and stores cfg, then notifies OnConfigChange.
func (m *Manager) SetConfig(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("camera: invalid config: %s", strings.Join(errs, "; "))
	}

	m.mu.Lock()
	m.config = cfg
	callback := m.OnConfigChange
	m.mu.Unlock()

	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("camera: apply config: %w", err)
		}
	}

	return nil
}

var intFields = map[string]func(*Config, int){
	"device_id":     func(c *Config, v int) { c.DeviceID = v },
	"width":         func(c *Config, v int) { c.Width = v },
	"height":        func(c *Config, v int) { c.Height = v },
	"framerate":     func(c *Config, v int) { c.Framerate = v },
	"process_width": func(c *Config, v int) { c.ProcessWidth = v },
}

// UpdateConfig applies a partial update decoded from JSON. A "preset" key
// replaces the whole config first; other keys then override its fields.
// Unknown keys and mistyped values are ignored.
func (m *Manager) UpdateConfig(params map[string]any) error {
	cfg := m.GetConfig()

	if name, ok := params["preset"].(string); ok {
		preset := GetPreset(name)
		if preset == nil {
			return fmt.Errorf("camera: unknown preset %q", name)
		}
		cfg = *preset
	}

	for key, value := range params {
		if set, ok := intFields[key]; ok {
			if v, ok := toInt(value); ok {
				set(&cfg, v)
			}
			continue
		}
		if key == "mirror" {
			if v, ok := value.(bool); ok {
				cfg.Mirror = v
			}
		}
	}
	return m.SetConfig(cfg)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
}
