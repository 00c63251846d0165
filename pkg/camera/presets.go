package camera

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetLow     = "low"
	Preset480p    = "480p"
	Preset1080p   = "1080p"
	PresetRear    = "rear"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetLow:     LowConfig(),
		Preset480p:    SD480Config(),
		Preset1080p:   HD1080Config(),
		PresetRear:    RearConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetLow,
		Preset480p,
		Preset1080p,
		PresetRear,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// LowConfig captures directly at 320x240 for slow machines.
func LowConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 320
	cfg.Height = 240
	cfg.ProcessWidth = 0
	return cfg
}

// SD480Config returns 640x480 capture.
func SD480Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 640
	cfg.Height = 480
	return cfg
}

// HD1080Config returns 1080p capture, still processed at 320 px.
func HD1080Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1920
	cfg.Height = 1080
	return cfg
}

// RearConfig is the default without mirroring, for a camera facing away
// from the player.
func RearConfig() Config {
	cfg := DefaultConfig()
	cfg.Mirror = false
	return cfg
}
