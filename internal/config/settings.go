package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

// Settings are the user's practice preferences. Counts are never stored.
type Settings struct {
	BPM            int
	Sensitivity    float64
	Cooldown       time.Duration
	SoundEnabled   bool
	MilestoneEvery int
}

// DefaultSettings mirrors the practice defaults.
func DefaultSettings() Settings {
	return Settings{
		BPM:            60,
		Sensitivity:    30,
		Cooldown:       150 * time.Millisecond,
		SoundEnabled:   true,
		MilestoneEvery: 100,
	}
}

type yamlSettings struct {
	BPM            int     `yaml:"bpm"`
	Sensitivity    float64 `yaml:"sensitivity"`
	CooldownMs     int     `yaml:"cooldown_ms"`
	SoundEnabled   *bool   `yaml:"sound_enabled"`
	MilestoneEvery int     `yaml:"milestone_every"`
}

// SettingsPath returns <user config dir>/go-strum/settings.yaml.
func SettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, AppName, settingsFileName), nil
}

// LoadSettings reads settings from path. A missing file yields defaults;
// out-of-range values keep their default.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var file yamlSettings
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYAML(&settings, file)
	return settings, nil
}

// SaveSettings writes settings to path, creating the directory if needed.
func SaveSettings(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	sound := s.SoundEnabled
	out, err := yaml.Marshal(yamlSettings{
		BPM:            s.BPM,
		Sensitivity:    s.Sensitivity,
		CooldownMs:     int(s.Cooldown / time.Millisecond),
		SoundEnabled:   &sound,
		MilestoneEvery: s.MilestoneEvery,
	})
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

func applyYAML(s *Settings, f yamlSettings) {
	if f.BPM >= 30 && f.BPM <= 240 {
		s.BPM = f.BPM
	}
	if f.Sensitivity > 0 && f.Sensitivity <= 255 {
		s.Sensitivity = f.Sensitivity
	}
	if f.CooldownMs > 0 {
		s.Cooldown = time.Duration(f.CooldownMs) * time.Millisecond
	}
	if f.SoundEnabled != nil {
		s.SoundEnabled = *f.SoundEnabled
	}
	if f.MilestoneEvery > 0 {
		s.MilestoneEvery = f.MilestoneEvery
	}
}
