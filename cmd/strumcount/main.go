// strumcount counts guitar strums from a webcam while a metronome ticks,
// and announces every hundredth strum by voice.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/go-strum/internal/config"
	"github.com/teslashibe/go-strum/internal/log"
	"github.com/teslashibe/go-strum/pkg/app"
	"github.com/teslashibe/go-strum/pkg/audioio"
	"github.com/teslashibe/go-strum/pkg/motion"
	"github.com/teslashibe/go-strum/pkg/tts"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	cfg := parseFlags()

	level := "info"
	if cfg.Debug {
		level = "debug"
	}
	log.Init(level)
	logger := log.L()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Init(ctx); err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer a.Shutdown()

	if err := a.Run(ctx); err != nil {
		logger.Error("runtime error", "error", err)
	}
}

// parseFlags parses command line flags and returns configuration.
// Precedence: flags, then environment, then the settings file, then defaults.
func parseFlags() app.Config {
	cfg := app.DefaultConfig()

	settingsPath, _ := config.SettingsPath()
	settingsFile := flag.String("settings", settingsPath, "Practice settings file (empty disables persistence)")

	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	device := flag.Int("device", config.EnvInt("STRUM_CAMERA_DEVICE", cfg.Camera.DeviceID), "Camera device index")
	width := flag.Int("width", cfg.Camera.Width, "Capture width")
	height := flag.Int("height", cfg.Camera.Height, "Capture height")
	noMirror := flag.Bool("no-mirror", false, "Do not mirror the camera image")
	bpm := flag.Int("bpm", 0, "Metronome tempo (30-240)")
	motionPreset := flag.String("motion", "", "Detection preset: "+strings.Join(motion.PresetNames(), ", "))
	sensitivity := flag.Float64("sensitivity", config.EnvFloat("STRUM_SENSITIVITY", 0), "Detection threshold (lower detects lighter strums)")
	cooldown := flag.Duration("cooldown", 0, "Minimum time between counted strums")
	silent := flag.Bool("silent", config.EnvBool("STRUM_SILENT", false), "Start with metronome sound off")
	accent := flag.Int("accent", 0, "Accent the first beat of every N beats (0 disables)")
	audioBackend := flag.String("audio", string(audioio.BackendAuto), "Audio output: "+backendList())
	rtpAddr := flag.String("rtp-addr", "", "UDP destination for RTP audio, e.g. 127.0.0.1:5004")
	ttsMode := flag.String("tts", config.Env("STRUM_TTS", cfg.TTSMode), "Milestone voice: elevenlabs, openai, mock, none")
	ttsVoice := flag.String("tts-voice", "", "Voice ID or preset ("+strings.Join(tts.VoiceNames(), ", ")+")")
	port := flag.String("port", config.Env("STRUM_PORT", "8080"), "Dashboard port")
	static := flag.String("static", "", "Serve the dashboard from this directory")
	demo := flag.Bool("demo", false, "Use a synthetic strumming pattern instead of the camera")
	autostart := flag.Bool("autostart", false, "Start a session immediately")
	flag.Parse()

	cfg.SettingsPath = *settingsFile
	if cfg.SettingsPath != "" {
		settings, err := config.LoadSettings(cfg.SettingsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v (using defaults)\n", err)
		}
		cfg.ApplySettings(settings)
	}

	cfg.Debug, cfg.Demo, cfg.AutoStart = *debug, *demo, *autostart || *demo
	cfg.Camera.DeviceID, cfg.Camera.Width, cfg.Camera.Height = *device, *width, *height
	cfg.Camera.Mirror = !*noMirror
	if *motionPreset != "" {
		preset, ok := motion.Preset(*motionPreset)
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown motion preset %q\n", *motionPreset)
			os.Exit(2)
		}
		cfg.Practice.Sensitivity = preset.Sensitivity
		cfg.Practice.Cooldown = preset.Cooldown
	}
	if *bpm != 0 {
		cfg.Practice.BPM = *bpm
	}
	if *sensitivity != 0 {
		cfg.Practice.Sensitivity = *sensitivity
	}
	if *cooldown != 0 {
		cfg.Practice.Cooldown = *cooldown
	}
	if *silent {
		cfg.Practice.SoundEnabled = false
	}
	cfg.Practice.BeatsPerBar = *accent
	cfg.Audio.Backend = audioio.Backend(*audioBackend)
	cfg.Audio.RTPAddr = *rtpAddr
	cfg.TTSMode = *ttsMode
	if *ttsVoice != "" {
		cfg.TTSVoice = *ttsVoice
	}
	cfg.Addr = ":" + *port
	cfg.StaticDir = *static

	// Environment variables
	cfg.LoadEnvConfig()
	return cfg
}

func backendList() string {
	names := []string{string(audioio.BackendAuto)}
	for _, b := range audioio.AvailableBackends() {
		names = append(names, string(b))
	}
	return strings.Join(names, ", ")
}
