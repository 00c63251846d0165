package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-strum/internal/config"
	"github.com/teslashibe/go-strum/pkg/audioio"
	"github.com/teslashibe/go-strum/pkg/camera"
	"github.com/teslashibe/go-strum/pkg/practice"
	"github.com/teslashibe/go-strum/pkg/tts"
	"github.com/teslashibe/go-strum/pkg/web"
)

// demoStrumEvery is the demo pattern's frames per strum: about two
// strums a second at the default frame interval.
const demoStrumEvery = 30

// App is the assembled strum counter.
type App struct {
	config Config
	logger *slog.Logger

	source    camera.Source
	webcam    *camera.Webcam
	cameraMgr *camera.Manager
	output    audioio.Output
	speech    tts.Provider
	session   *practice.Session
	server    *web.Server
}

// New validates cfg. Nothing is opened until Init.
func New(cfg Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &App{config: cfg, logger: logger.With("component", "app")}, nil
}

// Init builds every component. The camera is opened when a session starts.
func (a *App) Init(ctx context.Context) error {
	a.initSource()

	if err := a.initAudio(); err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	if err := a.initSpeech(ctx); err != nil {
		return fmt.Errorf("tts init: %w", err)
	}
	if err := a.initSession(); err != nil {
		return fmt.Errorf("session init: %w", err)
	}
	a.initWeb()
	return nil
}

// Run serves the dashboard until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a.config.AutoStart {
		if err := a.session.Start(ctx); err != nil {
			a.logger.Warn("auto start failed, start from the dashboard once the camera is available", "error", err)
		}
	}
	return a.server.Run(ctx)
}

// Shutdown stops the session, saves the practice settings and releases
// the audio output and the speech provider.
func (a *App) Shutdown() {
	if a.session != nil {
		st := a.session.Status()
		a.session.Close()
		a.logger.Info("session closed", "count", st.Count)
		a.saveSettings(st)
	}
	if a.output != nil {
		a.output.Close()
	}
	if a.speech != nil {
		a.speech.Close()
	}
}

// Session returns the practice session.
func (a *App) Session() *practice.Session {
	return a.session
}

// Server returns the dashboard server.
func (a *App) Server() *web.Server {
	return a.server
}

func (a *App) initSource() {
	if a.config.Demo {
		w, h := a.config.Camera.ProcessSize()
		a.source = camera.NewGeneratedSource("demo", camera.StrumPattern(w, h, demoStrumEvery))
		a.logger.Info("demo mode: synthetic strums", "width", w, "height", h)
		return
	}

	a.webcam = camera.NewWebcam(a.config.Camera, a.logger)
	a.source = a.webcam
	a.cameraMgr = camera.NewManager(a.config.Camera)
	a.cameraMgr.OnConfigChange = a.webcam.Reconfigure
}

func (a *App) initAudio() error {
	out, err := audioio.NewOutput(a.config.Audio, a.logger)
	if err != nil {
		return err
	}
	// Left suspended: the first click or announcement resumes it.
	a.output = out
	return nil
}

func (a *App) initSpeech(ctx context.Context) error {
	opts := []tts.Option{
		tts.WithLogger(a.logger),
		tts.WithTimeout(a.config.Practice.AnnouncementTimeout),
	}

	switch a.config.TTSMode {
	case TTSElevenLabs:
		p, err := tts.NewElevenLabs(append(opts,
			tts.WithAPIKey(a.config.ElevenLabsKey),
			tts.WithVoice(a.config.TTSVoice),
		)...)
		if err != nil {
			return err
		}
		a.speech = p
	case TTSOpenAI:
		opts = append(opts, tts.WithAPIKey(a.config.OpenAIKey))
		if a.config.TTSVoice != "" && !tts.IsElevenLabsPreset(a.config.TTSVoice) {
			opts = append(opts, tts.WithVoice(a.config.TTSVoice))
		}
		p, err := tts.NewOpenAI(opts...)
		if err != nil {
			return err
		}
		a.speech = p
	case TTSMock:
		a.speech = tts.NewMock()
	case TTSNone:
		a.logger.Info("milestone announcements disabled")
		return nil
	}

	hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.speech.Health(hctx); err != nil {
		a.logger.Warn("speech provider unhealthy, announcements may fail", "mode", a.config.TTSMode, "error", err)
	}
	return nil
}

func (a *App) initSession() error {
	cfg := a.config.Practice
	cfg.Logger = a.logger

	sess, err := practice.New(cfg, practice.Deps{
		Source: a.source,
		Output: a.output,
		Speech: a.speech,
	})
	if err != nil {
		return err
	}
	a.session = sess
	return nil
}

func (a *App) initWeb() {
	a.server = web.NewServer(web.Config{
		Addr:      a.config.Addr,
		StaticDir: a.config.StaticDir,
		Camera:    a.cameraMgr,
		Logger:    a.logger,
	}, a.session)
	a.server.Watch(a.session)
}

func (a *App) saveSettings(st practice.Status) {
	if a.config.SettingsPath == "" {
		return
	}
	settings := config.Settings{
		BPM:            st.BPM,
		Sensitivity:    st.Sensitivity,
		Cooldown:       st.Cooldown,
		SoundEnabled:   st.SoundEnabled,
		MilestoneEvery: a.config.Practice.MilestoneEvery,
	}
	if err := config.SaveSettings(a.config.SettingsPath, settings); err != nil {
		a.logger.Warn("settings not saved", "path", a.config.SettingsPath, "error", err)
		return
	}
	a.logger.Debug("settings saved", "path", a.config.SettingsPath)
}
