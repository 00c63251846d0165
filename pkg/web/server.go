// Package web serves the practice dashboard: a JSON control API and a
// websocket stream of strum, beat, milestone and state events.
package web

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-strum/pkg/announce"
	"github.com/teslashibe/go-strum/pkg/camera"
	"github.com/teslashibe/go-strum/pkg/hub"
	"github.com/teslashibe/go-strum/pkg/metronome"
	"github.com/teslashibe/go-strum/pkg/practice"
)

//go:embed static
var staticFS embed.FS

// Controller is the session surface driven by the API.
type Controller interface {
	Start(ctx context.Context) error
	Stop()
	SetBPM(n int) int
	SetSensitivity(v float64) error
	SetCooldown(d time.Duration) error
	SetSoundEnabled(on bool)
	Status() practice.Status
}

// EventSource is the session surface streamed to websocket clients.
type EventSource interface {
	OnStrumDetected(fn func(practice.Strum))
	OnBeat(fn func(metronome.Beat))
	OnMilestone(fn func(practice.Milestone))
	OnAnnouncement(fn func(announce.Result))
	OnStateChange(fn func(practice.Status))
}

var _ Controller = (*practice.Session)(nil)
var _ EventSource = (*practice.Session)(nil)

// Config configures the server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// StaticDir serves a dashboard from disk instead of the embedded one.
	StaticDir string

	// Camera enables the /api/camera routes.
	Camera *camera.Manager

	Logger *slog.Logger
}

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	cfg    Config
	ctrl   Controller
	events *hub.Hub
	logger *slog.Logger
}

// NewServer creates a dashboard server for ctrl. Call Watch to stream the
// session's events.
func NewServer(cfg Config, ctrl Controller) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	s := &Server{
		cfg:    cfg,
		ctrl:   ctrl,
		events: hub.New("events", cfg.Logger),
		logger: cfg.Logger.With("component", "web.server"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-strum",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/start", s.handleStart)
	api.Post("/stop", s.handleStop)
	api.Put("/bpm", s.handleBPM)
	api.Put("/sensitivity", s.handleSensitivity)
	api.Put("/cooldown", s.handleCooldown)
	api.Put("/sound", s.handleSound)
	if cfg.Camera != nil {
		api.Get("/camera", s.handleGetCamera)
		api.Put("/camera", s.handleUpdateCamera)
	}

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	// Dashboard
	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	} else {
		app.Use("/", filesystem.New(filesystem.Config{
			Root:       http.FS(staticFS),
			PathPrefix: "static",
			Index:      "index.html",
		}))
	}

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the event hub.
func (s *Server) Hub() *hub.Hub {
	return s.events
}

// Watch forwards the session's events to websocket clients.
func (s *Server) Watch(src EventSource) {
	src.OnStrumDetected(func(st practice.Strum) {
		s.publish(hub.EventStrum, st)
	})
	src.OnBeat(func(b metronome.Beat) {
		s.publish(hub.EventBeat, b)
	})
	src.OnMilestone(func(m practice.Milestone) {
		s.publish(hub.EventMilestone, m)
	})
	src.OnAnnouncement(func(r announce.Result) {
		s.publish(hub.EventAnnouncement, newAnnouncementView(r))
	})
	src.OnStateChange(func(st practice.Status) {
		s.publish(hub.EventState, st)
	})
}

func (s *Server) publish(typ string, data any) {
	if err := s.events.Publish(typ, data); err != nil {
		s.logger.Warn("publish failed", "type", typ, "error", err)
	}
}

// Run serves until ctx is done, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.events.Run(ctx)

	errc := make(chan error, 1)
	go func() {
		errc <- s.app.Listener(ln)
	}()
	s.logger.Info("dashboard listening", "url", "http://"+ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
