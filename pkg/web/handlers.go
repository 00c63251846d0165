package web

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-strum/pkg/announce"
	"github.com/teslashibe/go-strum/pkg/camera"
	"github.com/teslashibe/go-strum/pkg/hub"
	"github.com/teslashibe/go-strum/pkg/metronome"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// BPMRequest sets the tempo directly or moves it by Step increments of
// metronome.BPMStep.
type BPMRequest struct {
	BPM  *int `json:"bpm"`
	Step int  `json:"step"`
}

// SensitivityRequest sets the detection threshold.
type SensitivityRequest struct {
	Sensitivity *float64 `json:"sensitivity"`
}

// CooldownRequest sets the minimum time between strums.
type CooldownRequest struct {
	CooldownMs *int `json:"cooldown_ms"`
}

// SoundRequest toggles metronome clicks.
type SoundRequest struct {
	Enabled *bool `json:"enabled"`
}

type announcementView struct {
	Count      int    `json:"count"`
	Text       string `json:"text"`
	Error      string `json:"error,omitempty"`
	Stage      string `json:"stage,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

func newAnnouncementView(r announce.Result) announcementView {
	v := announcementView{Count: r.Count, Text: r.Text, DurationMs: r.Duration.Milliseconds()}
	if r.Err != nil {
		v.Error = r.Err.Error()
		var ae *announce.Error
		if errors.As(r.Err, &ae) {
			v.Stage = string(ae.Stage)
		}
	}
	return v
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
}

func badRequest(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}

// handleStatus returns the session status
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.Status())
}

// handleStart starts a session. Capture failures are 503.
func (s *Server) handleStart(c *fiber.Ctx) error {
	if err := s.ctrl.Start(c.UserContext()); err != nil {
		var ce *camera.CaptureError
		if errors.As(err, &ce) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
				Error: err.Error(),
				Kind:  string(ce.Kind),
			})
		}
		return err
	}
	return c.JSON(s.ctrl.Status())
}

// handleStop stops the session
func (s *Server) handleStop(c *fiber.Ctx) error {
	s.ctrl.Stop()
	return c.JSON(s.ctrl.Status())
}

func (s *Server) handleBPM(c *fiber.Ctx) error {
	var req BPMRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid body")
	}

	var bpm int
	switch {
	case req.BPM != nil:
		bpm = s.ctrl.SetBPM(*req.BPM)
	case req.Step != 0:
		bpm = s.ctrl.SetBPM(s.ctrl.Status().BPM + req.Step*metronome.BPMStep)
	default:
		return badRequest("bpm or step required")
	}
	return c.JSON(fiber.Map{"bpm": bpm})
}

func (s *Server) handleSensitivity(c *fiber.Ctx) error {
	var req SensitivityRequest
	if err := c.BodyParser(&req); err != nil || req.Sensitivity == nil {
		return badRequest("sensitivity required")
	}
	if err := s.ctrl.SetSensitivity(*req.Sensitivity); err != nil {
		return badRequest(err.Error())
	}
	return c.JSON(fiber.Map{"sensitivity": *req.Sensitivity})
}

func (s *Server) handleCooldown(c *fiber.Ctx) error {
	var req CooldownRequest
	if err := c.BodyParser(&req); err != nil || req.CooldownMs == nil {
		return badRequest("cooldown_ms required")
	}
	if err := s.ctrl.SetCooldown(time.Duration(*req.CooldownMs) * time.Millisecond); err != nil {
		return badRequest(err.Error())
	}
	return c.JSON(fiber.Map{"cooldown_ms": *req.CooldownMs})
}

func (s *Server) handleSound(c *fiber.Ctx) error {
	var req SoundRequest
	if err := c.BodyParser(&req); err != nil || req.Enabled == nil {
		return badRequest("enabled required")
	}
	s.ctrl.SetSoundEnabled(*req.Enabled)
	return c.JSON(fiber.Map{"enabled": *req.Enabled})
}

// CameraResponse is the current camera config and the available presets.
type CameraResponse struct {
	Config  camera.Config `json:"config"`
	Presets []string      `json:"presets"`
}

func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	return c.JSON(CameraResponse{
		Config:  s.cfg.Camera.GetConfig(),
		Presets: camera.PresetNames(),
	})
}

// handleUpdateCamera applies a partial config, e.g. {"preset": "480p"} or
// {"width": 640, "height": 480}.
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	params := map[string]any{}
	if err := c.BodyParser(&params); err != nil || len(params) == 0 {
		return badRequest("camera settings required")
	}
	if err := s.cfg.Camera.UpdateConfig(params); err != nil {
		return badRequest(err.Error())
	}
	return c.JSON(CameraResponse{
		Config:  s.cfg.Camera.GetConfig(),
		Presets: camera.PresetNames(),
	})
}

// handleEventsWS streams events, starting with the current state
func (s *Server) handleEventsWS(c *websocket.Conn) {
	client := hub.NewClient(s.events, c)

	// The write pump is not running yet, so this write does not race.
	if err := c.WriteJSON(hub.NewEvent(hub.EventState, s.ctrl.Status())); err != nil {
		s.logger.Debug("initial state write failed", "error", err)
	}

	client.Run()
}
