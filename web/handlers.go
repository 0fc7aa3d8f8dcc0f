package web

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/pkg/errors"

	"github.com/nvr-ai/navassist/controller"
)

// handleIndex serves the control page.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(indexHTML)
}

// handleStatus returns the page state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.State())
}

// handleObjects returns the object list of the last tick.
func (s *Server) handleObjects(c *fiber.Ctx) error {
	state := s.State()
	return c.JSON(fiber.Map{
		"objects": state.Objects,
		"empty":   state.Empty,
	})
}

// handleMetrics returns the operation timings.
func (s *Server) handleMetrics(c *fiber.Ctx) error {
	if s.profiler == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "metrics not enabled",
		})
	}
	return c.JSON(s.profiler.Snapshot())
}

func (s *Server) attached() Controls {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controls
}

// handleStart starts navigation.
func (s *Server) handleStart(c *fiber.Ctx) error {
	controls := s.attached()
	if controls == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "navigation not configured",
		})
	}

	err := controls.Start(s.ctx)
	switch errors.Cause(err) {
	case nil:
		return c.JSON(fiber.Map{"running": true})
	case controller.ErrAlreadyRunning:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(), "running": true,
		})
	case controller.ErrNotInitialized:
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(), "running": false,
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}

// handleStop stops navigation.
func (s *Server) handleStop(c *fiber.Ctx) error {
	controls := s.attached()
	if controls == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "navigation not configured",
		})
	}
	controls.Stop()
	return c.JSON(fiber.Map{"running": false})
}

// handleEventsWS streams events; the first message is the current state.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	greeting, err := json.Marshal(struct {
		Type string `json:"type"`
		State
	}{Type: "state", State: s.State()})
	if err != nil {
		s.logger.Warnw("failed to encode state", "error", err)
		return
	}

	client, err := s.hub.Join(c, greeting)
	if err != nil {
		return
	}
	client.Run()
}
