package preview

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/securevote/kiosk/pkg/capture"
	"github.com/securevote/kiosk/pkg/securevote"
)

// handleStatus returns the kiosk's current state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	active := false
	if s.CameraActive != nil {
		active = s.CameraActive()
	}
	return c.JSON(fiber.Map{
		"status":          s.Status(),
		"camera_active":   active,
		"preview_clients": s.frames.clientCount(),
	})
}

// handleCameraStart starts the capture stream.
func (s *Server) handleCameraStart(c *fiber.Ctx) error {
	if s.OnCameraStart == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "camera control not configured",
		})
	}
	if err := s.OnCameraStart(c.UserContext()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"started": true})
}

// handleCameraStop stops the capture stream.
func (s *Server) handleCameraStop(c *fiber.Ctx) error {
	if s.OnCameraStop == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "camera control not configured",
		})
	}
	s.OnCameraStop()
	return c.JSON(fiber.Map{"stopped": true})
}

// handleFlow runs a capture flow by name.
func (s *Server) handleFlow(c *fiber.Ctx) error {
	flow, err := capture.ParseFlow(c.Params("flow"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if s.OnFlow == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "flows not configured",
		})
	}

	if err := s.OnFlow(c.UserContext(), string(flow)); err != nil {
		status := fiber.StatusUnprocessableEntity
		if securevote.IsServerError(err) {
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true, "flow": string(flow)})
}

// handleAttempts returns recent journal entries, newest first.
func (s *Server) handleAttempts(c *fiber.Ctx) error {
	if s.attempts == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "journal not configured",
		})
	}
	entries, err := s.attempts.Recent(c.UserContext(), 20)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(entries)
}

// handleGetCameraConfig returns the managed camera configuration.
func (s *Server) handleGetCameraConfig(c *fiber.Ctx) error {
	if s.manager == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "camera tuning not configured",
		})
	}
	return c.JSON(s.manager.GetConfig())
}

// handleSetCameraConfig updates camera fields or loads a preset. Changes
// apply the next time the stream starts.
func (s *Server) handleSetCameraConfig(c *fiber.Ctx) error {
	if s.manager == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "camera tuning not configured",
		})
	}
	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := s.manager.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(s.manager.GetConfig())
}

// handlePreviewWS streams binary JPEG frames.
func (s *Server) handlePreviewWS(c *websocket.Conn) {
	newWSClient(s.frames, c).run()
}

// handleEventsWS streams status and navigation events. The current status
// is replayed on connect so a fresh panel shows the right line.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	client := newWSClient(s.events, c)
	if status := s.Status(); status != "" {
		evt := newEvent(EventStatus)
		evt.Text = status
		if data, err := json.Marshal(evt); err == nil {
			client.queue(wsMessage{data: data})
		}
	}
	client.run()
}
