package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/AdityaNG/ugv-cam/pkg/hub"
	"github.com/AdityaNG/ugv-cam/pkg/schema"
	"github.com/AdityaNG/ugv-cam/pkg/ugv"
)

// handleStatus reports the Agent and feed state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	left, right := s.target()
	return c.JSON(fiber.Map{
		"status":            s.agent.Status().String(),
		"steps":             s.agent.Steps(),
		"warnings":          s.agent.Warnings(),
		"session_dir":       s.agent.SessionDir(),
		"target_left":       left,
		"target_right":      right,
		"telemetry_clients": s.telemetryHub.ClientCount(),
		"camera_clients":    s.cameraHub.ClientCount(),
	})
}

// driveRequest is the body of POST /api/drive.
type driveRequest struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// handleDrive updates the wheel-speed target the drive loop follows.
// The speeds are validated up front so a bad request is rejected here,
// not discovered later inside the loop.
func (s *Server) handleDrive(c *fiber.Ctx) error {
	var req driveRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "validation", err)
	}

	if _, err := schema.SpeedCtrl(req.Left, req.Right); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "validation", err)
	}

	s.SetTarget(req.Left, req.Right)
	return c.JSON(fiber.Map{"left": req.Left, "right": req.Right})
}

// actionRequest is the body of POST /api/action.
type actionRequest struct {
	Kind   string         `json:"kind"`
	Params map[string]any `json:"params"`
}

// handleAction validates and executes one arbitrary command immediately,
// outside the drive loop's speed control.
func (s *Server) handleAction(c *fiber.Ctx) error {
	var req actionRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "validation", err)
	}

	kind, ok := schema.KindByName(req.Kind)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "validation",
			&schema.ValidationError{Reason: "unknown command kind " + req.Kind})
	}

	action, err := schema.Validate(kind, req.Params)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "validation", err)
	}

	s.stepMu.Lock()
	st, err := s.agent.Step(c.Context(), action)
	s.stepMu.Unlock()
	if err != nil {
		return stepErrorJSON(c, err)
	}

	return c.JSON(telemetryMessage{
		Status:      s.agent.Status().String(),
		Steps:       s.agent.Steps(),
		Warnings:    s.agent.Warnings(),
		StalenessMs: st.Staleness().Milliseconds(),
		State:       st,
	})
}

// handleTelemetryWS attaches a client to the telemetry feed.
func (s *Server) handleTelemetryWS(c *websocket.Conn) {
	hub.NewClient(s.telemetryHub, c).Run()
}

// handleCameraWS attaches a client to the camera frame feed.
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}

// stepErrorJSON maps a Step failure to a response the UI can act on:
// fix the command, fix connectivity, or just wait.
func stepErrorJSON(c *fiber.Ctx, err error) error {
	var verr *schema.ValidationError
	switch {
	case errors.As(err, &verr):
		return errorJSON(c, fiber.StatusBadRequest, "validation", err)
	case ugv.IsTransport(err):
		return errorJSON(c, fiber.StatusGatewayTimeout, "transport", err)
	case ugv.IsProtocol(err):
		return errorJSON(c, fiber.StatusBadGateway, "protocol", err)
	default:
		return errorJSON(c, fiber.StatusInternalServerError, "internal", err)
	}
}

func errorJSON(c *fiber.Ctx, status int, class string, err error) error {
	return c.Status(status).JSON(fiber.Map{
		"class": class,
		"error": err.Error(),
	})
}
