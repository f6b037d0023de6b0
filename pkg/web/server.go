// Package web serves the teleop dashboard: REST control of the Agent plus
// websocket feeds for camera frames and per-step telemetry. It is a pure
// front-end; everything it does goes through the Agent's public surface.
package web

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/AdityaNG/ugv-cam/internal/log"
	"github.com/AdityaNG/ugv-cam/pkg/agent"
	"github.com/AdityaNG/ugv-cam/pkg/hub"
	"github.com/AdityaNG/ugv-cam/pkg/schema"
)

// driveRate is the dashboard's control loop cadence. Each tick turns the
// latest requested wheel speeds into one Agent step.
const driveRate = 100 * time.Millisecond

// Server is the teleop dashboard.
type Server struct {
	app  *fiber.App
	addr string

	agent *agent.Agent

	telemetryHub *hub.Hub
	cameraHub    *hub.Hub

	// stepMu serializes Agent.Step between the drive loop and one-shot
	// action requests; the Agent is a single-caller surface.
	stepMu sync.Mutex

	// target wheel speeds, updated by input handlers, consumed by the
	// drive loop.
	targetMu sync.Mutex
	targetL  float64
	targetR  float64

	stop chan struct{}
	done chan struct{}
}

// NewServer wires routes and hubs around an Agent.
func NewServer(addr string, ag *agent.Agent) *Server {
	s := &Server{
		addr:         addr,
		agent:        ag,
		telemetryHub: hub.New("telemetry"),
		cameraHub:    hub.New("camera"),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}

	app := fiber.New(fiber.Config{
		AppName:               "ugv-cam dashboard",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())
	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/drive", s.handleDrive)
	api.Post("/action", s.handleAction)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/telemetry", websocket.New(s.handleTelemetryWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// Run starts the hubs, the drive loop, and the HTTP listener. Blocks until
// the listener stops.
func (s *Server) Run() error {
	go s.telemetryHub.Run()
	go s.cameraHub.Run()
	go s.driveLoop()

	log.Info("dashboard listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown stops the drive loop, the listener, and the hubs. The Agent is
// left to its owner to shut down.
func (s *Server) Shutdown() error {
	close(s.stop)
	<-s.done

	// Listener first so websocket clients disconnect before their hubs go.
	err := s.app.Shutdown()
	s.telemetryHub.Stop()
	s.cameraHub.Stop()
	return err
}

// SetTarget updates the wheel speeds the drive loop sends each tick.
func (s *Server) SetTarget(left, right float64) {
	s.targetMu.Lock()
	s.targetL = left
	s.targetR = right
	s.targetMu.Unlock()
}

// target returns the current requested wheel speeds.
func (s *Server) target() (float64, float64) {
	s.targetMu.Lock()
	defer s.targetMu.Unlock()
	return s.targetL, s.targetR
}

// driveLoop steps the Agent at a fixed rate with the latest requested
// speeds and feeds the results to the websocket hubs.
func (s *Server) driveLoop() {
	defer close(s.done)

	ticker := time.NewTicker(driveRate)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Server) tick() {
	left, right := s.target()
	action, err := schema.SpeedCtrl(left, right)
	if err != nil {
		// SetTarget inputs are clamped by the handlers; reaching this
		// means a programming error, not bad user input.
		log.Error("drive loop built an invalid action", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), driveRate*2)
	defer cancel()

	s.stepMu.Lock()
	st, err := s.agent.Step(ctx, action)
	s.stepMu.Unlock()
	if err != nil {
		log.Warn("drive step failed", "status", s.agent.Status().String(), "error", err)
		s.broadcastTelemetry(schema.State{}, err)
		return
	}

	s.broadcastTelemetry(st, nil)
	if !st.Image.Empty() && !st.FrameRepeated {
		s.cameraHub.BroadcastBinary(st.Image.JPEG)
	}
}

// telemetryMessage is one frame of the /ws/telemetry feed.
type telemetryMessage struct {
	Status      string       `json:"status"`
	Steps       uint64       `json:"steps"`
	Warnings    uint64       `json:"warnings"`
	StalenessMs int64        `json:"staleness_ms"`
	Error       string       `json:"error,omitempty"`
	State       schema.State `json:"state"`
}

func (s *Server) broadcastTelemetry(st schema.State, stepErr error) {
	msg := telemetryMessage{
		Status:      s.agent.Status().String(),
		Steps:       s.agent.Steps(),
		Warnings:    s.agent.Warnings(),
		StalenessMs: st.Staleness().Milliseconds(),
		State:       st,
	}
	if stepErr != nil {
		msg.Error = stepErr.Error()
	}
	s.telemetryHub.BroadcastJSON(msg)
}
