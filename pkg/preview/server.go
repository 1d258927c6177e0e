// Package preview serves the kiosk's local control panel.
//
// The panel mirrors what the voter sees: the live camera preview, the
// status line, and any scheduled navigation. It also exposes a small API
// for driving capture flows during commissioning.
package preview

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/securevote/kiosk/internal/journal"
	"github.com/securevote/kiosk/pkg/camera"
	"github.com/securevote/kiosk/pkg/capture"
)

// AttemptSource lists recorded submission attempts.
type AttemptSource interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Config configures the control panel server.
type Config struct {
	// Addr is the listen address, e.g. ":8090".
	Addr string

	// WebDir is the directory of static panel assets. Empty disables the
	// static page; the API and websockets still work.
	WebDir string

	// MaxWidth downscales preview frames before broadcast. Zero sends
	// frames at capture resolution.
	MaxWidth int

	// Manager, when set, exposes the camera tuning endpoints.
	Manager *camera.Manager

	// Attempts, when set, exposes the submission journal.
	Attempts AttemptSource

	Logger *slog.Logger
}

// Server is the control panel server. It implements the capture session's
// display, status, and navigation surfaces.
type Server struct {
	app *fiber.App
	log *slog.Logger

	addr     string
	maxWidth int
	manager  *camera.Manager
	attempts AttemptSource

	frames *hub
	events *hub

	statusMu sync.RWMutex
	status   string

	// Callbacks wired by the command before Start.
	OnFlow        func(ctx context.Context, flow string) error
	OnCameraStart func(ctx context.Context) error
	OnCameraStop  func()
	CameraActive  func() bool
}

// NewServer creates a control panel server.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := cfg.Addr
	if addr == "" {
		addr = ":8090"
	}

	s := &Server{
		log:      logger,
		addr:     addr,
		maxWidth: cfg.MaxWidth,
		manager:  cfg.Manager,
		attempts: cfg.Attempts,
		frames:   newHub("frames", true, logger),
		events:   newHub("events", false, logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "SecureVote Kiosk",
		DisableStartupMessage: true,
	})

	// CORS for commissioning from a laptop on the booth network
	app.Use(cors.New())

	if cfg.WebDir != "" {
		app.Static("/", cfg.WebDir)
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/camera/start", s.handleCameraStart)
	api.Post("/camera/stop", s.handleCameraStop)
	api.Get("/camera/config", s.handleGetCameraConfig)
	api.Post("/camera/config", s.handleSetCameraConfig)
	api.Post("/flows/:flow", s.handleFlow)
	api.Get("/attempts", s.handleAttempts)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/preview", websocket.New(s.handlePreviewWS))
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// Start runs the hubs and blocks serving HTTP.
func (s *Server) Start() error {
	go s.frames.run()
	go s.events.run()
	s.log.Info("control panel listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.log.Error("control panel stopped", "error", err)
		}
	}()
}

// Shutdown disconnects all clients and stops the server.
func (s *Server) Shutdown() error {
	s.frames.stop()
	s.events.stop()
	return s.app.Shutdown()
}

// ShowFrame broadcasts a capture frame to preview clients.
func (s *Server) ShowFrame(jpegFrame []byte) {
	if s.frames.clientCount() == 0 {
		return
	}
	frame := jpegFrame
	if s.maxWidth > 0 {
		frame = scaleJPEG(jpegFrame, s.maxWidth)
	}
	s.frames.broadcastBinary(frame)
}

// SetStatus records and broadcasts the kiosk status line.
func (s *Server) SetStatus(text string) {
	s.statusMu.Lock()
	s.status = text
	s.statusMu.Unlock()

	evt := newEvent(EventStatus)
	evt.Text = text
	if err := s.events.broadcastJSON(evt); err != nil {
		s.log.Warn("encode status event", "error", err)
	}
}

// NavigateAfter broadcasts a navigation event. The panel page performs the
// redirect after the given delay.
func (s *Server) NavigateAfter(delay time.Duration, url string) {
	evt := newEvent(EventNavigate)
	evt.URL = url
	evt.DelayMs = delay.Milliseconds()
	if err := s.events.broadcastJSON(evt); err != nil {
		s.log.Warn("encode navigate event", "error", err)
	}
}

// Status returns the last status line shown to the voter.
func (s *Server) Status() string {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

var (
	_ capture.Display    = (*Server)(nil)
	_ capture.StatusSink = (*Server)(nil)
	_ capture.Navigator  = (*Server)(nil)
)
