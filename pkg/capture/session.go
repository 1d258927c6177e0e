package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/securevote/kiosk/pkg/camera"
	"github.com/securevote/kiosk/pkg/securevote"
)

// Config holds session dependencies and tuning.
type Config struct {
	Opener   DeviceOpener
	Backend  Backend
	Display  Display
	Status   StatusSink
	Nav      Navigator
	Logger   *slog.Logger
	Interval time.Duration // playback pump interval
}

// Option is a functional option for configuring a session.
type Option func(*Config)

// WithOpener sets the camera device opener.
func WithOpener(o DeviceOpener) Option {
	return func(c *Config) { c.Opener = o }
}

// WithBackend sets the face backend client.
func WithBackend(b Backend) Option {
	return func(c *Config) { c.Backend = b }
}

// WithDisplay sets the playback surface.
func WithDisplay(d Display) Option {
	return func(c *Config) { c.Display = d }
}

// WithStatusSink sets the voter-facing status sink.
func WithStatusSink(s StatusSink) Option {
	return func(c *Config) { c.Status = s }
}

// WithNavigator sets the deferred navigation handler.
func WithNavigator(n Navigator) Option {
	return func(c *Config) { c.Nav = n }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithFrameInterval sets the playback pump interval.
func WithFrameInterval(d time.Duration) Option {
	return func(c *Config) { c.Interval = d }
}

// DefaultConfig returns session defaults matching the standard camera
// framerate.
func DefaultConfig() *Config {
	return &Config{
		Logger:   slog.Default(),
		Interval: time.Second / 15,
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Session owns at most one camera stream and runs the three submit flows
// against the face backend. Methods are safe for concurrent use; the flows
// themselves are deliberately not serialized against each other.
type Session struct {
	id       string
	opener   DeviceOpener
	backend  Backend
	display  Display
	status   StatusSink
	nav      Navigator
	logger   *slog.Logger
	interval time.Duration

	mu     sync.Mutex // guards device and pump lifecycle
	device camera.Device
	cancel context.CancelFunc
	done   chan struct{}

	frameMu sync.RWMutex
	frame   []byte // newest frame with usable dimensions
}

// NewSession creates a capture session. A Display and a Backend are
// required; the remaining surfaces are optional.
func NewSession(opts ...Option) (*Session, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.Display == nil {
		return nil, ErrNoDisplay
	}
	if cfg.Backend == nil {
		return nil, ErrNoBackend
	}

	id := uuid.NewString()
	return &Session{
		id:       id,
		opener:   cfg.Opener,
		backend:  cfg.Backend,
		display:  cfg.Display,
		status:   cfg.Status,
		nav:      cfg.Nav,
		logger:   cfg.Logger.With("component", "capture.session", "session", id[:8]),
		interval: cfg.Interval,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// StartCamera acquires a camera device and starts the playback pump.
// A device already held is released first.
func (s *Session) StartCamera(ctx context.Context) error {
	if s.opener == nil {
		s.setStatus(StatusCameraUnsupported)
		s.logger.Error("no device opener configured")
		return ErrCameraUnsupported
	}

	dev, err := s.opener(ctx)
	if err != nil {
		s.setStatus("❌ Camera error: " + err.Error())
		s.logger.Error("camera open failed", "error", err)
		return fmt.Errorf("capture: open camera: %w", err)
	}

	s.mu.Lock()
	s.stopLocked()
	s.device = dev
	pumpCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done
	go s.pump(pumpCtx, dev, done)
	s.mu.Unlock()

	s.logger.Info("camera started")
	s.setStatus(StatusCameraReady)
	return nil
}

// pump copies frames from the device to the display and keeps the newest
// valid frame ready for capture.
func (s *Session) pump(ctx context.Context, dev camera.Device, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		data, err := dev.ReadFrame()
		if err != nil {
			if errors.Is(err, camera.ErrDeviceClosed) {
				return
			}
			s.logger.Debug("frame read failed", "error", err)
			continue
		}

		// Frames without usable dimensions never enter the slot.
		if w, h, err := camera.DecodeBounds(data); err != nil || w == 0 || h == 0 {
			continue
		}

		s.frameMu.Lock()
		s.frame = data
		s.frameMu.Unlock()

		s.display.ShowFrame(data)
	}
}

// StopCamera releases the device and clears the captured frame.
// Calling it with no active device is a no-op.
func (s *Session) StopCamera() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	if s.device == nil {
		return
	}

	s.cancel()
	<-s.done

	if err := s.device.Close(); err != nil {
		s.logger.Warn("device close failed", "error", err)
	}
	s.device = nil
	s.cancel = nil
	s.done = nil

	s.frameMu.Lock()
	s.frame = nil
	s.frameMu.Unlock()

	s.logger.Info("camera stopped")
}

// Active reports whether a device is currently held.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device != nil
}

// CaptureFrame returns the newest frame as a base64 JPEG data URI, or the
// empty string when the camera is off or has not delivered a usable frame
// yet. It never touches the network.
func (s *Session) CaptureFrame() string {
	s.frameMu.RLock()
	defer s.frameMu.RUnlock()
	if s.frame == nil {
		return ""
	}
	return securevote.DataURI(s.frame)
}

// WaitFrame blocks until a frame is available for capture or ctx is done.
func (s *Session) WaitFrame(ctx context.Context) error {
	for {
		if s.CaptureFrame() != "" {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// setStatus mirrors every status line to the sink and the log.
func (s *Session) setStatus(text string) {
	s.logger.Info("status", "text", text)
	if s.status != nil {
		s.status.SetStatus(text)
	}
}
