// Package config loads kiosk settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Camera source kinds accepted by the kiosk.
const (
	SourceWebcam = "webcam"
	SourceRemote = "remote"
)

// Settings holds everything the kiosk reads from the environment.
// Command-line flags override these per command.
type Settings struct {
	// BackendURL is the base URL of the SecureVote face backend.
	BackendURL string `env:"SECUREVOTE_BACKEND_URL" envDefault:"http://127.0.0.1:5000"`

	// ListenAddr is the preview dashboard bind address.
	ListenAddr string `env:"KIOSK_LISTEN_ADDR" envDefault:":8090"`

	// CameraSource selects the frame source: "webcam" or "remote".
	CameraSource string `env:"KIOSK_CAMERA_SOURCE" envDefault:"webcam"`

	// CameraDevice is the local capture device index (webcam source).
	CameraDevice int `env:"KIOSK_CAMERA_DEVICE" envDefault:"0"`

	// CameraPreset names a camera.Config preset.
	CameraPreset string `env:"KIOSK_CAMERA_PRESET" envDefault:"default"`

	// SignallingURL is the websocket signalling endpoint (remote source).
	SignallingURL string `env:"KIOSK_SIGNALLING_URL" envDefault:"ws://127.0.0.1:8555/ws"`

	// JournalPath is the SQLite attempt journal file. Empty disables it.
	JournalPath string `env:"KIOSK_JOURNAL_PATH"`

	// WebDir is the static kiosk page directory.
	WebDir string `env:"KIOSK_WEB_DIR" envDefault:"./web"`

	// PreviewWidth caps the width of frames sent to dashboard clients.
	// Zero sends frames unscaled.
	PreviewWidth int `env:"KIOSK_PREVIEW_WIDTH" envDefault:"0"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"KIOSK_LOG_LEVEL" envDefault:"info"`
}

// Load parses Settings from the environment.
func Load() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("config: parse environment: %w", err)
	}
	return s, nil
}

// Validate reports problems that would prevent the kiosk from starting.
func (s Settings) Validate() []string {
	var problems []string
	if s.BackendURL == "" {
		problems = append(problems, "backend URL must not be empty")
	}
	if s.CameraSource != SourceWebcam && s.CameraSource != SourceRemote {
		problems = append(problems, fmt.Sprintf("unknown camera source %q (want %q or %q)", s.CameraSource, SourceWebcam, SourceRemote))
	}
	if s.PreviewWidth < 0 {
		problems = append(problems, "preview width must not be negative")
	}
	return problems
}
