package config

import (
	"os"
	"testing"
)

var settingsKeys = []string{
	"SECUREVOTE_BACKEND_URL",
	"KIOSK_LISTEN_ADDR",
	"KIOSK_CAMERA_SOURCE",
	"KIOSK_CAMERA_DEVICE",
	"KIOSK_CAMERA_PRESET",
	"KIOSK_SIGNALLING_URL",
	"KIOSK_JOURNAL_PATH",
	"KIOSK_WEB_DIR",
	"KIOSK_PREVIEW_WIDTH",
	"KIOSK_LOG_LEVEL",
}

// clearEnv unsets every settings variable and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range settingsKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	s, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.BackendURL != "http://127.0.0.1:5000" {
		t.Errorf("BackendURL = %q, want default backend", s.BackendURL)
	}
	if s.ListenAddr != ":8090" {
		t.Errorf("ListenAddr = %q, want :8090", s.ListenAddr)
	}
	if s.CameraSource != SourceWebcam {
		t.Errorf("CameraSource = %q, want %q", s.CameraSource, SourceWebcam)
	}
	if s.CameraDevice != 0 {
		t.Errorf("CameraDevice = %d, want 0", s.CameraDevice)
	}
	if s.CameraPreset != "default" {
		t.Errorf("CameraPreset = %q, want default", s.CameraPreset)
	}
	if s.JournalPath != "" {
		t.Errorf("JournalPath = %q, want empty", s.JournalPath)
	}
	if s.PreviewWidth != 0 {
		t.Errorf("PreviewWidth = %d, want 0", s.PreviewWidth)
	}
	if s.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", s.LogLevel)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECUREVOTE_BACKEND_URL", "https://vote.example.org")
	t.Setenv("KIOSK_CAMERA_SOURCE", "remote")
	t.Setenv("KIOSK_CAMERA_DEVICE", "2")
	t.Setenv("KIOSK_PREVIEW_WIDTH", "480")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.BackendURL != "https://vote.example.org" {
		t.Errorf("BackendURL = %q, want https://vote.example.org", s.BackendURL)
	}
	if s.CameraSource != SourceRemote {
		t.Errorf("CameraSource = %q, want %q", s.CameraSource, SourceRemote)
	}
	if s.CameraDevice != 2 {
		t.Errorf("CameraDevice = %d, want 2", s.CameraDevice)
	}
	if s.PreviewWidth != 480 {
		t.Errorf("PreviewWidth = %d, want 480", s.PreviewWidth)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Settings)
		problems int
	}{
		{
			name:     "defaults are valid",
			mutate:   func(s *Settings) {},
			problems: 0,
		},
		{
			name:     "empty backend",
			mutate:   func(s *Settings) { s.BackendURL = "" },
			problems: 1,
		},
		{
			name:     "bad source",
			mutate:   func(s *Settings) { s.CameraSource = "telepathy" },
			problems: 1,
		},
		{
			name: "everything wrong",
			mutate: func(s *Settings) {
				s.BackendURL = ""
				s.CameraSource = ""
				s.PreviewWidth = -1
			},
			problems: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			s, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tt.mutate(&s)
			if got := s.Validate(); len(got) != tt.problems {
				t.Errorf("Validate() = %v, want %d problems", got, tt.problems)
			}
		})
	}
}
