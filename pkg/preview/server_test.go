package preview

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/securevote/kiosk/internal/journal"
	"github.com/securevote/kiosk/pkg/camera"
	"github.com/securevote/kiosk/pkg/securevote"
)

type fakeAttempts struct {
	entries []journal.Entry
	err     error
}

func (f *fakeAttempts) Recent(ctx context.Context, limit int) ([]journal.Entry, error) {
	return f.entries, f.err
}

func TestStatusEndpoint(t *testing.T) {
	s := NewServer(Config{})
	s.CameraActive = func() bool { return true }
	s.SetStatus("✅ Camera started")

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/status", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Status       string `json:"status"`
		CameraActive bool   `json:"camera_active"`
	}
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if body.Status != "✅ Camera started" {
		t.Errorf("status = %q", body.Status)
	}
	if !body.CameraActive {
		t.Error("camera_active = false, want true")
	}
}

func TestFlowEndpoint(t *testing.T) {
	s := NewServer(Config{})
	var ranFlow string
	s.OnFlow = func(ctx context.Context, flow string) error {
		ranFlow = flow
		return nil
	}

	resp, err := s.app.Test(httptest.NewRequest("POST", "/api/flows/vote", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}
	if ranFlow != "vote" {
		t.Errorf("ran flow %q, want vote", ranFlow)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"ok":true`) {
		t.Errorf("body = %s, want ok true", body)
	}
}

func TestFlowEndpointUnknownFlow(t *testing.T) {
	s := NewServer(Config{})
	s.OnFlow = func(ctx context.Context, flow string) error { return nil }

	resp, err := s.app.Test(httptest.NewRequest("POST", "/api/flows/selfie", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("Status = %d, want 400", resp.StatusCode)
	}
}

func TestFlowEndpointErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"rejection", errors.New("verification rejected"), 422},
		{"server error", &securevote.ServerError{StatusCode: 500, Err: errors.New("boom")}, 502},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(Config{})
			s.OnFlow = func(ctx context.Context, flow string) error { return tt.err }

			resp, err := s.app.Test(httptest.NewRequest("POST", "/api/flows/login", nil))
			if err != nil {
				t.Fatalf("Request error: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestFlowEndpointUnconfigured(t *testing.T) {
	s := NewServer(Config{})

	resp, err := s.app.Test(httptest.NewRequest("POST", "/api/flows/vote", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 500 {
		t.Errorf("Status = %d, want 500", resp.StatusCode)
	}
}

func TestCameraEndpoints(t *testing.T) {
	s := NewServer(Config{})
	var started, stopped bool
	s.OnCameraStart = func(ctx context.Context) error {
		started = true
		return nil
	}
	s.OnCameraStop = func() { stopped = true }

	resp, err := s.app.Test(httptest.NewRequest("POST", "/api/camera/start", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 200 || !started {
		t.Errorf("start: status = %d, started = %v", resp.StatusCode, started)
	}

	resp, err = s.app.Test(httptest.NewRequest("POST", "/api/camera/stop", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 200 || !stopped {
		t.Errorf("stop: status = %d, stopped = %v", resp.StatusCode, stopped)
	}
}

func TestCameraStartFailure(t *testing.T) {
	s := NewServer(Config{})
	s.OnCameraStart = func(ctx context.Context) error {
		return errors.New("device busy")
	}

	resp, err := s.app.Test(httptest.NewRequest("POST", "/api/camera/start", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 500 {
		t.Errorf("Status = %d, want 500", resp.StatusCode)
	}
}

func TestCameraConfigEndpoints(t *testing.T) {
	manager := camera.NewManager()
	s := NewServer(Config{Manager: manager})

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/camera/config", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"width":640`) {
		t.Errorf("body = %s, want default width", body)
	}

	req := httptest.NewRequest("POST", "/api/camera/config", strings.NewReader(`{"preset":"720p"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}
	if got := manager.GetConfig().Width; got != 1280 {
		t.Errorf("manager width = %d, want 1280", got)
	}

	req = httptest.NewRequest("POST", "/api/camera/config", strings.NewReader(`{"quality":300}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("Status = %d, want 400 for out-of-range quality", resp.StatusCode)
	}
}

func TestCameraConfigUnconfigured(t *testing.T) {
	s := NewServer(Config{})

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/camera/config", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("Status = %d, want 404", resp.StatusCode)
	}
}

func TestAttemptsEndpoint(t *testing.T) {
	source := &fakeAttempts{entries: []journal.Entry{
		{ID: "a", Flow: "login", OK: true},
		{ID: "b", Flow: "vote", OK: false, Detail: "Face mismatch"},
	}}
	s := NewServer(Config{Attempts: source})

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/attempts", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}

	var entries []journal.Entry
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if len(entries) != 2 || entries[1].Detail != "Face mismatch" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestAttemptsUnconfigured(t *testing.T) {
	s := NewServer(Config{})

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/attempts", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("Status = %d, want 404", resp.StatusCode)
	}
}

func TestScaleJPEG(t *testing.T) {
	frame := camera.TestFrame(640, 480)

	scaled := scaleJPEG(frame, 320)
	w, _, err := camera.DecodeBounds(scaled)
	if err != nil {
		t.Fatalf("DecodeBounds error: %v", err)
	}
	if w != 320 {
		t.Errorf("scaled width = %d, want 320", w)
	}

	if got := scaleJPEG(frame, 1280); len(got) != len(frame) {
		t.Error("frame narrower than maxWidth should pass through")
	}

	garbage := []byte("not a jpeg")
	if got := scaleJPEG(garbage, 320); string(got) != "not a jpeg" {
		t.Error("undecodable input should pass through")
	}
}
