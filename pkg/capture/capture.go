// Package capture drives the voter-facing camera flow: it owns the camera
// stream, keeps the newest frame ready for capture, and submits encoded
// stills to the SecureVote face backend for registration, vote verification,
// and login verification.
//
// A Session receives its surfaces by injection: a Display for live playback,
// an optional StatusSink for voter-visible text, and an optional Navigator
// for deferred page changes. The backend and the camera are injected the
// same way, so the full flow runs against mocks in tests.
package capture

import (
	"context"
	"time"

	"github.com/securevote/kiosk/pkg/camera"
	"github.com/securevote/kiosk/pkg/securevote"
)

// DeviceOpener acquires a camera device. The session owns the returned
// device until StopCamera releases it.
type DeviceOpener func(ctx context.Context) (camera.Device, error)

// Display receives live frames for preview rendering.
type Display interface {
	ShowFrame(jpeg []byte)
}

// StatusSink receives voter-facing status text.
type StatusSink interface {
	SetStatus(text string)
}

// Navigator schedules a deferred page change after a successful flow.
type Navigator interface {
	NavigateAfter(delay time.Duration, url string)
}

// Backend is the slice of the face backend the flows need.
type Backend interface {
	RegisterFace(ctx context.Context, image string) (*securevote.Result, error)
	VoteVerify(ctx context.Context, image string) (*securevote.Result, error)
	LoginVerify(ctx context.Context, image string) (*securevote.Result, error)
}

// The real client and its mock satisfy Backend.
var (
	_ Backend = (*securevote.Client)(nil)
	_ Backend = (*securevote.Mock)(nil)
)

// NopDisplay drops frames. Useful for headless captures.
type NopDisplay struct{}

// ShowFrame implements Display.
func (NopDisplay) ShowFrame([]byte) {}
