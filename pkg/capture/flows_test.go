package capture

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/securevote/kiosk/pkg/securevote"
)

func TestFlowsWithoutCaptureSkipNetwork(t *testing.T) {
	mock := securevote.NewMock()
	h := newHarness(t, mock)

	ctx := context.Background()
	flows := []struct {
		name string
		run  func(context.Context) error
	}{
		{"register", h.session.RegisterFace},
		{"vote", h.session.VoteVerify},
		{"login", h.session.LoginVerify},
	}

	for _, flow := range flows {
		t.Run(flow.name, func(t *testing.T) {
			if err := flow.run(ctx); !errors.Is(err, ErrNoFrame) {
				t.Errorf("error = %v, want ErrNoFrame", err)
			}
		})
	}

	if calls := mock.Calls(); len(calls) != 0 {
		t.Errorf("backend saw %d calls, want 0", len(calls))
	}
	if !h.rec.has("status:" + StatusNoFrame) {
		t.Errorf("events = %v, want not-ready warning", h.rec.list())
	}
}

func TestVoteVerifySuccess(t *testing.T) {
	mock := securevote.NewMock()
	h := newHarness(t, mock)
	h.startAndWait(t)

	if err := h.session.VoteVerify(context.Background()); err != nil {
		t.Fatalf("VoteVerify() error = %v", err)
	}

	working := h.rec.index("status:" + StatusVerifying)
	success := h.rec.index("status:" + StatusVoteSuccess)
	if working < 0 || success < 0 || working > success {
		t.Errorf("events = %v, want verifying then success", h.rec.list())
	}
	if got := h.dev.CloseCalls(); got != 1 {
		t.Errorf("device closed %d times, want 1", got)
	}
	for _, e := range h.rec.list() {
		if strings.HasPrefix(e, "navigate:") {
			t.Errorf("unexpected navigation %q after vote flow", e)
		}
	}
	if got := mock.CallCount("VoteVerify"); got != 1 {
		t.Errorf("VoteVerify calls = %d, want 1", got)
	}
	last := mock.LastCall()
	if last == nil || !strings.HasPrefix(last.Image, "data:image/jpeg;base64,") {
		t.Error("backend did not receive a data URI")
	}
}

func TestRegisterFaceStopsBeforeNavigation(t *testing.T) {
	h := newHarness(t, securevote.NewMock())
	h.startAndWait(t)

	if err := h.session.RegisterFace(context.Background()); err != nil {
		t.Fatalf("RegisterFace() error = %v", err)
	}

	closeIdx := h.rec.index("close")
	navIdx := h.rec.index("navigate:" + ElectionsPath)
	if closeIdx < 0 || navIdx < 0 {
		t.Fatalf("events = %v, want close and navigate", h.rec.list())
	}
	if closeIdx > navIdx {
		t.Errorf("navigation scheduled before device close (events %v)", h.rec.list())
	}
	if got := h.nav.lastDelay(); got != 1200*time.Millisecond {
		t.Errorf("redirect delay = %v, want 1.2s", got)
	}
	if h.session.Active() {
		t.Error("Active() = true after successful registration")
	}
}

func TestLoginVerifyRedirectDelay(t *testing.T) {
	h := newHarness(t, securevote.NewMock())
	h.startAndWait(t)

	if err := h.session.LoginVerify(context.Background()); err != nil {
		t.Fatalf("LoginVerify() error = %v", err)
	}

	if !h.rec.has("navigate:" + ElectionsPath) {
		t.Errorf("events = %v, want elections navigation", h.rec.list())
	}
	if got := h.nav.lastDelay(); got != time.Second {
		t.Errorf("redirect delay = %v, want 1s", got)
	}
}

func TestRejectionShowsServerReason(t *testing.T) {
	h := newHarness(t, securevote.WithRejection("Face mismatch"))
	h.startAndWait(t)

	if err := h.session.LoginVerify(context.Background()); !errors.Is(err, ErrRejected) {
		t.Errorf("error = %v, want ErrRejected", err)
	}
	if !h.rec.has("status:❌ Face mismatch") {
		t.Errorf("events = %v, want exact reason status", h.rec.list())
	}
	if !h.session.Active() {
		t.Error("stream stopped on rejection; voter cannot retry")
	}
	if got := h.dev.CloseCalls(); got != 0 {
		t.Errorf("device closed %d times on rejection, want 0", got)
	}
}

func TestRejectionFallbackText(t *testing.T) {
	h := newHarness(t, securevote.WithRejection(""))
	h.startAndWait(t)

	if err := h.session.VoteVerify(context.Background()); !errors.Is(err, ErrRejected) {
		t.Errorf("error = %v, want ErrRejected", err)
	}
	if !h.rec.has("status:" + StatusRejectedFallback) {
		t.Errorf("events = %v, want fallback rejection text", h.rec.list())
	}
}

func TestServerErrorKeepsStreamActive(t *testing.T) {
	serverErr := &securevote.ServerError{StatusCode: 500, Err: errors.New("decode response")}
	h := newHarness(t, securevote.WithError(serverErr))
	h.startAndWait(t)

	err := h.session.RegisterFace(context.Background())
	if !securevote.IsServerError(err) {
		t.Errorf("error = %v, want wrapped ServerError", err)
	}
	if !h.rec.has("status:" + StatusServerError) {
		t.Errorf("events = %v, want generic server-error status", h.rec.list())
	}
	if !h.session.Active() {
		t.Error("stream stopped on server error; voter cannot retry")
	}
}

func TestWorkingStatusPrecedesBackendCall(t *testing.T) {
	mock := securevote.NewMock()
	h := newHarness(t, mock)

	sawWorking := false
	mock.RegisterFaceFunc = func(ctx context.Context, image string) (*securevote.Result, error) {
		sawWorking = h.rec.has("status:" + StatusRegistering)
		return &securevote.Result{OK: true, Message: "ok"}, nil
	}

	h.startAndWait(t)
	if err := h.session.RegisterFace(context.Background()); err != nil {
		t.Fatalf("RegisterFace() error = %v", err)
	}
	if !sawWorking {
		t.Error("backend called before working status was shown")
	}
}

func TestRunDispatch(t *testing.T) {
	mock := securevote.NewMock()
	h := newHarness(t, mock)
	h.startAndWait(t)

	if err := h.session.Run(context.Background(), FlowVote); err != nil {
		t.Fatalf("Run(vote) error = %v", err)
	}
	if got := mock.CallCount("VoteVerify"); got != 1 {
		t.Errorf("VoteVerify calls = %d, want 1", got)
	}

	if err := h.session.Run(context.Background(), Flow("selfie")); err == nil {
		t.Error("Run with unknown flow should fail")
	}
}

func TestParseFlow(t *testing.T) {
	for _, name := range []string{"register", "vote", "login"} {
		flow, err := ParseFlow(name)
		if err != nil {
			t.Errorf("ParseFlow(%q) error = %v", name, err)
		}
		if string(flow) != name {
			t.Errorf("ParseFlow(%q) = %q", name, flow)
		}
	}
	if _, err := ParseFlow("selfie"); err == nil {
		t.Error("ParseFlow(selfie) should fail")
	}
}
