package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/securevote/kiosk/pkg/securevote"
)

// Flow names a submit flow.
type Flow string

// The three voter flows.
const (
	FlowRegister Flow = "register"
	FlowVote     Flow = "vote"
	FlowLogin    Flow = "login"
)

// ParseFlow maps a wire name to a Flow.
func ParseFlow(name string) (Flow, error) {
	switch Flow(name) {
	case FlowRegister, FlowVote, FlowLogin:
		return Flow(name), nil
	}
	return "", fmt.Errorf("capture: unknown flow %q", name)
}

// Status lines shown to the voter. Free text only; diagnostics go to the
// log instead.
const (
	StatusCameraUnsupported = "❌ Camera not supported on this device"
	StatusCameraReady       = "✅ Camera started"
	StatusNoFrame           = "⚠️ Camera not ready. Try again."
	StatusServerError       = "❌ Server error. Try again."
	StatusRejectedFallback  = "❌ Verification failed. Try again."

	StatusRegistering     = "⏳ Registering your face..."
	StatusRegisterSuccess = "✅ Registered! Redirecting..."
	StatusVerifying       = "⏳ Verifying your face..."
	StatusVoteSuccess     = "✅ Face verified. You can submit your vote now."
	StatusLoginSuccess    = "✅ Login verified! Redirecting..."
)

// ElectionsPath is where successful register and login flows navigate.
const ElectionsPath = "/elections"

// Redirect delays preserved from the voter UI.
const (
	registerRedirectDelay = 1200 * time.Millisecond
	loginRedirectDelay    = 1000 * time.Millisecond
)

// flowPlan describes one flow's wording, navigation, and backend call.
type flowPlan struct {
	flow     Flow
	working  string
	success  string
	redirect string
	delay    time.Duration
	call     func(ctx context.Context, image string) (*securevote.Result, error)
}

// RegisterFace captures a frame and registers it with the backend. On
// success the camera stops and the kiosk navigates to the elections page
// after a short pause.
func (s *Session) RegisterFace(ctx context.Context) error {
	return s.submit(ctx, flowPlan{
		flow:     FlowRegister,
		working:  StatusRegistering,
		success:  StatusRegisterSuccess,
		redirect: ElectionsPath,
		delay:    registerRedirectDelay,
		call:     s.backend.RegisterFace,
	})
}

// VoteVerify captures a frame and verifies it before ballot submission.
// The camera stops on success; the voter stays on the ballot page.
func (s *Session) VoteVerify(ctx context.Context) error {
	return s.submit(ctx, flowPlan{
		flow:    FlowVote,
		working: StatusVerifying,
		success: StatusVoteSuccess,
		call:    s.backend.VoteVerify,
	})
}

// LoginVerify captures a frame and verifies it for login.
func (s *Session) LoginVerify(ctx context.Context) error {
	return s.submit(ctx, flowPlan{
		flow:     FlowLogin,
		working:  StatusVerifying,
		success:  StatusLoginSuccess,
		redirect: ElectionsPath,
		delay:    loginRedirectDelay,
		call:     s.backend.LoginVerify,
	})
}

// Run dispatches to the named flow.
func (s *Session) Run(ctx context.Context, flow Flow) error {
	switch flow {
	case FlowRegister:
		return s.RegisterFace(ctx)
	case FlowVote:
		return s.VoteVerify(ctx)
	case FlowLogin:
		return s.LoginVerify(ctx)
	}
	return fmt.Errorf("capture: unknown flow %q", flow)
}

// submit is the shared flow body: status, capture, post, verdict.
// Failures leave the stream running so the voter can retry.
func (s *Session) submit(ctx context.Context, plan flowPlan) error {
	// Status precedes any network activity.
	s.setStatus(plan.working)

	image := s.CaptureFrame()
	if image == "" {
		s.setStatus(StatusNoFrame)
		s.logger.Warn("submit without captured frame", "flow", plan.flow)
		return ErrNoFrame
	}

	res, err := plan.call(ctx, image)
	if err != nil {
		s.setStatus(StatusServerError)
		s.logger.Error("submit failed", "flow", plan.flow, "error", err)
		return fmt.Errorf("capture: %s: %w", plan.flow, err)
	}

	if !res.OK {
		if res.Error != "" {
			s.setStatus("❌ " + res.Error)
		} else {
			s.setStatus(StatusRejectedFallback)
		}
		s.logger.Warn("submission rejected", "flow", plan.flow, "reason", res.Error)
		return fmt.Errorf("capture: %s: %w", plan.flow, ErrRejected)
	}

	s.setStatus(plan.success)

	// Teardown precedes navigation scheduling.
	s.StopCamera()
	if s.nav != nil && plan.redirect != "" {
		s.nav.NavigateAfter(plan.delay, plan.redirect)
	}

	s.logger.Info("flow succeeded", "flow", plan.flow, "message", res.Message)
	return nil
}
