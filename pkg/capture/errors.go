package capture

import "errors"

// Sentinel errors for common conditions.
var (
	// ErrNoDisplay is returned by NewSession when no display is injected.
	ErrNoDisplay = errors.New("capture: display required")

	// ErrNoBackend is returned by NewSession when no backend is injected.
	ErrNoBackend = errors.New("capture: backend required")

	// ErrCameraUnsupported is returned when no device opener is configured.
	ErrCameraUnsupported = errors.New("capture: camera not supported")

	// ErrNoFrame is returned when a flow runs before a frame was captured.
	ErrNoFrame = errors.New("capture: no frame captured")

	// ErrRejected is returned when the backend rejects a submission.
	ErrRejected = errors.New("capture: rejected by backend")
)
