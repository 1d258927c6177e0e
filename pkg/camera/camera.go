// Package camera provides video frame sources for the kiosk.
//
// Every source implements the Device interface and hands out frames as
// encoded JPEG bytes: a local webcam through OpenCV, a remote phone camera
// over WebRTC, and a function-field mock for tests.
package camera

import "errors"

// Device is a single video frame source.
// ReadFrame may be called from one goroutine while another calls Close.
type Device interface {
	// ReadFrame returns the newest available frame as JPEG bytes.
	ReadFrame() ([]byte, error)

	// Close releases the underlying capture resource. Safe to call twice.
	Close() error
}

var (
	// ErrDeviceClosed is returned by ReadFrame after Close.
	ErrDeviceClosed = errors.New("camera: device closed")

	// ErrNoFrame is returned while a source has not delivered a frame yet.
	ErrNoFrame = errors.New("camera: no frame received yet")
)
