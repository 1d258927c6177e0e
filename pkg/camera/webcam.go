package camera

import (
	"fmt"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// Webcam captures frames from a local video device through OpenCV.
type Webcam struct {
	cfg Config

	mu     sync.Mutex
	cam    *gocv.VideoCapture
	mat    gocv.Mat
	closed bool
}

var _ Device = (*Webcam)(nil)

// OpenWebcam opens the local capture device at the given index and applies
// the capture configuration.
func OpenWebcam(deviceID int, cfg Config) (*Webcam, error) {
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %s", strings.Join(problems, "; "))
	}

	cam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("camera: open device %d: %w", deviceID, err)
	}

	cam.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	cam.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	cam.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	return &Webcam{
		cfg: cfg,
		cam: cam,
		mat: gocv.NewMat(),
	}, nil
}

// ReadFrame grabs the next frame and encodes it as JPEG at the configured
// quality.
func (w *Webcam) ReadFrame() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrDeviceClosed
	}
	if ok := w.cam.Read(&w.mat); !ok {
		return nil, fmt.Errorf("camera: device read failed")
	}
	if w.mat.Empty() {
		return nil, ErrNoFrame
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, w.mat, []int{gocv.IMWriteJpegQuality, w.cfg.Quality})
	if err != nil {
		return nil, fmt.Errorf("camera: encode frame: %w", err)
	}
	defer buf.Close()

	// The buffer is backed by native memory freed on Close.
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}

// Close releases the capture device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.mat.Close()
	return w.cam.Close()
}

// Config returns the capture configuration the device was opened with.
func (w *Webcam) Config() Config {
	return w.cfg
}
