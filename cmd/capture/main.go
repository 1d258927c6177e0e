// Capture - one-shot face capture flow from the command line
//
// Opens the camera, waits for a frame, runs a single flow against the
// backend, and prints each status change. Exit code 0 means the backend
// accepted the submission.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/securevote/kiosk/internal/config"
	"github.com/securevote/kiosk/internal/log"
	"github.com/securevote/kiosk/pkg/camera"
	"github.com/securevote/kiosk/pkg/capture"
	"github.com/securevote/kiosk/pkg/securevote"
)

// termSurface prints session output to the terminal.
type termSurface struct{}

func (termSurface) SetStatus(text string) { fmt.Println(text) }

func (termSurface) NavigateAfter(delay time.Duration, url string) {
	fmt.Printf("next: %s (after %s)\n", url, delay)
}

func main() {
	_ = godotenv.Load()

	flow := flag.String("flow", "vote", "flow to run: register, vote, login")
	backend := flag.String("backend", "", "backend base URL (overrides SECUREVOTE_BACKEND_URL)")
	source := flag.String("source", "", "camera source: webcam or remote")
	device := flag.Int("device", -1, "webcam device index")
	preset := flag.String("preset", "", "camera preset")
	wait := flag.Duration("wait", 10*time.Second, "how long to wait for the first frame")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	level := "warn"
	if *debug {
		level = "debug"
	}
	log.Init(level)

	settings, err := config.Load()
	if err != nil {
		fatalf("configuration error: %v", err)
	}
	if *backend != "" {
		settings.BackendURL = *backend
	}
	if *source != "" {
		settings.CameraSource = *source
	}
	if *device >= 0 {
		settings.CameraDevice = *device
	}
	if *preset != "" {
		settings.CameraPreset = *preset
	}

	parsed, err := capture.ParseFlow(*flow)
	if err != nil {
		fatalf("%v", err)
	}

	cfg := camera.DefaultConfig()
	if p := camera.GetPreset(settings.CameraPreset); p != nil {
		cfg = *p
	}

	client, err := securevote.NewClient(securevote.WithBaseURL(settings.BackendURL))
	if err != nil {
		fatalf("%v", err)
	}
	defer client.Close()

	session, err := capture.NewSession(
		capture.WithOpener(opener(settings, cfg)),
		capture.WithBackend(client),
		capture.WithDisplay(capture.NopDisplay{}),
		capture.WithStatusSink(termSurface{}),
		capture.WithNavigator(termSurface{}),
	)
	if err != nil {
		fatalf("%v", err)
	}
	defer session.StopCamera()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := session.StartCamera(ctx); err != nil {
		fatalf("camera: %v", err)
	}

	waitCtx, waitCancel := context.WithTimeout(ctx, *wait)
	defer waitCancel()
	if err := session.WaitFrame(waitCtx); err != nil {
		fatalf("no frame within %s: %v", *wait, err)
	}

	if err := session.Run(ctx, parsed); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func opener(settings config.Settings, cfg camera.Config) capture.DeviceOpener {
	if settings.CameraSource == config.SourceRemote {
		return func(ctx context.Context) (camera.Device, error) {
			remote := camera.NewRemote(settings.SignallingURL)
			remote.Logger = log.With("component", "camera.remote")
			if err := remote.Connect(ctx); err != nil {
				return nil, err
			}
			return remote, nil
		}
	}
	return func(ctx context.Context) (camera.Device, error) {
		return camera.OpenWebcam(settings.CameraDevice, cfg)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
