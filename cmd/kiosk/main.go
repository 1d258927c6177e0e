// SecureVote kiosk - face capture client for polling stations
//
// Streams the booth camera, serves a local control panel, and submits
// captured frames to the SecureVote backend for registration and
// verification.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/securevote/kiosk/internal/config"
	"github.com/securevote/kiosk/internal/journal"
	"github.com/securevote/kiosk/internal/log"
	"github.com/securevote/kiosk/pkg/camera"
	"github.com/securevote/kiosk/pkg/capture"
	"github.com/securevote/kiosk/pkg/preview"
	"github.com/securevote/kiosk/pkg/securevote"
)

func main() {
	settings := loadSettings()
	log.Init(settings.LogLevel)

	if problems := settings.Validate(); len(problems) > 0 {
		for _, p := range problems {
			log.Error("invalid configuration", "problem", p)
		}
		os.Exit(1)
	}

	if err := run(settings); err != nil {
		log.Error("kiosk stopped", "error", err)
		os.Exit(1)
	}
}

// loadSettings reads .env, the environment, and command line flags.
// Flags win over the environment.
func loadSettings() config.Settings {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: could not read .env: %v\n", err)
	}

	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	backend := flag.String("backend", "", "SecureVote backend base URL (overrides SECUREVOTE_BACKEND_URL)")
	listen := flag.String("listen", "", "control panel listen address (overrides KIOSK_LISTEN_ADDR)")
	source := flag.String("source", "", "camera source: webcam or remote")
	device := flag.Int("device", -1, "webcam device index")
	preset := flag.String("preset", "", "camera preset: "+strings.Join(camera.PresetNames(), ", "))
	signalling := flag.String("signalling", "", "websocket signalling URL for the remote source")
	journalPath := flag.String("journal", "", "SQLite attempt journal path")
	webDir := flag.String("web", "", "static panel page directory")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	flag.Parse()

	if *backend != "" {
		settings.BackendURL = *backend
	}
	if *listen != "" {
		settings.ListenAddr = *listen
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
	if *signalling != "" {
		settings.SignallingURL = *signalling
	}
	if *journalPath != "" {
		settings.JournalPath = *journalPath
	}
	if *webDir != "" {
		settings.WebDir = *webDir
	}
	if *logLevel != "" {
		settings.LogLevel = *logLevel
	}
	return settings
}

func run(settings config.Settings) error {
	preset := camera.GetPreset(settings.CameraPreset)
	if preset == nil {
		return fmt.Errorf("unknown camera preset %q (have %s)",
			settings.CameraPreset, strings.Join(camera.PresetNames(), ", "))
	}
	manager := camera.NewManager()
	if err := manager.SetConfig(*preset); err != nil {
		return err
	}

	client, err := securevote.NewClient(
		securevote.WithBaseURL(settings.BackendURL),
		securevote.WithLogger(log.With("component", "securevote")),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	var store *journal.Journal
	if settings.JournalPath != "" {
		store, err = journal.Open(settings.JournalPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}
	var attempts preview.AttemptSource
	if store != nil {
		attempts = store
	}

	panel := preview.NewServer(preview.Config{
		Addr:     settings.ListenAddr,
		WebDir:   settings.WebDir,
		MaxWidth: settings.PreviewWidth,
		Manager:  manager,
		Attempts: attempts,
		Logger:   log.With("component", "preview"),
	})

	session, err := capture.NewSession(
		capture.WithOpener(deviceOpener(settings, manager)),
		capture.WithBackend(client),
		capture.WithDisplay(panel),
		capture.WithStatusSink(panel),
		capture.WithNavigator(panel),
		capture.WithLogger(log.L()),
	)
	if err != nil {
		return err
	}
	defer session.StopCamera()

	panel.OnCameraStart = session.StartCamera
	panel.OnCameraStop = session.StopCamera
	panel.CameraActive = session.Active
	panel.OnFlow = func(ctx context.Context, flow string) error {
		runErr := session.Run(ctx, capture.Flow(flow))
		recordAttempt(store, flow, runErr)
		return runErr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Re-open the device when the panel changes the config, so a preset
	// switch reaches a live camera instead of waiting for a restart.
	manager.OnConfigChange = func(camera.Config) error {
		if !session.Active() {
			return nil
		}
		return session.StartCamera(ctx)
	}

	panel.StartAsync()

	if err := client.Health(ctx); err != nil {
		log.Warn("backend health check failed", "error", err, "backend", settings.BackendURL)
	}

	// Bring the camera up front so the first voter sees themselves without
	// touching anything. The panel can retry when this fails.
	if err := session.StartCamera(ctx); err != nil {
		log.Warn("camera did not start", "error", err)
	}

	<-ctx.Done()
	log.Info("shutting down")

	session.StopCamera()
	if err := panel.Shutdown(); err != nil {
		log.Warn("panel shutdown", "error", err)
	}
	return nil
}

// deviceOpener builds the camera opener for the configured source. The
// managed config is read at open time so panel tuning applies on the next
// stream start.
func deviceOpener(settings config.Settings, manager *camera.Manager) capture.DeviceOpener {
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
		return camera.OpenWebcam(settings.CameraDevice, manager.GetConfig())
	}
}

// recordAttempt journals a flow verdict. Journal failures are logged and
// never surfaced to the voter.
func recordAttempt(store *journal.Journal, flow string, runErr error) {
	if store == nil {
		return
	}
	entry := journal.Entry{Flow: flow, OK: runErr == nil}
	if runErr != nil {
		entry.Detail = runErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := store.Record(ctx, entry); err != nil {
		log.Warn("journal write failed", "error", err)
	}
}
