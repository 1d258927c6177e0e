// Watch - tail a kiosk's event stream from another machine
//
// Connects to the control panel websockets and prints status and
// navigation events. With -save, preview frames are also written to a
// directory as sequential JPEGs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gorilla/websocket"

	"github.com/securevote/kiosk/pkg/preview"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8090", "kiosk control panel address")
	save := flag.String("save", "", "directory for preview frames (empty: don't save)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *save != "" {
		if err := os.MkdirAll(*save, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "create save dir: %v\n", err)
			os.Exit(1)
		}
		go watchFrames(ctx, "ws://"+*addr+"/ws/preview", *save)
	}

	if err := watchEvents(ctx, "ws://"+*addr+"/ws/events"); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func watchEvents(ctx context.Context, url string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var evt preview.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			continue
		}
		switch evt.Type {
		case preview.EventNavigate:
			fmt.Printf("%s  navigate %s (after %dms)\n", evt.Time, evt.URL, evt.DelayMs)
		default:
			fmt.Printf("%s  %s\n", evt.Time, evt.Text)
		}
	}
}

func watchFrames(ctx context.Context, url, dir string) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", url, err)
		return
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	saved := 0
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		saved++
		name := filepath.Join(dir, fmt.Sprintf("frame_%04d.jpg", saved))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", name, err)
			return
		}
		if saved == 1 {
			fmt.Printf("saving frames to %s\n", dir)
		}
	}
}
