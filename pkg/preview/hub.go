package preview

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
)

// wsMessage is a frame queued for delivery to a websocket client.
type wsMessage struct {
	binary bool
	data   []byte
}

// hub fans messages out to websocket clients.
//
// The run loop owns the client set, so no lock guards it. Slow clients are
// dropped rather than allowed to stall the capture loop.
type hub struct {
	name string
	log  *slog.Logger

	// retain replays the newest message to clients when they connect, so a
	// late preview viewer gets a picture before the next frame arrives.
	retain bool

	clients    map[*wsClient]bool
	broadcast  chan wsMessage
	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{}
	stopOnce   sync.Once

	count atomic.Int64
	last  *wsMessage
}

func newHub(name string, retain bool, log *slog.Logger) *hub {
	return &hub{
		name:       name,
		log:        log,
		retain:     retain,
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan wsMessage, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
	}
}

// run is the hub's main loop. Call it in a goroutine before serving.
func (h *hub) run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.count.Store(0)
			return

		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int64(len(h.clients)))
			if h.retain && h.last != nil {
				select {
				case client.send <- *h.last:
				default:
				}
			}
			h.log.Debug("preview client connected", "hub", h.name, "clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.count.Store(int64(len(h.clients)))
			h.log.Debug("preview client disconnected", "hub", h.name, "clients", len(h.clients))

		case msg := <-h.broadcast:
			if h.retain {
				h.last = &msg
			}
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					delete(h.clients, client)
					close(client.send)
					h.log.Warn("dropped slow preview client", "hub", h.name)
				}
			}
			h.count.Store(int64(len(h.clients)))
		}
	}
}

// stop shuts the hub down and disconnects every client.
func (h *hub) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// send queues a message for broadcast, dropping it when the queue is full.
func (h *hub) send(msg wsMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.log.Warn("broadcast queue full, dropping message", "hub", h.name)
	}
}

func (h *hub) broadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.send(wsMessage{data: data})
	return nil
}

func (h *hub) broadcastBinary(data []byte) {
	h.send(wsMessage{binary: true, data: data})
}

func (h *hub) clientCount() int {
	return int(h.count.Load())
}
