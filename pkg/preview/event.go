package preview

import "time"

// Event types carried on the /ws/events stream.
const (
	EventStatus   = "status"
	EventNavigate = "navigate"
)

// Event is one entry on the kiosk event stream.
type Event struct {
	Type    string `json:"type"`
	Time    string `json:"time"`
	Text    string `json:"text,omitempty"`
	URL     string `json:"url,omitempty"`
	DelayMs int64  `json:"delay_ms,omitempty"`
}

func newEvent(eventType string) Event {
	return Event{Type: eventType, Time: time.Now().Format("15:04:05")}
}
