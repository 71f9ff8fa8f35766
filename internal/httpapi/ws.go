package httpapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/zoa-eus/osoak/internal/progress"
)

const clientBuffer = 16

// EventHub broadcasts progress events to connected websocket clients. It
// plugs into the ledger as one of its event loggers.
type EventHub struct {
	mu      sync.Mutex
	clients map[chan wsEvent]struct{}
}

type wsEvent struct {
	UserID    string         `json:"user_id"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{clients: make(map[chan wsEvent]struct{})}
}

// LogEvent implements progress.EventLogger. Slow clients lose events
// rather than stalling the ledger.
func (h *EventHub) LogEvent(ev progress.Event) error {
	out := wsEvent{
		UserID:    ev.UserID,
		Type:      ev.EventType,
		Data:      ev.Data,
		CreatedAt: ev.CreatedAt,
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- out:
		default:
		}
	}
	return nil
}

func (h *EventHub) subscribe() chan wsEvent {
	ch := make(chan wsEvent, clientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) unsubscribe(ch chan wsEvent) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

// handleEvents upgrades to a websocket and streams progress events until
// the client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ch := s.hub.subscribe()
	defer s.hub.unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev := <-ch:
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				return
			}
		}
	}
}
