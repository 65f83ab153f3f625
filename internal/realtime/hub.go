// Package realtime fans security events out to connected clients over
// websockets. The hub is a process-local publish capability: the security
// engine only ever calls Publish and never touches connection state.
package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const (
	EventSecurityUpdate = "SECURITY_UPDATE"
	EventSecurityAlert  = "SECURITY_ALERT"
	EventLogoutAll      = "LOGOUT_ALL"
)

// The websocket library allows at most one concurrent writer per
// connection, so every connection gets a buffered outbox drained by a
// single writer goroutine.
const (
	outboxSize = 16
	writeWait  = 5 * time.Second
)

type Event struct {
	Type    string    `json:"type"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// wsConn is the slice of *websocket.Conn the writer needs.
type wsConn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type client struct {
	conn   wsConn
	outbox chan Event
	done   chan struct{}
	once   sync.Once
}

func (cl *client) stop() {
	cl.once.Do(func() { close(cl.done) })
}

type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
	log   *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*client]struct{}),
		log:   log,
	}
}

// Publish delivers the event to every connection in the account's room.
// Delivery is at-most-once and best-effort. The event is queued on each
// connection's outbox without ever blocking the caller; a client whose
// outbox is full is dropped. A missing room is not an error.
func (h *Hub) Publish(accountID string, event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	var full []*client
	h.mu.RLock()
	for cl := range h.rooms[accountID] {
		select {
		case cl.outbox <- event:
		case <-cl.done:
		default:
			full = append(full, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range full {
		h.log.Debug("dropping slow websocket client", "account_id", accountID)
		h.leave(accountID, cl)
	}
}

// Handler upgrades to a websocket and parks the connection in the caller's
// room until it closes. The user id comes from the query string; the events
// carry no secrets, so room membership is not authenticated beyond that.
func (h *Hub) Handler() func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		accountID := c.Query("userId")
		if accountID == "" {
			_ = c.Close()
			return
		}

		cl := &client{
			conn:   c,
			outbox: make(chan Event, outboxSize),
			done:   make(chan struct{}),
		}
		h.join(accountID, cl)
		go h.writeLoop(accountID, cl)
		defer h.leave(accountID, cl)

		// Drain control frames; any read error means the peer is gone.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}
}

// writeLoop is the connection's sole writer.
func (h *Hub) writeLoop(accountID string, cl *client) {
	for {
		select {
		case <-cl.done:
			_ = cl.conn.Close()
			return
		case event := <-cl.outbox:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteJSON(event); err != nil {
				h.log.Debug("dropping dead websocket client", "account_id", accountID, "error", err)
				h.leave(accountID, cl)
			}
		}
	}
}

func (h *Hub) join(accountID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[accountID] == nil {
		h.rooms[accountID] = make(map[*client]struct{})
	}
	h.rooms[accountID][cl] = struct{}{}
}

func (h *Hub) leave(accountID string, cl *client) {
	h.mu.Lock()
	if room, ok := h.rooms[accountID]; ok {
		delete(room, cl)
		if len(room) == 0 {
			delete(h.rooms, accountID)
		}
	}
	h.mu.Unlock()
	cl.stop()
	_ = cl.conn.Close()
}
