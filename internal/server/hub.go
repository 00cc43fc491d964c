package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// subscriber is one live push connection. Only the broadcast loop writes
// data frames; close may race with it and is safe to repeat.
type subscriber struct {
	id   uuid.UUID
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newSubscriber(conn *websocket.Conn) *subscriber {
	return &subscriber{id: uuid.New(), conn: conn}
}

func (s *subscriber) send(payload []byte, deadline time.Time) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *subscriber) close(code int, reason string) {
	s.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(code, reason)
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = s.conn.Close()
	})
}

// hub is the subscriber registry
type hub struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]*subscriber
	closed bool

	onChange func(active int)
}

func newHub(onChange func(int)) *hub {
	if onChange == nil {
		onChange = func(int) {}
	}
	return &hub{
		subs:     make(map[uuid.UUID]*subscriber),
		onChange: onChange,
	}
}

// add registers s. It fails once the hub has been closed.
func (h *hub) add(s *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.subs[s.id] = s
	h.onChange(len(h.subs))
	return true
}

// remove unregisters s and closes its connection. Safe to call more than
// once; it reports whether s was still registered.
func (h *hub) remove(s *subscriber, code int, reason string) bool {
	h.mu.Lock()
	_, ok := h.subs[s.id]
	if ok {
		delete(h.subs, s.id)
		h.onChange(len(h.subs))
	}
	h.mu.Unlock()

	s.close(code, reason)
	return ok
}

// members returns a stable copy of the current membership
func (h *hub) members() []*subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		out = append(out, s)
	}
	return out
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// closeAll closes every subscriber and refuses later adds
func (h *hub) closeAll() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*subscriber, 0, len(h.subs))
	for id, s := range h.subs {
		subs = append(subs, s)
		delete(h.subs, id)
	}
	h.onChange(0)
	h.mu.Unlock()

	for _, s := range subs {
		s.close(websocket.CloseGoingAway, "server shutting down")
	}
}
