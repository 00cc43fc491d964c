package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// pipe returns the server side of a fresh WebSocket connection and
// registers cleanup of the client side
func pipe(t *testing.T) *websocket.Conn {
	t.Helper()
	conns := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- c
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	select {
	case c := <-conns:
		return c
	case <-time.After(3 * time.Second):
		t.Fatal("Server side never upgraded")
		return nil
	}
}

func TestHubRemoveIsIdempotent(t *testing.T) {
	var last atomic.Int64
	h := newHub(func(n int) { last.Store(int64(n)) })

	a := newSubscriber(pipe(t))
	b := newSubscriber(pipe(t))
	h.add(a)
	h.add(b)
	if h.count() != 2 || last.Load() != 2 {
		t.Fatalf("Expected 2 subscribers, got %d (gauge %d)", h.count(), last.Load())
	}

	var wg sync.WaitGroup
	var removed atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if h.remove(a, websocket.CloseNormalClosure, "") {
				removed.Add(1)
			}
		}()
	}
	wg.Wait()

	if removed.Load() != 1 {
		t.Errorf("Expected exactly one successful remove, got %d", removed.Load())
	}
	if h.count() != 1 || last.Load() != 1 {
		t.Errorf("Expected 1 subscriber, got %d (gauge %d)", h.count(), last.Load())
	}
}

func TestHubCloseAllRefusesLaterAdds(t *testing.T) {
	h := newHub(nil)
	h.add(newSubscriber(pipe(t)))

	h.closeAll()
	if h.count() != 0 {
		t.Errorf("Expected empty hub after closeAll, got %d", h.count())
	}
	if h.add(newSubscriber(pipe(t))) {
		t.Error("Expected add to fail after closeAll")
	}
}

func TestSubscriberSendAfterClose(t *testing.T) {
	s := newSubscriber(pipe(t))
	s.close(websocket.CloseGoingAway, "bye")
	s.close(websocket.CloseGoingAway, "bye")

	if err := s.send([]byte("{}"), time.Now().Add(time.Second)); err == nil {
		t.Error("Expected send on closed connection to fail")
	}
}
