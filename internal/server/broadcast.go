package server

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// minWriteTimeout keeps a fast push cadence from starving slow but healthy
// subscribers
const minWriteTimeout = 250 * time.Millisecond

func (g *Gateway) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(g.opts.BroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.broadcast()
		}
	}
}

// broadcast reads the store once and sends the same bytes to every
// subscriber. A failed write drops that subscriber only.
func (g *Gateway) broadcast() {
	subs := g.hub.members()
	if len(subs) == 0 {
		return
	}

	snap := g.store.Current()
	if snap == nil {
		return
	}
	payload := snap.Encode()

	timeout := g.opts.BroadcastInterval
	if timeout < minWriteTimeout {
		timeout = minWriteTimeout
	}
	deadline := time.Now().Add(timeout)

	var wg sync.WaitGroup
	for _, s := range subs {
		wg.Add(1)
		go func(s *subscriber) {
			defer wg.Done()
			if err := s.send(payload, deadline); err != nil {
				if g.hub.remove(s, websocket.CloseInternalServerErr, "delivery failed") {
					g.instruments.broadcastFailure()
					g.log.Warning("Dropped subscriber %s after failed delivery: %v", s.id, err)
				}
			}
		}(s)
	}
	wg.Wait()

	g.instruments.broadcastTick()
}
