package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"smanager/internal/files"
	"smanager/internal/logger"
	"smanager/internal/metrics"
)

var (
	ErrAlreadyStarted = errors.New("gateway already started")
	ErrStopped        = errors.New("gateway stopped")
)

// Options configure one gateway instance. A reload builds a new gateway
// rather than mutating these.
type Options struct {
	Addr              string
	Token             string
	BroadcastInterval time.Duration
	StaticDir         string         // empty serves the embedded assets
	Files             *files.Manager // nil disables /api/files
	Instruments       *Instruments
	ExposeSelfMetrics bool
	Logger            *logger.Logger
}

// Gateway serves the latest snapshot over HTTP pull and WebSocket push
type Gateway struct {
	opts        Options
	store       *metrics.Store
	log         *logger.Logger
	instruments *Instruments
	hub         *hub
	upgrader    websocket.Upgrader
	handler     http.Handler

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	cancel   context.CancelFunc
	serving  chan struct{}
	pushing  chan struct{}
	started  bool
	stopped  bool
}

// New creates a gateway reading from store. Nothing is bound until Start.
func New(store *metrics.Store, opts Options) *Gateway {
	if opts.BroadcastInterval <= 0 {
		opts.BroadcastInterval = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}

	g := &Gateway{
		opts:        opts,
		store:       store,
		log:         opts.Logger,
		instruments: opts.Instruments,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// the token is the only gate; any origin may connect
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	g.hub = newHub(g.instruments.setSubscribers)
	g.handler = g.routes()
	return g
}

// Handler exposes the routing table
func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// Start binds the listen address and starts serving and broadcasting.
// A bind failure is returned and leaves nothing running.
func (g *Gateway) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stopped {
		return ErrStopped
	}
	if g.started {
		return ErrAlreadyStarted
	}

	ln, err := net.Listen("tcp", g.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", g.opts.Addr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.listener = ln
	g.cancel = cancel
	g.srv = &http.Server{
		Handler:           g.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.serving = make(chan struct{})
	g.pushing = make(chan struct{})
	g.started = true

	go func() {
		defer close(g.serving)
		if err := g.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.log.Error("Gateway stopped serving: %v", err)
		}
	}()
	go func() {
		defer close(g.pushing)
		g.broadcastLoop(ctx)
	}()

	g.log.Info("Gateway listening on %s (push every %v, auth %s)", ln.Addr(), g.opts.BroadcastInterval, authMode(g.opts.Token))
	return nil
}

// Stop cancels the broadcast loop, closes every subscriber and then the
// listener. It is idempotent and returns once all goroutines have exited.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stopped {
		return nil
	}
	g.stopped = true
	if !g.started {
		g.hub.closeAll()
		return nil
	}

	g.cancel()
	<-g.pushing

	g.hub.closeAll()
	err := g.srv.Shutdown(ctx)
	if err != nil {
		g.srv.Close()
	}
	<-g.serving

	g.log.Info("Gateway on %s stopped", g.listener.Addr())
	if err != nil {
		return fmt.Errorf("failed to shut down gateway: %w", err)
	}
	return nil
}

// Addr returns the bound address, nil before Start
func (g *Gateway) Addr() net.Addr {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listener == nil {
		return nil
	}
	return g.listener.Addr()
}

// Subscribers returns the number of live push connections
func (g *Gateway) Subscribers() int {
	return g.hub.count()
}

func authMode(token string) string {
	if token == "" {
		return "disabled"
	}
	return "token"
}
