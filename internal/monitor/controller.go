package monitor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	constants "smanager/config"
	"smanager/internal/config"
	"smanager/internal/files"
	"smanager/internal/logger"
	"smanager/internal/metrics"
	"smanager/internal/server"
)

var (
	ErrAlreadyRunning = errors.New("monitor already running")
	ErrNotRunning     = errors.New("monitor not running")
)

// State is the controller lifecycle phase
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateReloading
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateReloading:
		return "reloading"
	default:
		return "stopped"
	}
}

// Option configures a Controller
type Option func(*Controller)

// WithSource replaces the host counters, used by tests
func WithSource(src metrics.Source) Option {
	return func(c *Controller) { c.source = src }
}

// WithLogger sets the logger shared by the sampler and gateway
func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithInstruments sets the self-metrics that outlive reloads
func WithInstruments(i *server.Instruments) Option {
	return func(c *Controller) { c.instruments = i }
}

// Controller runs the sampling loop and the gateway together and swaps
// both on reload. All methods are safe for concurrent use.
type Controller struct {
	source      metrics.Source
	log         *logger.Logger
	instruments *server.Instruments
	store       *metrics.Store

	mu      sync.Mutex
	state   State
	sampler *metrics.Sampler
	cfg     *config.Config
	loop    *sampleLoop
	gateway *server.Gateway
}

// New creates a stopped controller. The sampler is built here and kept
// across every Start and Reload.
func New(opts ...Option) *Controller {
	c := &Controller{
		source: metrics.NewHostSource(),
		log:    logger.Default(),
		store:  metrics.NewStore(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.instruments == nil {
		c.instruments = server.NewInstruments()
	}
	c.sampler = metrics.NewSampler(c.source, metrics.WithLogger(c.log))
	return c
}

// Start takes one sample synchronously so the first pull finds a snapshot,
// then binds the gateway and starts the sampling loop. A bind failure
// leaves the controller stopped.
func (c *Controller) Start(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateStopped {
		return ErrAlreadyRunning
	}
	c.state = StateStarting

	c.sampler.SetReadTimeout(readTimeout(cfg.SampleInterval()))
	c.sample()

	gw, err := c.startGateway(cfg)
	if err != nil {
		c.state = StateStopped
		return err
	}

	c.gateway = gw
	c.loop = c.startLoop(cfg.SampleInterval())
	c.cfg = cfg
	c.state = StateRunning
	c.log.Info("Monitor started: sampling every %v, serving on %s", cfg.SampleInterval(), gw.Addr())
	return nil
}

// Reload stops the running loop and gateway and starts new ones for cfg.
// If cfg cannot be served the previous gateway is restored and the error
// returned; if that fails too the controller ends up stopped.
func (c *Controller) Reload(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning {
		return ErrNotRunning
	}
	c.state = StateReloading
	prev := c.cfg

	c.loop.stop()
	c.loop = nil
	if err := c.stopGateway(); err != nil {
		c.log.Warning("Previous gateway did not shut down cleanly: %v", err)
	}

	active := cfg
	gw, err := c.startGateway(cfg)
	if err != nil {
		c.log.Error("Reload failed, restoring previous config: %v", err)
		var restoreErr error
		gw, restoreErr = c.startGateway(prev)
		if restoreErr != nil {
			c.state = StateStopped
			c.log.Error("Failed to restore previous gateway, monitor stopped: %v", restoreErr)
			return errors.Join(err, fmt.Errorf("failed to restore previous gateway: %w", restoreErr))
		}
		active = prev
	}

	c.gateway = gw
	c.sampler.SetReadTimeout(readTimeout(active.SampleInterval()))
	c.loop = c.startLoop(active.SampleInterval())
	c.cfg = active
	c.state = StateRunning

	if err != nil {
		return fmt.Errorf("failed to apply config: %w", err)
	}
	c.log.Info("Monitor reloaded: sampling every %v, serving on %s", cfg.SampleInterval(), gw.Addr())
	return nil
}

// Stop halts the sampling loop and then the gateway. Stopping a stopped
// controller is a no-op.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateStopped {
		return nil
	}

	if c.loop != nil {
		c.loop.stop()
		c.loop = nil
	}
	err := c.stopGateway()
	c.state = StateStopped
	c.log.Info("Monitor stopped")
	return err
}

// State returns the current lifecycle phase
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Config returns the active configuration, nil when stopped before the
// first start
func (c *Controller) Config() *config.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Addr returns the gateway's bound address, nil when not serving
func (c *Controller) Addr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gateway == nil {
		return nil
	}
	return c.gateway.Addr()
}

// Subscribers returns the number of live push connections
func (c *Controller) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gateway == nil {
		return 0
	}
	return c.gateway.Subscribers()
}

// Store exposes the snapshot store
func (c *Controller) Store() *metrics.Store {
	return c.store
}

func (c *Controller) startGateway(cfg *config.Config) (*server.Gateway, error) {
	opts := server.Options{
		Addr:              cfg.ListenAddr(),
		Token:             cfg.Auth.Token,
		BroadcastInterval: cfg.BroadcastInterval(),
		StaticDir:         cfg.Web.StaticDir,
		Instruments:       c.instruments,
		ExposeSelfMetrics: cfg.Web.SelfMetrics,
		Logger:            c.log,
	}
	if cfg.Files.Enabled {
		m, err := files.NewManager(cfg.Files.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to open files root: %w", err)
		}
		opts.Files = m
	}

	gw := server.New(c.store, opts)
	if err := gw.Start(); err != nil {
		return nil, err
	}
	return gw, nil
}

func (c *Controller) stopGateway() error {
	if c.gateway == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), constants.SHUTDOWN_TIMEOUT*time.Second)
	defer cancel()

	err := c.gateway.Stop(ctx)
	c.gateway = nil
	return err
}

func readTimeout(interval time.Duration) time.Duration {
	limit := constants.MAX_SAMPLE_TIMEOUT_MS * time.Millisecond
	if interval > limit {
		return limit
	}
	return interval
}
