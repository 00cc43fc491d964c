package monitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"smanager/internal/config"
	"smanager/internal/logger"
)

// Notifier reports lifecycle transitions to a process supervisor
type Notifier interface {
	Ready()
	Status(status string)
	Stopping()
	Watchdog()
}

type nopNotifier struct{}

func (nopNotifier) Ready()        {}
func (nopNotifier) Status(string) {}
func (nopNotifier) Stopping()     {}
func (nopNotifier) Watchdog()     {}

// RunnerOptions configure a Runner
type RunnerOptions struct {
	Loader           *config.Loader // re-read on every reload
	WatchConfig      bool           // reload when the config file changes
	Notifier         Notifier
	WatchdogInterval time.Duration // zero disables watchdog pings
	Logger           *logger.Logger
}

// Runner drives a Controller for the lifetime of the serve command.
// SIGHUP reloads, SIGINT and SIGTERM stop.
type Runner struct {
	ctrl    *Controller
	opts    RunnerOptions
	log     *logger.Logger
	reloads chan string
}

// NewRunner creates a runner for ctrl
func NewRunner(ctrl *Controller, opts RunnerOptions) *Runner {
	if opts.Loader == nil {
		opts.Loader = config.NewLoader("")
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	return &Runner{
		ctrl:    ctrl,
		opts:    opts,
		log:     opts.Logger,
		reloads: make(chan string, 1),
	}
}

// Run starts the controller with cfg and blocks until ctx is done, a
// termination signal arrives, or a failed reload leaves nothing running.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) error {
	if err := r.ctrl.Start(cfg); err != nil {
		return err
	}
	r.opts.Notifier.Ready()
	r.opts.Notifier.Status(r.status())

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	g, gctx := errgroup.WithContext(ctx)

	if r.opts.WatchConfig {
		err := r.opts.Loader.Watch(gctx, func(fsnotify.Event) {
			r.requestReload("config file changed")
		})
		if err != nil {
			r.log.Warning("Config file watching disabled: %v", err)
		}
	}

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				if err := r.reload("SIGHUP"); err != nil {
					return err
				}
			case reason := <-r.reloads:
				if err := r.reload(reason); err != nil {
					return err
				}
			}
		}
	})

	if r.opts.WatchdogInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(r.opts.WatchdogInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					r.opts.Notifier.Watchdog()
				}
			}
		})
	}

	err := g.Wait()
	if ctx.Err() != nil {
		r.log.Info("Shutdown requested")
	}

	r.opts.Notifier.Stopping()
	return errors.Join(err, r.ctrl.Stop())
}

// requestReload queues a reload without blocking. Requests arriving while
// one is pending are merged.
func (r *Runner) requestReload(reason string) {
	select {
	case r.reloads <- reason:
	default:
	}
}

// reload re-reads the configuration and applies it. Only a reload that
// leaves the controller stopped is returned as an error.
func (r *Runner) reload(reason string) error {
	r.log.Info("Reloading configuration (%s)", reason)

	cfg, err := r.opts.Loader.Load()
	if err != nil {
		r.log.Error("Keeping current configuration: %v", err)
		return nil
	}
	if err := r.log.SetLevel(cfg.Log.Level); err != nil {
		r.log.Warning("Ignoring log level: %v", err)
	}

	if err := r.ctrl.Reload(cfg); err != nil {
		if r.ctrl.State() == StateStopped {
			return fmt.Errorf("reload left monitor stopped: %w", err)
		}
		r.log.Error("Reload rejected: %v", err)
	}
	r.opts.Notifier.Status(r.status())
	return nil
}

func (r *Runner) status() string {
	if addr := r.ctrl.Addr(); addr != nil {
		return fmt.Sprintf("Serving metrics on %s", addr)
	}
	return "Not serving"
}
