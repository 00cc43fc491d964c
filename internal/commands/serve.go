package commands

import (
	"context"
	"errors"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"smanager/internal/logger"
	"smanager/internal/monitor"
	"smanager/internal/process"
	"smanager/internal/service"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	var watchConfig bool

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"daemon"},
		Short:   "Sample host metrics and serve them over HTTP and WebSocket",
		Long: `Run the sampler and the gateway in the foreground.

Send SIGHUP (or run 'smanager reload') to re-read the configuration.
SIGINT and SIGTERM shut down gracefully.

Examples:
  smanager serve                       # Serve with ~/.smanager/config.yaml
  smanager serve --config ./dev.yaml   # Serve with an explicit file
  smanager serve --watch-config        # Reload whenever the file changes`,
		Run: func(cmd *cobra.Command, args []string) {
			os.Exit(runServe(watchConfig))
		},
	}

	cmd.Flags().BoolVar(&watchConfig, "watch-config", false, "Reload when the config file changes")
	return cmd
}

func runServe(watchConfig bool) int {
	loader := newLoader()
	cfg, err := loader.Load()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		return 1
	}

	log, err := logger.NewWithOptions(logger.Options{
		FilePath: cfg.Log.File,
		Level:    cfg.Log.Level,
		Console:  true,
	})
	if err != nil {
		logger.Warning("Logging to stderr only: %v", err)
		log = logger.Default()
	}
	defer log.Close()
	logger.SetDefault(log)

	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			log.Error("Panic: %v\n%s", r, buf[:n])
			service.SystemdNotifier{}.Stopping()
			os.Exit(1)
		}
	}()

	lock, err := process.Acquire()
	if err != nil {
		if errors.Is(err, process.ErrAlreadyRunning) {
			log.Error("Already serving; use 'smanager reload' or 'smanager stop'")
		} else {
			log.Error("Failed to acquire PID lock: %v", err)
		}
		return 1
	}
	defer lock.Release()

	log.Info("Starting %s (PID %d, config %s)", GetCurrentVersion(), os.Getpid(), loader.Path())

	ctrl := monitor.New(monitor.WithLogger(log))
	runner := monitor.NewRunner(ctrl, monitor.RunnerOptions{
		Loader:           loader,
		WatchConfig:      watchConfig,
		Notifier:         service.SystemdNotifier{},
		WatchdogInterval: watchdogInterval(),
		Logger:           log,
	})

	if err := runner.Run(context.Background(), cfg); err != nil {
		log.Error("Serve ended: %v", err)
		return 1
	}
	log.Info("Exited cleanly")
	return 0
}

// watchdogInterval pings at half the systemd WatchdogSec, zero when the
// unit has no watchdog
func watchdogInterval() time.Duration {
	usec := os.Getenv("WATCHDOG_USEC")
	if usec == "" {
		return 0
	}
	d, err := time.ParseDuration(usec + "us")
	if err != nil || d <= 0 {
		return 0
	}
	return d / 2
}
