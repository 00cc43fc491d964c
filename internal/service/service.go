package service

import (
	"fmt"
	"os"
	"runtime"

	"github.com/okzk/sdnotify"
	"github.com/takama/daemon"

	constants "smanager/config"
	"smanager/internal/logger"
)

// Service wraps takama/daemon for systemd and launchd installs
type Service struct {
	daemon daemon.Daemon
}

// New creates a system daemon when run as root and a user agent otherwise
func New() (*Service, error) {
	kind := daemon.UserAgent
	if os.Geteuid() == 0 {
		kind = daemon.SystemDaemon
	}

	d, err := daemon.New(constants.APP_NAME, constants.APP_DESCRIPTION, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to create daemon: %w", err)
	}
	return &Service{daemon: d}, nil
}

// Install registers the unit running `smanager serve` with extra args
// such as --config
func (s *Service) Install(args ...string) (string, error) {
	status, err := s.daemon.Install(append([]string{"serve"}, args...)...)
	if err != nil {
		return status, err
	}
	logger.Info("Service installed: %s", status)
	return status, nil
}

// Remove unregisters the unit
func (s *Service) Remove() (string, error) {
	status, err := s.daemon.Remove()
	if err != nil {
		return status, err
	}
	logger.Info("Service removed: %s", status)
	return status, nil
}

func (s *Service) Start() (string, error) {
	status, err := s.daemon.Start()
	if err != nil {
		return status, err
	}
	logger.Info("Service started: %s", status)
	return status, nil
}

func (s *Service) Stop() (string, error) {
	status, err := s.daemon.Stop()
	if err != nil {
		return status, err
	}
	logger.Info("Service stopped: %s", status)
	return status, nil
}

func (s *Service) Status() (string, error) {
	return s.daemon.Status()
}

// SystemdNotifier reports lifecycle transitions over the sd_notify socket.
// Outside systemd (or off linux) every call is a no-op.
type SystemdNotifier struct{}

func (SystemdNotifier) Ready() {
	if runtime.GOOS == "linux" {
		sdnotify.Ready()
		logger.Debug("Sent READY notification to systemd")
	}
}

func (SystemdNotifier) Stopping() {
	if runtime.GOOS == "linux" {
		sdnotify.Stopping()
		logger.Debug("Sent STOPPING notification to systemd")
	}
}

func (SystemdNotifier) Watchdog() {
	if runtime.GOOS == "linux" {
		sdnotify.Watchdog()
	}
}

func (SystemdNotifier) Status(status string) {
	if runtime.GOOS == "linux" {
		sdnotify.Status(status)
	}
}
