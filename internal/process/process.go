package process

import (
	"errors"
	"fmt"
	"os"
	"time"

	"smanager/internal/logger"
)

var (
	ErrAlreadyRunning = errors.New("another smanager instance is already running")
	ErrNotRunning     = errors.New("smanager is not running")
)

// PIDFilePath returns where the serving process records its PID
func PIDFilePath() string {
	return getPIDFilePath()
}

// RunningPID returns the PID of the serving process or ErrNotRunning
func RunningPID() (int, error) {
	running, pid, err := Check()
	if err != nil {
		return 0, err
	}
	if !running || pid <= 0 {
		return 0, ErrNotRunning
	}
	return pid, nil
}

// CleanupStale removes a PID file that no live serving process owns
func CleanupStale() error {
	running, pid, err := Check()
	if err != nil {
		return err
	}

	if running && IsServeProcess(pid) {
		return fmt.Errorf("%w (PID %d)", ErrAlreadyRunning, pid)
	}
	if running {
		logger.Info("PID file names a process that is not smanager (%d), cleaning up", pid)
	}
	if err := os.Remove(getPIDFilePath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// waitReleased polls until the lock is free or timeout passes
func waitReleased(pid int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if running, _, _ := Check(); !running {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("process %d still running after %v", pid, timeout)
}
