//go:build !windows

package process

import (
	"fmt"
	"syscall"
	"time"
)

// SignalReload asks the serving process to re-read its configuration
func SignalReload() (int, error) {
	return signal(syscall.SIGHUP)
}

// SignalStop asks the serving process to shut down and waits up to
// timeout for it to release the lock
func SignalStop(timeout time.Duration) (int, error) {
	pid, err := signal(syscall.SIGTERM)
	if err != nil {
		return pid, err
	}
	return pid, waitReleased(pid, timeout)
}

func signal(sig syscall.Signal) (int, error) {
	pid, err := RunningPID()
	if err != nil {
		return 0, err
	}
	if err := syscall.Kill(pid, sig); err != nil {
		return pid, fmt.Errorf("failed to signal process %d: %w", pid, err)
	}
	return pid, nil
}
