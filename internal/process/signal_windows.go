//go:build windows

package process

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrReloadUnsupported is returned on windows, which has no SIGHUP
var ErrReloadUnsupported = errors.New("reload by signal is not supported on windows, restart the service instead")

// SignalReload is unavailable on windows
func SignalReload() (int, error) {
	pid, err := RunningPID()
	if err != nil {
		return 0, err
	}
	return pid, ErrReloadUnsupported
}

// SignalStop terminates the serving process and waits up to timeout for
// its PID file to go stale
func SignalStop(timeout time.Duration) (int, error) {
	pid, err := RunningPID()
	if err != nil {
		return 0, err
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return pid, fmt.Errorf("failed to open process %d: %w", pid, err)
	}
	if err := proc.Kill(); err != nil {
		return pid, fmt.Errorf("failed to stop process %d: %w", pid, err)
	}
	return pid, waitReleased(pid, timeout)
}
