//go:build windows

package process

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/windows"

	constants "smanager/config"
	"smanager/internal/logger"
)

// exit code reported for a process that has not terminated
const stillActive = 259

// LockFile is the PID file held open by the serving process. Windows has
// no flock, so ownership is the file's existence plus a live PID in it.
type LockFile struct {
	path string
	file *os.File
}

var getPIDFilePath = func() string {
	if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
		return filepath.Join(dir, constants.APP_NAME, constants.PID_FILE_NAME)
	}
	return filepath.Join(os.TempDir(), constants.PID_FILE_NAME)
}

// Acquire creates the PID file exclusively. A file naming a dead process
// is removed first.
func Acquire() (*LockFile, error) {
	pidFile := getPIDFilePath()

	if err := os.MkdirAll(filepath.Dir(pidFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create PID directory: %w", err)
	}

	running, pid, err := Check()
	if err != nil {
		return nil, err
	}
	if running {
		return nil, fmt.Errorf("%w (PID %d)", ErrAlreadyRunning, pid)
	}
	if pid > 0 {
		logger.Info("Cleaning up stale PID file (process %d no longer exists)", pid)
	}
	os.Remove(pidFile)

	f, err := os.OpenFile(pidFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("failed to create PID file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		f.Close()
		os.Remove(pidFile)
		return nil, fmt.Errorf("failed to write PID: %w", err)
	}

	logger.Debug("Acquired PID file: %s (PID: %d)", pidFile, os.Getpid())
	return &LockFile{path: pidFile, file: f}, nil
}

// Release closes and removes the PID file. Safe to call twice.
func (lf *LockFile) Release() error {
	if lf.file == nil {
		return nil
	}

	logger.Debug("Releasing PID file: %s", lf.path)
	lf.file.Close()
	lf.file = nil

	if err := os.Remove(lf.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// Check reports whether the PID file names a live process, and the PID it
// names. A leftover file reports false with the dead PID.
func Check() (bool, int, error) {
	data, err := os.ReadFile(getPIDFilePath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false, 0, nil
	}
	return isAlive(pid), pid, nil
}

func isAlive(pid int) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	return code == stillActive
}

// IsServeProcess checks the executable image of pid so a reused PID is not
// mistaken for the server
func IsServeProcess(pid int) bool {
	if pid <= 0 {
		return false
	}

	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)

	buf := make([]uint16, windows.MAX_LONG_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return false
	}
	image := strings.ToLower(filepath.Base(windows.UTF16ToString(buf[:size])))
	return strings.HasPrefix(image, constants.APP_NAME)
}
