//go:build !windows

package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	constants "smanager/config"
	"smanager/internal/logger"
)

// LockFile is an exclusive flock held on the PID file for the lifetime of
// the serving process
type LockFile struct {
	path string
	fd   int
}

// getPIDFilePath is a variable so tests can point it at a temp dir
var getPIDFilePath = func() string {
	if runtime.GOOS == "linux" {
		if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
			return filepath.Join(runtimeDir, constants.PID_FILE_NAME)
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".local", "run", constants.PID_FILE_NAME)
		}
		return fmt.Sprintf("/tmp/%s-%d.pid", constants.APP_NAME, os.Getuid())
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Library", "Application Support", constants.APP_NAME, constants.PID_FILE_NAME)
	}
	return filepath.Join(os.TempDir(), constants.PID_FILE_NAME)
}

// Acquire creates and locks the PID file. It fails with ErrAlreadyRunning
// while another process holds the lock.
func Acquire() (*LockFile, error) {
	pidFile := getPIDFilePath()

	if err := os.MkdirAll(filepath.Dir(pidFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create PID directory: %w", err)
	}

	// don't truncate before holding the lock, the owner's PID must survive
	fd, err := syscall.Open(pidFile, syscall.O_RDWR|syscall.O_CREAT, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open PID file: %w", err)
	}

	if err := syscall.Flock(fd, syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		syscall.Close(fd)

		if stale, pid := checkStaleLock(pidFile); stale {
			logger.Info("Cleaning up stale PID file (process %d no longer exists)", pid)
			os.Remove(pidFile)
			return Acquire()
		}
		return nil, ErrAlreadyRunning
	}

	if err := syscall.Ftruncate(fd, 0); err != nil {
		unlock(fd)
		return nil, fmt.Errorf("failed to truncate PID file: %w", err)
	}
	if _, err := syscall.Write(fd, []byte(fmt.Sprintf("%d\n", os.Getpid()))); err != nil {
		unlock(fd)
		return nil, fmt.Errorf("failed to write PID: %w", err)
	}

	logger.Debug("Acquired PID file lock: %s (PID: %d)", pidFile, os.Getpid())
	return &LockFile{path: pidFile, fd: fd}, nil
}

// Release drops the lock and removes the PID file. Safe to call twice.
func (lf *LockFile) Release() error {
	if lf.fd <= 0 {
		return nil
	}

	logger.Debug("Releasing PID file lock: %s", lf.path)
	unlock(lf.fd)
	lf.fd = 0

	if err := os.Remove(lf.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

func unlock(fd int) {
	syscall.Flock(fd, syscall.LOCK_UN)
	syscall.Close(fd)
}

// Check reports whether a serving process holds the lock, and its PID
func Check() (bool, int, error) {
	fd, err := syscall.Open(getPIDFilePath(), syscall.O_RDONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("failed to open PID file: %w", err)
	}
	defer syscall.Close(fd)

	if err := syscall.Flock(fd, syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		return true, readPIDFromFd(fd), nil
	}

	// nobody holds it, the file is left over
	syscall.Flock(fd, syscall.LOCK_UN)
	return false, 0, nil
}

func checkStaleLock(pidFile string) (bool, int) {
	fd, err := syscall.Open(pidFile, syscall.O_RDONLY, 0)
	if err != nil {
		return false, 0
	}
	defer syscall.Close(fd)

	if err := syscall.Flock(fd, syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		return false, 0
	}
	syscall.Flock(fd, syscall.LOCK_UN)
	return true, readPIDFromFd(fd)
}

func readPIDFromFd(fd int) int {
	buf := make([]byte, 32)
	n, err := syscall.Read(fd, buf)
	if err != nil || n == 0 {
		return 0
	}

	var pid int
	fmt.Sscanf(string(buf[:n]), "%d", &pid)
	return pid
}

// IsServeProcess checks the command line of pid so a reused PID is not
// mistaken for the daemon
func IsServeProcess(pid int) bool {
	if pid <= 0 {
		return false
	}

	var cmdline string
	if runtime.GOOS == "linux" {
		data, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
		if err != nil {
			return false
		}
		cmdline = strings.ReplaceAll(string(data), "\x00", " ")
	} else {
		output, err := exec.Command("ps", "-p", fmt.Sprintf("%d", pid), "-o", "command=").Output()
		if err != nil {
			return false
		}
		cmdline = string(output)
	}

	cmdline = strings.ToLower(cmdline)
	return strings.Contains(cmdline, constants.APP_NAME) &&
		(strings.Contains(cmdline, "serve") || strings.Contains(cmdline, "daemon"))
}
