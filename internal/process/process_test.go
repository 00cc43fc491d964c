package process

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func usePIDFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_smanager.pid")

	original := getPIDFilePath
	getPIDFilePath = func() string { return path }
	t.Cleanup(func() { getPIDFilePath = original })
	return path
}

func TestLifecycleAcrossPlatforms(t *testing.T) {
	path := usePIDFile(t)

	if PIDFilePath() != path {
		t.Errorf("Expected PID file %s, got %s", path, PIDFilePath())
	}
	if _, err := RunningPID(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Expected ErrNotRunning before Acquire, got %v", err)
	}

	lock, err := Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if _, err := Acquire(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("Expected ErrAlreadyRunning for a second Acquire, got %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := waitReleased(1, time.Second); err != nil {
		t.Errorf("Expected released lock, got %v", err)
	}
	if err := CleanupStale(); err != nil {
		t.Errorf("CleanupStale with no PID file failed: %v", err)
	}
}
