package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smanager.log")

	l, err := NewWithOptions(Options{FilePath: path, Level: "debug"})
	if err != nil {
		t.Fatalf("NewWithOptions failed: %v", err)
	}
	l.Info("sampler started with interval %dms", 1000)
	l.Debug("debug line")
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "INFO sampler started with interval 1000ms") {
		t.Errorf("Expected info line in log, got %q", content)
	}
	if !strings.Contains(content, "DEBUG debug line") {
		t.Errorf("Expected debug line in log, got %q", content)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smanager.log")

	l, err := NewWithOptions(Options{FilePath: path, Level: "warning"})
	if err != nil {
		t.Fatalf("NewWithOptions failed: %v", err)
	}
	l.Info("hidden")
	l.Warning("shown")
	l.Close()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") {
		t.Error("Info line should be filtered at warn level")
	}
	if !strings.Contains(string(data), "WARN shown") {
		t.Errorf("Expected warning line, got %q", string(data))
	}
}

func TestInvalidLevel(t *testing.T) {
	if _, err := NewWithOptions(Options{Level: "loud"}); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestDiscardAndDefault(t *testing.T) {
	d := Discard()
	d.Error("nothing %s", "here")
	d.Close()

	prev := Default()
	SetDefault(d)
	if Default() != d {
		t.Error("SetDefault did not replace the default logger")
	}
	SetDefault(nil)
	if Default() != d {
		t.Error("SetDefault(nil) should be ignored")
	}
	SetDefault(prev)
}
