package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"smanager/internal/metrics"
)

type queueSource struct {
	frames []*metrics.Snapshot
}

func (q *queueSource) Next() (*metrics.Snapshot, error) {
	if len(q.frames) == 0 {
		return nil, errors.New("connection closed")
	}
	snap := q.frames[0]
	q.frames = q.frames[1:]
	return snap, nil
}

func TestWatchModelRendersFrames(t *testing.T) {
	src := &queueSource{frames: []*metrics.Snapshot{{
		MemoryTotalBytes: 1000,
		MemoryUsedBytes:  250,
		MemoryFreeBytes:  750,
		CPUUsage:         0.5,
		Timestamp:        1700000000000,
	}}}
	m := NewWatchModel("127.0.0.1:25566", src)

	if !strings.Contains(m.View(), "Waiting for first frame") {
		t.Errorf("Expected waiting view, got %q", m.View())
	}

	msg := m.waitFrame()()
	next, cmd := m.Update(msg)
	m = next.(WatchModel)
	if cmd == nil {
		t.Error("Expected the model to wait for the next frame")
	}
	if m.Frames() != 1 {
		t.Errorf("Expected 1 frame, got %d", m.Frames())
	}

	view := m.View()
	for _, want := range []string{"CPU", "Memory", "50.0%", "1 frames"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected %q in view:\n%s", want, view)
		}
	}

	// the queue is empty now, so the stream ends
	next, _ = m.Update(m.waitFrame()())
	m = next.(WatchModel)
	if m.Err() == nil {
		t.Error("Expected stream error after the source closed")
	}
}

func TestWatchModelQuitIsNotAnError(t *testing.T) {
	m := NewWatchModel("host", &queueSource{})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(WatchModel)
	if cmd == nil {
		t.Error("Expected quit command")
	}
	if m.Err() != nil {
		t.Errorf("Expected no error after quitting, got %v", m.Err())
	}
}

func TestRenderProgressBarBounds(t *testing.T) {
	if got := strings.Count(RenderProgressBar(150, 10), ProgressFull); got != 10 {
		t.Errorf("Expected full bar, got %d cells", got)
	}
	if got := strings.Count(RenderProgressBar(-5, 10), ProgressEmpty); got != 10 {
		t.Errorf("Expected empty bar, got %d cells", got)
	}
	if !strings.Contains(RenderSnapshot(nil), "No snapshot") {
		t.Error("Expected placeholder for nil snapshot")
	}
}
