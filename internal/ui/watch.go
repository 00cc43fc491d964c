package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"smanager/internal/metrics"
)

// FrameSource yields pushed snapshots one at a time, blocking in between
type FrameSource interface {
	Next() (*metrics.Snapshot, error)
}

type frameMsg struct {
	snap *metrics.Snapshot
}

type frameErrMsg struct {
	err error
}

// WatchModel is the bubbletea model behind the watch command
type WatchModel struct {
	spinner spinner.Model
	source  FrameSource
	target  string

	snap     *metrics.Snapshot
	frames   int
	err      error
	quitting bool
}

// NewWatchModel renders frames from source, labelled with target
func NewWatchModel(target string, source FrameSource) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)
	return WatchModel{spinner: s, source: source, target: target}
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitFrame())
}

func (m WatchModel) waitFrame() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.source.Next()
		if err != nil {
			return frameErrMsg{err: err}
		}
		return frameMsg{snap: snap}
	}
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		if m.snap != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case frameMsg:
		m.snap = msg.snap
		m.frames++
		return m, m.waitFrame()
	case frameErrMsg:
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m WatchModel) View() string {
	var b strings.Builder

	if m.snap == nil {
		b.WriteString("  " + m.spinner.View() + " " + WhiteStyle.Render("Waiting for first frame from "+m.target) + "\n")
	} else {
		b.WriteString(RenderSectionStart("Live metrics " + m.target) + "\n")
		b.WriteString(RenderSnapshot(m.snap) + "\n")
		b.WriteString(RenderSectionEnd() + "\n")
		captured := time.UnixMilli(m.snap.Timestamp).Format("15:04:05")
		b.WriteString(MutedStyle.Render(fmt.Sprintf("  %d frames, captured %s, press q to quit", m.frames, captured)) + "\n")
	}

	if m.err != nil && !m.quitting {
		b.WriteString(RenderStatus("error", "Stream ended: "+m.err.Error()) + "\n")
	}
	return b.String()
}

// Err returns why the stream ended, nil when the user quit
func (m WatchModel) Err() error {
	if m.quitting {
		return nil
	}
	return m.err
}

// Frames returns how many snapshots were rendered
func (m WatchModel) Frames() int {
	return m.frames
}
