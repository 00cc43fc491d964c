package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// SimpleSpinner animates one line on stdout while a blocking call runs
type SimpleSpinner struct {
	frames  spinner.Spinner
	message string
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewSimpleSpinner creates a spinner that has not started yet
func NewSimpleSpinner(message string) *SimpleSpinner {
	return &SimpleSpinner{
		frames:  spinner.MiniDot,
		message: message,
		done:    make(chan struct{}),
	}
}

// Start begins the animation
func (s *SimpleSpinner) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		style := lipgloss.NewStyle().Foreground(PrimaryColor)
		ticker := time.NewTicker(s.frames.FPS)
		defer ticker.Stop()

		for i := 0; ; i = (i + 1) % len(s.frames.Frames) {
			fmt.Printf("\r  %s %s", style.Render(s.frames.Frames[i]), WhiteStyle.Render(s.message))
			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop ends the animation and clears the line
func (s *SimpleSpinner) Stop() {
	close(s.done)
	s.wg.Wait()
	fmt.Print("\r\033[K")
}

// StopWith ends the animation and prints a status line in its place
func (s *SimpleSpinner) StopWith(status, message string) {
	s.Stop()
	fmt.Println(RenderStatus(status, message))
}

// WithSpinnerResult runs fn behind a spinner and reports its outcome
func WithSpinnerResult[T any](message string, fn func() (T, error)) (T, error) {
	sp := NewSimpleSpinner(message)
	sp.Start()

	result, err := fn()
	if err != nil {
		sp.StopWith("error", err.Error())
		return result, err
	}
	sp.StopWith("success", message+" - done")
	return result, nil
}
