package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows progress for an indeterminate operation, like fetching all
// content from an instance.
type Spinner struct {
	writer  io.Writer
	message string
	done    chan struct{}
	stopped bool
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{writer: w, message: message, done: make(chan struct{})}
}

// Start begins the animation.
func (s *Spinner) Start() {
	go s.animate()
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.done)
	fmt.Fprint(s.writer, "\r\033[K")
}

// Success stops the spinner and prints a success line.
func (s *Spinner) Success(message string) {
	s.Stop()
	Success(s.writer, "%s", message)
}

// Error stops the spinner and prints a failure line.
func (s *Spinner) Error(message string) {
	s.Stop()
	Fail(s.writer, "%s", message)
}

func (s *Spinner) animate() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	cyan := color.New(color.FgCyan)
	frame := 0
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			cyan.Fprintf(s.writer, "\r%s %s", spinnerFrames[frame], s.message)
			frame = (frame + 1) % len(spinnerFrames)
		}
	}
}

// WithSpinner runs fn behind a spinner, reporting success or failure.
func WithSpinner(w io.Writer, message string, fn func() error) error {
	s := NewSpinner(w, message)
	s.Start()
	if err := fn(); err != nil {
		s.Error(fmt.Sprintf("%s failed", message))
		return err
	}
	s.Success(message)
	return nil
}
