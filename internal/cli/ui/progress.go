package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Spinner is a text spinner for indeterminate operations, such as the
// catalog-wide aggregation that fetches every service document.
type Spinner struct {
	writer   io.Writer
	message  string
	frames   []string
	interval time.Duration
	active   bool
	done     chan struct{}
	noColor  bool
	mu       sync.RWMutex // protects message
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer, message string, noColor bool) *Spinner {
	return &Spinner{
		writer:   w,
		message:  message,
		frames:   spinnerFrames,
		interval: 100 * time.Millisecond,
		done:     make(chan struct{}),
		noColor:  noColor,
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	s.active = true
	go s.animate()
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	if !s.active {
		return
	}
	s.active = false
	s.done <- struct{}{}
	fmt.Fprint(s.writer, "\r\033[K")
}

// UpdateMessage changes the message shown beside the spinner.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

func (s *Spinner) animate() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	cyan := color.New(color.FgCyan)
	if s.noColor {
		cyan.DisableColor()
	}

	frame := 0
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.RLock()
			msg := s.message
			s.mu.RUnlock()
			cyan.Fprintf(s.writer, "\r%s %s", s.frames[frame], msg)
			frame = (frame + 1) % len(s.frames)
		}
	}
}

// WithSpinner runs fn behind a spinner. The spinner is cleared whether or
// not fn fails, leaving the line free for the real output.
func WithSpinner(w io.Writer, message string, noColor bool, fn func() error) error {
	spinner := NewSpinner(w, message, noColor)
	spinner.Start()
	defer spinner.Stop()
	return fn()
}
