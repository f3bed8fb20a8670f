package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"-", "/", "|", "\\"}

// Spinner animates a busy message on one terminal line. It only writes to its
// writer and never touches conversation state.
type Spinner struct {
	out     io.Writer
	message string
	delay   time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewSpinner returns a stopped spinner.
func NewSpinner(out io.Writer, message string) *Spinner {
	return &Spinner{out: out, message: message, delay: 100 * time.Millisecond}
}

// Start begins animating. Starting a running spinner does nothing.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.spin(s.stop, s.done)
}

// Stop ends the animation, clears the line and waits for the goroutine to exit.
func (s *Spinner) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (s *Spinner) spin(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.delay)
	defer ticker.Stop()

	for i := 0; ; i++ {
		_, _ = fmt.Fprintf(s.out, "\r%s %s", s.message, spinnerFrames[i%len(spinnerFrames)])
		select {
		case <-stop:
			_, _ = fmt.Fprint(s.out, "\r\033[K")
			return
		case <-ticker.C:
		}
	}
}
