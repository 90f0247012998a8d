package formatter

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Braille dot spinner frames.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a message on one terminal line. It is used by plain
// output while a plan loads; the TUI uses the bubbles spinner instead.
type Spinner struct {
	mu      sync.Mutex
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
}

func NewSpinner(out io.Writer, message string) *Spinner {
	return &Spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// SetMessage replaces the text shown next to the spinner.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Start begins the animation. Call Stop to end it.
func (s *Spinner) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.stop:
				fmt.Fprint(s.out, "\r\033[K")
				return
			case <-ticker.C:
				s.mu.Lock()
				msg := s.message
				s.mu.Unlock()
				frame := spinnerFrames[i%len(spinnerFrames)]
				fmt.Fprintf(s.out, "\r  %s %s", StylePurple.Render(frame), Dim(msg))
			}
		}
	}()
}

// Stop ends the animation and clears the line. It is safe to call twice.
func (s *Spinner) Stop() {
	s.mu.Lock()
	select {
	case <-s.stop:
		s.mu.Unlock()
		return
	default:
		close(s.stop)
	}
	s.mu.Unlock()
	<-s.done
}
