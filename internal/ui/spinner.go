package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// Outcome is how a spinner ended.
type Outcome int

const (
	Running Outcome = iota
	Succeeded
	Failed
)

// Spinner animates a single stderr line while a one-shot node call runs,
// then replaces it with a result line carrying the elapsed time.
type Spinner struct {
	label string
	anim  spinner.Spinner

	mu      sync.Mutex
	out     io.Writer
	started time.Time
	drawn   int
	outcome Outcome
	stop    chan struct{}
	stopped sync.WaitGroup
}

// NewSpinner creates a spinner writing to stderr.
func NewSpinner(label string) *Spinner {
	return &Spinner{label: label, anim: spinner.MiniDot, out: os.Stderr}
}

// SetOutput redirects the spinner.
func (s *Spinner) SetOutput(w io.Writer) {
	s.mu.Lock()
	s.out = w
	s.mu.Unlock()
}

// Start draws the first frame and keeps animating until Success or Fail.
// Starting a running spinner does nothing.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.started = time.Now()
	s.stop = make(chan struct{})
	s.draw(0)

	s.stopped.Add(1)
	go s.loop(s.stop)
}

func (s *Spinner) loop(stop <-chan struct{}) {
	defer s.stopped.Done()
	tick := time.NewTicker(s.anim.FPS)
	defer tick.Stop()

	for frame := 1; ; frame++ {
		select {
		case <-stop:
			return
		case <-tick.C:
			s.mu.Lock()
			s.draw(frame)
			s.mu.Unlock()
		}
	}
}

// draw replaces the current line with frame n. Caller holds mu.
func (s *Spinner) draw(n int) {
	glyph := s.anim.Frames[n%len(s.anim.Frames)]
	color := SpinnerColors[(n/2)%len(SpinnerColors)]
	line := lipgloss.NewStyle().Foreground(color).Render(glyph) + " " + s.label + "..."
	s.erase()
	fmt.Fprint(s.out, line)
	s.drawn = lipgloss.Width(line)
}

// erase blanks whatever the last frame left behind. Caller holds mu.
func (s *Spinner) erase() {
	if s.drawn > 0 {
		fmt.Fprint(s.out, "\r"+strings.Repeat(" ", s.drawn)+"\r")
		s.drawn = 0
	}
}

// Success ends the animation with a check mark.
func (s *Spinner) Success() { s.end(Succeeded) }

// Fail ends the animation with a cross.
func (s *Spinner) Fail() { s.end(Failed) }

func (s *Spinner) end(o Outcome) {
	s.mu.Lock()
	stop := s.stop
	if stop == nil || s.outcome != Running {
		s.mu.Unlock()
		return
	}
	s.outcome = o
	close(stop)
	s.mu.Unlock()

	s.stopped.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	symbol, style := SymbolSuccess, SuccessStyle()
	if o == Failed {
		symbol, style = SymbolFail, ErrorStyle()
	}
	s.erase()
	fmt.Fprintf(s.out, "%s %s %s\n", style.Render(symbol), s.label, MutedStyle().Render(formatDuration(time.Since(s.started))))
}

// Result reports how the spinner ended, or Running.
func (s *Spinner) Result() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// formatDuration keeps two decimals below a tenth of a second ("0.03s")
// and one above ("1.2s").
func formatDuration(d time.Duration) string {
	if d < 100*time.Millisecond {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
