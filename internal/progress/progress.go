// Package progress reports analysis progress to the user.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Sink observes progress. It never influences control flow.
type Sink interface {
	// Reset starts a new unit of work with total steps.
	Reset(total int)
	// Advance records n completed steps.
	Advance(n int)
	// SetLabel describes the current unit of work.
	SetLabel(text string)
}

// Noop discards all progress.
type Noop struct{}

// Compile-time checks.
var (
	_ Sink = Noop{}
	_ Sink = (*Terminal)(nil)
)

func (Noop) Reset(int)       {}
func (Noop) Advance(int)     {}
func (Noop) SetLabel(string) {}

// Terminal writes progress to w. On a TTY it redraws a single line with
// a carriage return, otherwise it prints one line per label.
type Terminal struct {
	mu      sync.Mutex
	w       io.Writer
	tty     bool
	label   string
	total   int
	done    int
	started time.Time
	now     func() time.Time
}

// NewTerminal creates a Terminal sink writing to w.
func NewTerminal(w io.Writer) *Terminal {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Terminal{w: w, tty: tty, now: time.Now}
}

// Reset implements Sink.
func (t *Terminal) Reset(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tty && t.total > 0 {
		fmt.Fprintln(t.w)
	}
	t.total = total
	t.done = 0
	t.started = t.now()
	t.draw()
}

// Advance implements Sink.
func (t *Terminal) Advance(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done += n
	if t.total > 0 && t.done > t.total {
		t.done = t.total
	}
	if t.tty {
		t.draw()
	}
}

// SetLabel implements Sink.
func (t *Terminal) SetLabel(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.label = text
	if t.tty {
		t.draw()
		return
	}
	fmt.Fprintf(t.w, "[%s] %d positions\n", text, t.total)
}

// Finish terminates the current line on a TTY.
func (t *Terminal) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tty {
		fmt.Fprintln(t.w)
	}
	t.total = 0
}

func (t *Terminal) draw() {
	if !t.tty {
		return
	}
	pct := float64(0)
	if t.total > 0 {
		pct = float64(t.done) / float64(t.total) * 100
	}
	fmt.Fprintf(t.w, "\r[%s] %d / %d (%.1f%%) %s",
		t.label, t.done, t.total, pct, FormatDuration(t.now().Sub(t.started)))
}

// FormatDuration formats d as a short human-readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
