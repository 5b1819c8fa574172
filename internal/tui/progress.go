package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	MessageWaiting   = "Waiting for database..."
	MessageAvailable = "Database available!"
)

// Reporter prints the user-facing progress of a wait session.
// It is safe for concurrent use.
type Reporter struct {
	out    io.Writer
	quiet  bool
	styled bool
	styles styles
	mu     sync.Mutex
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithQuietProgress suppresses all progress lines.
func WithQuietProgress(quiet bool) ReporterOption {
	return func(r *Reporter) {
		r.quiet = quiet
	}
}

// WithStyle forces styling on or off, overriding terminal detection.
func WithStyle(styled bool) ReporterOption {
	return func(r *Reporter) {
		r.styled = styled
	}
}

// NewReporter creates a reporter writing to out. Output is styled only
// when out is an interactive terminal.
func NewReporter(out io.Writer, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		out:    out,
		styled: DetectMode(out) == ModeInteractive,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.styles = newStyles(lipgloss.NewRenderer(out))
	return r
}

// Waiting announces the start of the session.
func (r *Reporter) Waiting() {
	r.print(SymbolPending, r.styles.waiting, MessageWaiting)
}

// Unavailable reports a failed attempt and the delay before the next one.
func (r *Reporter) Unavailable(delay time.Duration) {
	r.print(SymbolWait, r.styles.unavailable, UnavailableMessage(delay))
}

// Available reports that the database accepted a connection.
func (r *Reporter) Available() {
	r.print(SymbolCheck, r.styles.available, MessageAvailable)
}

func (r *Reporter) print(symbol string, style lipgloss.Style, msg string) {
	if r.quiet {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.styled {
		fmt.Fprintln(r.out, style.Render(symbol+" "+msg))
		return
	}
	fmt.Fprintln(r.out, msg)
}

// UnavailableMessage renders the line printed after a failed attempt.
func UnavailableMessage(delay time.Duration) string {
	return fmt.Sprintf("Database unavailable! Waiting for %s...", FormatDelay(delay))
}

// FormatDelay renders whole seconds in words and anything else in Go
// duration notation: "1 second", "3 seconds", "1.5s", "250ms".
func FormatDelay(d time.Duration) string {
	if d > 0 && d%time.Second == 0 {
		n := int64(d / time.Second)
		if n == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", n)
	}
	return d.String()
}
