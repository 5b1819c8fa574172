package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vvka-141/pgwait/pkg/pgwait"
)

// ConsoleLogger writes log lines to a writer.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	out        io.Writer
	verbose    bool
	quiet      bool
	timestamps bool
	now        func() time.Time
	mu         sync.Mutex
}

// Option configures a ConsoleLogger.
type Option func(*ConsoleLogger)

// WithWriter sends output to w instead of stderr.
func WithWriter(w io.Writer) Option {
	return func(l *ConsoleLogger) {
		l.out = w
	}
}

// WithQuiet suppresses Info messages. Errors are still written.
func WithQuiet(quiet bool) Option {
	return func(l *ConsoleLogger) {
		l.quiet = quiet
	}
}

// WithTimestamps prefixes every line with an RFC 3339 timestamp.
func WithTimestamps(enabled bool) Option {
	return func(l *ConsoleLogger) {
		l.timestamps = enabled
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *ConsoleLogger) {
		l.now = now
	}
}

// NewConsoleLogger creates a new ConsoleLogger writing to stderr.
// If verbose is false, Verbose() calls are no-ops.
func NewConsoleLogger(verbose bool, opts ...Option) *ConsoleLogger {
	l := &ConsoleLogger{
		out:     os.Stderr,
		verbose: verbose,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.write("[VERBOSE] ", format, args)
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	if l.quiet {
		return
	}
	l.write("", format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.write("[ERROR] ", format, args)
}

func (l *ConsoleLogger) write(prefix, format string, args []interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.timestamps {
		fmt.Fprint(l.out, l.now().UTC().Format(time.RFC3339), " ")
	}
	fmt.Fprint(l.out, prefix, msg, "\n")
}

var _ pgwait.Logger = (*ConsoleLogger)(nil)
