package tui

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Mode represents how progress output is rendered.
type Mode int

const (
	// ModeNonInteractive is used for CI/CD pipelines, scripts, and piped output.
	ModeNonInteractive Mode = iota
	// ModeInteractive is used when a human is watching the terminal.
	ModeInteractive
)

// NonInteractiveEnv forces plain output when set to "1".
const NonInteractiveEnv = "PGWAIT_NON_INTERACTIVE"

// DetectMode determines whether progress written to out should be styled.
//
// Returns ModeNonInteractive if:
//   - PGWAIT_NON_INTERACTIVE=1 is set
//   - CI is set (common CI/CD convention)
//   - NO_COLOR is set (accessibility/automation indicator)
//   - out is not a terminal
//
// Returns ModeInteractive otherwise.
func DetectMode(out io.Writer) Mode {
	if os.Getenv(NonInteractiveEnv) == "1" {
		return ModeNonInteractive
	}
	if os.Getenv("CI") != "" {
		return ModeNonInteractive
	}
	if os.Getenv("NO_COLOR") != "" {
		return ModeNonInteractive
	}

	if !IsTerminal(out) {
		return ModeNonInteractive
	}

	return ModeInteractive
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
