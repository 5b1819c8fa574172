package pgwait

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	outcome := poller.Poll(ctx, probe)
//	if errors.Is(outcome.Err(), pgwait.ErrNotReady) {
//	    // Database never came up within the bound
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotReady indicates the resource was still unavailable when polling stopped.
	ErrNotReady = errors.New("not ready")

	// ErrCanceled indicates polling was interrupted by the caller's context.
	ErrCanceled = errors.New("polling canceled")

	// ErrAuthFailed indicates the server rejected the supplied credentials.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrDatabaseNotFound indicates the target database does not exist.
	ErrDatabaseNotFound = errors.New("database not found")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrConnectionFailed indicates database connection failed for a non-transient reason.
	ErrConnectionFailed = errors.New("connection failed")
)

// ProbeError is a probe failure carrying an explicit classification.
// Probes return it so the poller does not have to guess.
type ProbeError struct {
	Kind ErrorKind
	Err  error
}

// NewProbeError wraps err with kind. A nil err yields a nil *ProbeError.
func NewProbeError(kind ErrorKind, err error) *ProbeError {
	if err == nil {
		return nil
	}
	return &ProbeError{Kind: kind, Err: err}
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind recorded on the first *ProbeError or *PollError in
// err's chain. ok is false when err carries no explicit kind.
func KindOf(err error) (kind ErrorKind, ok bool) {
	var probeErr *ProbeError
	if errors.As(err, &probeErr) {
		return probeErr.Kind, true
	}
	var pollErr *PollError
	if errors.As(err, &pollErr) {
		return pollErr.Kind, true
	}
	return KindUnclassified, false
}

// PollError describes a Failed outcome: the kind that stopped polling, how many
// retryable attempts preceded it, and the last underlying error.
type PollError struct {
	Kind     ErrorKind
	Attempts int
	Err      error
}

func (e *PollError) Error() string {
	msg := fmt.Sprintf("readiness polling failed (%s) after %d retryable attempt(s)", e.Kind, e.Attempts)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the cause and the sentinel that matches Kind.
func (e *PollError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if sentinel := SentinelForKind(e.Kind); sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// SentinelForKind maps a kind to the sentinel error callers match with errors.Is.
// Unclassified has no sentinel.
func SentinelForKind(kind ErrorKind) error {
	switch {
	case kind == KindConfiguration:
		return ErrInvalidConfig
	case kind == KindCanceled:
		return ErrCanceled
	case kind == KindAuthentication:
		return ErrAuthFailed
	case kind == KindDatabaseMissing:
		return ErrDatabaseNotFound
	case kind == KindHostNotFound:
		return ErrConnectionFailed
	case kind.IsA(KindTransientUnavailable):
		return ErrNotReady
	}
	return nil
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrCanceled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	case errors.Is(err, ErrAuthFailed):
		return ExitAuthFailed
	case errors.Is(err, ErrDatabaseNotFound):
		return ExitDatabaseNotFound
	case errors.Is(err, ErrNotReady), errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	}

	// Usage patterns only apply to errors from argument parsing, never to
	// driver text carried by a PollError.
	var pollErr *PollError
	if !errors.As(err, &pollErr) && isUsageError(err.Error()) {
		return ExitUsageError
	}

	return ExitGeneralError
}

// isUsageError recognises the messages cobra and pflag produce for bad invocations.
func isUsageError(msg string) bool {
	patterns := []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"accepts ",
		"required flag",
		"invalid argument",
		"flag needs an argument",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
