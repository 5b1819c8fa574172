package pgwait

import (
	"context"
	"time"
)

// ErrorClassifier assigns an ErrorKind to a probe failure.
type ErrorClassifier interface {
	// Classify returns the kind of err. Unrecognised errors map to KindUnclassified.
	Classify(err error) ErrorKind
}

// ErrorClassifierFunc adapts a function to ErrorClassifier.
type ErrorClassifierFunc func(err error) ErrorKind

// Classify calls f(err).
func (f ErrorClassifierFunc) Classify(err error) ErrorKind {
	return f(err)
}

// BackoffStrategy calculates the delay before the next attempt.
type BackoffStrategy interface {
	// NextDelay returns the duration to wait after the given failed attempt.
	// attempt is zero-indexed (0 = delay after the first failure).
	NextDelay(attempt int) time.Duration
}

// Sleeper waits between attempts. Implementations must return promptly with
// ctx.Err() when the context ends, and must treat d <= 0 as "do not wait".
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f(ctx, d).
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}
