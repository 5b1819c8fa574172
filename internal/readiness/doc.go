// Package readiness polls an injected probe until it reports ready, the
// attempt bound is exhausted, or a failure is classified as fatal.
//
// The poller knows nothing about what the probe checks. Failures are mapped to
// a pgwait.ErrorKind by a pluggable classifier and compared against a set of
// retryable kinds; sub-kinds match their parents.
//
// # Example Usage
//
//	poller := readiness.NewPoller(readiness.DefaultConfig(),
//	    readiness.WithClassifier(readiness.NewPostgreSQLErrorClassifier()),
//	)
//
//	outcome := poller.Poll(ctx, func(ctx context.Context) error {
//	    return pingDatabase(ctx)
//	})
//	if !outcome.Ready() {
//	    return outcome.Err()
//	}
//
// # Timing
//
// The delay between attempts comes from a pgwait.BackoffStrategy (a fixed
// interval unless WithBackoff says otherwise) and is spent in a pgwait.Sleeper.
// The default sleeper is a timer that returns early when the context ends;
// tests substitute a recording sleeper so nothing waits on the wall clock.
//
// # Thread Safety
//
// Poller instances hold no per-call state and are safe for concurrent use.
// WithOnRetry returns a new instance rather than mutating the receiver.
package readiness
