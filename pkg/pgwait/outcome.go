package pgwait

import "context"

// Probe checks readiness of a dependent resource once.
// It returns nil when the resource is ready. The context carries cancellation
// only; a probe must tolerate being called any number of times.
type Probe func(ctx context.Context) error

// State is the position of a polling session in its state machine.
// Polling is the only non-terminal state.
type State int

const (
	StatePolling State = iota
	StateReady
	StateFailed
)

// String returns a human-readable string representation of the State.
func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of one polling session.
type Outcome struct {
	State State

	// Kind is the classification that ended a Failed session. It is
	// KindUnclassified, the zero value, for Ready.
	Kind ErrorKind

	// Attempts counts retryable failures observed before the session ended.
	Attempts int

	// Invocations counts probe calls, successful or not.
	Invocations int

	// Cause is the last error returned by the probe (or the configuration/context error).
	Cause error
}

// Ready reports whether the probe eventually succeeded.
func (o Outcome) Ready() bool {
	return o.State == StateReady
}

// Err returns nil for a Ready outcome and a *PollError otherwise.
func (o Outcome) Err() error {
	if o.State == StateReady {
		return nil
	}
	return &PollError{Kind: o.Kind, Attempts: o.Attempts, Err: o.Cause}
}

// ReadyOutcome builds a Ready outcome.
func ReadyOutcome(attempts, invocations int) Outcome {
	return Outcome{State: StateReady, Attempts: attempts, Invocations: invocations}
}

// FailedOutcome builds a Failed outcome.
func FailedOutcome(kind ErrorKind, attempts, invocations int, err error) Outcome {
	return Outcome{State: StateFailed, Kind: kind, Attempts: attempts, Invocations: invocations, Cause: err}
}
