package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vvka-141/pgwait/internal/logging"
	"github.com/vvka-141/pgwait/pkg/pgwait"
)

// Config controls a polling session.
type Config struct {
	// Interval is the delay between failed attempts. Zero busy-polls.
	Interval time.Duration

	// MaxAttempts bounds the number of retryable failures. 0 means unbounded.
	MaxAttempts int

	// RetryableKinds lists the kinds treated as transient. Sub-kinds match.
	RetryableKinds []pgwait.ErrorKind
}

// DefaultConfig polls every second, forever, retrying transient failures.
func DefaultConfig() Config {
	return Config{
		Interval:       pgwait.DefaultPollInterval,
		RetryableKinds: []pgwait.ErrorKind{pgwait.KindTransientUnavailable},
	}
}

// Validate checks the config and returns a multi-error wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error

	if c.Interval < 0 {
		errs = append(errs, fmt.Errorf("interval cannot be negative (got %v): %w", c.Interval, pgwait.ErrInvalidConfig))
	}
	if c.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("max attempts cannot be negative (got %d): %w", c.MaxAttempts, pgwait.ErrInvalidConfig))
	}
	for _, k := range c.RetryableKinds {
		if !k.IsValid() {
			errs = append(errs, fmt.Errorf("retryable kind %s is not defined: %w", k, pgwait.ErrInvalidConfig))
		}
	}

	return errors.Join(errs...)
}

// Retryable reports whether kind matches any configured retryable kind.
func (c Config) Retryable(kind pgwait.ErrorKind) bool {
	for _, k := range c.RetryableKinds {
		if kind.IsA(k) {
			return true
		}
	}
	return false
}

// Poller runs a probe until it is ready or a stop condition is met.
type Poller struct {
	config     Config
	classifier pgwait.ErrorClassifier
	backoff    pgwait.BackoffStrategy
	sleeper    pgwait.Sleeper
	logger     pgwait.Logger
	onRetry    func(attempt int, err error, delay time.Duration)
}

// Option configures a Poller.
type Option func(*Poller)

// WithClassifier sets how probe errors are mapped to kinds.
// The default trusts only kinds carried by *pgwait.ProbeError.
func WithClassifier(c pgwait.ErrorClassifier) Option {
	return func(p *Poller) {
		p.classifier = c
	}
}

// WithBackoff replaces the fixed Config.Interval with a per-attempt strategy.
func WithBackoff(b pgwait.BackoffStrategy) Option {
	return func(p *Poller) {
		p.backoff = b
	}
}

// WithSleeper sets the primitive used to wait between attempts.
func WithSleeper(s pgwait.Sleeper) Option {
	return func(p *Poller) {
		p.sleeper = s
	}
}

// WithLogger sets the logger for per-attempt diagnostics.
func WithLogger(l pgwait.Logger) Option {
	return func(p *Poller) {
		p.logger = l
	}
}

// NewPoller creates a poller. Nil options fall back to defaults.
func NewPoller(config Config, opts ...Option) *Poller {
	p := &Poller{config: config}
	for _, opt := range opts {
		opt(p)
	}

	if p.classifier == nil {
		p.classifier = ExplicitKindClassifier{}
	}
	if p.backoff == nil {
		p.backoff = FixedInterval(config.Interval)
	}
	if p.sleeper == nil {
		p.sleeper = TimerSleeper{}
	}
	if p.logger == nil {
		p.logger = logging.NewNullLogger()
	}

	return p
}

// WithOnRetry returns a new Poller with the specified retry callback.
// The callback runs after a retryable failure, before the sleep. attempt is
// the 1-based count of retryable failures so far.
//
// This method does NOT modify the receiver; it returns a new instance.
func (p *Poller) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Poller {
	clone := *p
	clone.onRetry = callback
	return &clone
}

// Config returns the poller's configuration.
func (p *Poller) Config() Config {
	return p.config
}

// Poll invokes probe until it succeeds or polling must stop.
//
// A retryable failure increments the attempt counter; if MaxAttempts is set
// and reached, Poll returns Failed without a trailing sleep. A non-retryable
// failure returns Failed at once, regardless of MaxAttempts. An invalid config
// fails with KindConfiguration before the probe is ever called. A context that
// ends before an attempt or during a sleep fails with KindCanceled.
func (p *Poller) Poll(ctx context.Context, probe pgwait.Probe) pgwait.Outcome {
	if err := p.config.Validate(); err != nil {
		return pgwait.FailedOutcome(pgwait.KindConfiguration, 0, 0, err)
	}
	if probe == nil {
		return pgwait.FailedOutcome(pgwait.KindConfiguration, 0, 0,
			fmt.Errorf("probe cannot be nil: %w", pgwait.ErrInvalidConfig))
	}

	attempts, invocations := 0, 0

	for {
		if err := ctx.Err(); err != nil {
			return pgwait.FailedOutcome(pgwait.KindCanceled, attempts, invocations, err)
		}

		err := probe(ctx)
		invocations++
		if err == nil {
			p.logger.Verbose("Probe succeeded after %d invocation(s)", invocations)
			return pgwait.ReadyOutcome(attempts, invocations)
		}

		// A failure caused by the caller giving up is not the probe's fault.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return pgwait.FailedOutcome(pgwait.KindCanceled, attempts, invocations,
				fmt.Errorf("%w; last probe error: %w", ctxErr, err))
		}

		kind := p.classifier.Classify(err)
		if !p.config.Retryable(kind) {
			p.logger.Verbose("Probe failed with non-retryable %s: %v", kind, err)
			return pgwait.FailedOutcome(kind, attempts, invocations, err)
		}

		attempts++
		if p.config.MaxAttempts > 0 && attempts >= p.config.MaxAttempts {
			p.logger.Verbose("Probe failed with %s; attempt limit %d reached", kind, p.config.MaxAttempts)
			return pgwait.FailedOutcome(kind, attempts, invocations, err)
		}

		delay := p.backoff.NextDelay(attempts - 1)
		if delay < 0 {
			return pgwait.FailedOutcome(pgwait.KindConfiguration, attempts, invocations,
				fmt.Errorf("backoff returned negative delay %v: %w", delay, pgwait.ErrInvalidConfig))
		}
		p.logger.Verbose("Attempt %d failed with %s: %v (retrying in %v)", attempts, kind, err, delay)

		if p.onRetry != nil {
			p.onRetry(attempts, err, delay)
		}

		if sleepErr := p.sleeper.Sleep(ctx, delay); sleepErr != nil {
			return pgwait.FailedOutcome(pgwait.KindCanceled, attempts, invocations,
				fmt.Errorf("%w; last probe error: %w", sleepErr, err))
		}
	}
}

// Poll builds a Poller for a single session.
func Poll(ctx context.Context, probe pgwait.Probe, config Config, opts ...Option) pgwait.Outcome {
	return NewPoller(config, opts...).Poll(ctx, probe)
}
