package readiness

import (
	"context"
	"time"

	"github.com/vvka-141/pgwait/pkg/pgwait"
)

// TimerSleeper waits on the wall clock, returning early when ctx ends.
type TimerSleeper struct{}

// Sleep blocks for d or until ctx is done. d <= 0 only checks the context.
func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ pgwait.Sleeper = TimerSleeper{}
