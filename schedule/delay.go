package schedule

import (
	"context"
	"time"
)

// Delayer waits between schedule entries. Sleep returns early, silently, when
// ctx is done.
type Delayer interface {
	Sleep(ctx context.Context, d time.Duration)
}

// DelayFunc adapts a function to a Delayer.
type DelayFunc func(ctx context.Context, d time.Duration)

// Sleep implements Delayer.
func (f DelayFunc) Sleep(ctx context.Context, d time.Duration) { f(ctx, d) }

// TimerDelayer sleeps on a runtime timer.
var TimerDelayer Delayer = DelayFunc(Sleep)

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
