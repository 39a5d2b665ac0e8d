// Package schedule contains the policies deciding when the agent captures an
// execution trace.
//
// A Policy is evaluated in a loop by its driver: every evaluation returns an
// ordered list of entries, each one an action to apply followed by a duration
// to wait before applying the next one. Policies never start or stop anything
// themselves, and they never block except to read their sources.
//
// Tunables are read from a config.SettingsSource on every refresh tick. They
// are swapped as a whole, so an evaluation always sees a consistent set.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DataDog/datadog-profiling-agent/config"
)

var (
	// ErrConfigurationStale is reported when settings could not be refreshed
	// and the last known values are kept.
	ErrConfigurationStale = errors.New("configuration stale")
	// ErrResourceSignalUnavailable is reported when the resource source
	// failed; the evaluation is then considered below threshold.
	ErrResourceSignalUnavailable = errors.New("resource signal unavailable")
)

// Action is what the driver must do when applying an Entry.
type Action int

const (
	// Standby stops any capture in flight and waits.
	Standby Action = iota
	// StartCapture starts a capture.
	StartCapture
)

func (a Action) String() string {
	switch a {
	case Standby:
		return "standby"
	case StartCapture:
		return "start_capture"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Entry is one step of a schedule: apply Action, then wait Duration.
type Entry struct {
	Duration time.Duration
	Action   Action
}

func (e Entry) String() string {
	return fmt.Sprintf("(%s, %s)", e.Duration, e.Action)
}

// Policy decides when to capture.
type Policy interface {
	// Name identifies the policy in logs and metrics.
	Name() string
	// GetSchedule evaluates the policy and returns the next entries to apply.
	// It returns nil once the policy expired.
	GetSchedule(ctx context.Context) []Entry
	// NeedsRefresh fetches the settings again and reports whether the
	// tunables changed. It is called on every refresh tick.
	NeedsRefresh(ctx context.Context) bool
	// Tunables returns the tunables currently in effect.
	Tunables() config.Tunables
	// Expired reports whether the policy reached its terminal state.
	Expired() bool
}

// HasStart reports whether entries contain a StartCapture.
func HasStart(entries []Entry) bool {
	for _, e := range entries {
		if e.Action == StartCapture {
			return true
		}
	}
	return false
}

// standby is the schedule of a policy with nothing to do for d.
func standby(d time.Duration) []Entry {
	return []Entry{{Duration: d, Action: Standby}}
}
