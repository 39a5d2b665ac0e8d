package config

import (
	"errors"
	"time"
)

// Tunables contains the settings which may change while the agent runs. It is
// always replaced as a whole, never field by field.
type Tunables struct {
	// Enabled turns captures on or off for the whole agent.
	Enabled bool
	// PolicyEnabled turns the trigger of the running policy on or off.
	PolicyEnabled bool
	// CaptureDuration is how long a capture stays active.
	CaptureDuration time.Duration
	// Cooldown is the quiet period following a capture before the trigger may fire again.
	Cooldown time.Duration
	// PollingInterval is the delay between two evaluations which did not trigger.
	PollingInterval time.Duration
	// RefreshInterval is the cadence at which settings are fetched again.
	RefreshInterval time.Duration
	// Threshold is the resource usage above which a capture starts.
	Threshold float64
}

// DefaultTunables returns the tunables used when no settings source answers.
func DefaultTunables() Tunables {
	return Tunables{
		Enabled:         true,
		PolicyEnabled:   true,
		CaptureDuration: 30 * time.Second,
		Cooldown:        5 * time.Minute,
		PollingInterval: 10 * time.Second,
		RefreshInterval: time.Minute,
		Threshold:       0.8,
	}
}

// Validate checks that the durations make sense for a schedule.
func (t Tunables) Validate() error {
	if t.CaptureDuration <= 0 {
		return errors.New("capture duration must be positive")
	}
	if t.PollingInterval <= 0 {
		return errors.New("polling interval must be positive")
	}
	if t.RefreshInterval <= 0 {
		return errors.New("refresh interval must be positive")
	}
	if t.Cooldown < 0 {
		return errors.New("cooldown can not be negative")
	}
	return nil
}
