package info

import (
	"time"

	"github.com/DataDog/datadog-profiling-agent/config"
)

// PolicyInfo describes the running policy.
type PolicyInfo struct {
	Name     string
	Tunables config.Tunables
	Expired  bool
}

// CaptureStats counts what the agent did since it started.
type CaptureStats struct {
	Captures           int64
	CapturesRefused    int64 // above the hourly budget
	CaptureErrors      int64
	Observations       int64
	EarlyObservations  int64 // started before their capture, not sampled
	Handoffs           int64
	ValidationFailures int64
	Active             bool
}

// ValidationInfo describes the last validated trace.
type ValidationInfo struct {
	TracePath     string
	Candidates    int
	Samples       int
	Valid         bool
	StopUploading bool
	Error         string
	Time          time.Time
}
