// Package validate checks the samples selected during a capture against the
// trace file the capture produced, before the trace is handed off.
package validate

import (
	"context"
	"fmt"

	"github.com/DataDog/datadog-profiling-agent/sampler"
)

// ValidationError is returned by validators. StopUploading tells the caller
// the trace must not be handed off at all.
type ValidationError struct {
	Validator     string
	Message       string
	Cause         error
	StopUploading bool
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Validator, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Validator, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// Trace is the trace under validation. Index is filled by the TraceIndexer.
type Trace struct {
	Path  string
	Index *Index
}

// Validator is one stage of a Chain. It receives the samples returned by the
// previous stage and returns those it keeps.
type Validator interface {
	Name() string
	Validate(ctx context.Context, t *Trace, samples []sampler.SampleObservation) ([]sampler.SampleObservation, error)
}

// Result is the outcome of a Chain run.
type Result struct {
	TracePath    string
	Samples      []sampler.SampleObservation
	IsTraceValid bool
}
