package validate

import (
	"context"
	"strings"

	log "github.com/cihub/seelog"

	"github.com/DataDog/datadog-profiling-agent/metrics"
	"github.com/DataDog/datadog-profiling-agent/sampler"
)

// Chain runs validators in order. It is immutable once built.
type Chain struct {
	validators []Validator
}

// NewChain returns a chain running validators in the given order.
func NewChain(validators ...Validator) *Chain {
	return &Chain{validators: append([]Validator(nil), validators...)}
}

// DefaultChain indexes the trace then correlates the samples with it.
func DefaultChain(stats metrics.StatsClient) *Chain {
	return NewChain(TraceIndexer{}, ActivityCorrelator{Stats: stats})
}

// Names returns the names of the validators, in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.validators))
	for i, v := range c.validators {
		names[i] = v.Name()
	}
	return names
}

func (c *Chain) String() string {
	return strings.Join(c.Names(), " -> ")
}

// Run validates samples against the trace at path. It stops at the first
// error and returns it as is; the returned Result is then not valid, holds no
// samples, and the caller decides from the error whether the trace may still
// be handed off.
func (c *Chain) Run(ctx context.Context, path string, samples []sampler.SampleObservation) (Result, error) {
	t := &Trace{Path: path}
	cur := samples
	for _, v := range c.validators {
		next, err := v.Validate(ctx, t, cur)
		if err != nil {
			log.Debugf("validation of %s stopped at %s: %v", path, v.Name(), err)
			return Result{TracePath: path}, err
		}
		cur = next
	}
	return Result{TracePath: path, Samples: cur, IsTraceValid: true}, nil
}
