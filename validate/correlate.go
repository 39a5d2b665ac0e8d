package validate

import (
	"context"

	log "github.com/cihub/seelog"

	"github.com/DataDog/datadog-profiling-agent/metrics"
	"github.com/DataDog/datadog-profiling-agent/sampler"
)

// ActivityCorrelator keeps the samples whose start marker and then stop marker
// are both present in the trace.
type ActivityCorrelator struct {
	Stats metrics.StatsClient
}

// Name implements Validator.
func (ActivityCorrelator) Name() string { return "activity_correlator" }

type pending struct {
	i       int
	started bool
}

// Validate implements Validator.
func (v ActivityCorrelator) Validate(ctx context.Context, t *Trace, samples []sampler.SampleObservation) ([]sampler.SampleObservation, error) {
	if len(samples) == 0 {
		return nil, &ValidationError{Validator: v.Name(), Message: "no samples to validate", StopUploading: true}
	}
	if t.Index == nil {
		return nil, &ValidationError{Validator: v.Name(), Message: "trace was not indexed", StopUploading: true}
	}

	starts := make(map[string][]*pending, len(samples))
	stops := make(map[string][]*pending, len(samples))
	for i, s := range samples {
		p := &pending{i: i}
		starts[s.StartKey] = append(starts[s.StartKey], p)
		stops[s.StopKey] = append(stops[s.StopKey], p)
	}

	matched := make([]bool, len(samples))
	remaining := len(samples)
	for n, m := range t.Index.Markers {
		if remaining == 0 {
			break
		}
		if n%4096 == 0 && ctx.Err() != nil {
			return nil, &ValidationError{Validator: v.Name(), Message: "interrupted", Cause: ctx.Err(), StopUploading: true}
		}
		switch m.Kind {
		case StartMarker:
			for _, p := range starts[m.Key] {
				p.started = true
			}
			delete(starts, m.Key)
		case StopMarker:
			waiting := stops[m.Key]
			if len(waiting) == 0 {
				continue
			}
			// a stop seen before its start does not validate the sample
			kept := waiting[:0]
			for _, p := range waiting {
				if p.started {
					matched[p.i] = true
					remaining--
					continue
				}
				kept = append(kept, p)
			}
			if len(kept) == 0 {
				delete(stops, m.Key)
			} else {
				stops[m.Key] = kept
			}
		}
	}

	validated := make([]sampler.SampleObservation, 0, len(samples)-remaining)
	for i, ok := range matched {
		if ok {
			validated = append(validated, samples[i])
		}
	}
	if len(validated) == 0 {
		return nil, &ValidationError{Validator: v.Name(), Message: "no sample found in the trace", StopUploading: true}
	}
	if missing := len(samples) - len(validated); missing > 0 {
		log.Warnf("%s: %d of %d samples not found in %s", v.Name(), missing, len(samples), t.Path)
		metrics.OrNoop(v.Stats).Count("datadog.profiling.validation.missing_samples", int64(missing), nil, 1)
	}
	return validated, nil
}
