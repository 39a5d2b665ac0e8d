package uploader

//go:generate msgp -io=false -tests=false

import (
	"time"

	"github.com/DataDog/datadog-profiling-agent/sampler"
)

// Manifest describes a handed off trace. It is written next to the trace as
// <trace>.manifest, encoded with msgpack.
type Manifest struct {
	TracePath string           `msg:"trace_path"`
	Valid     bool             `msg:"valid"`
	CreatedAt int64            `msg:"created_at"` // unix nanoseconds
	Samples   []ManifestSample `msg:"samples"`
}

// ManifestSample is a validated sample of the trace.
type ManifestSample struct {
	Operation   string `msg:"operation"`
	OperationID string `msg:"operation_id"`
	RequestID   string `msg:"request_id"`
	StartKey    string `msg:"start_key"`
	StopKey     string `msg:"stop_key"`
	Start       int64  `msg:"start"`    // unix nanoseconds
	Duration    int64  `msg:"duration"` // nanoseconds
}

// NewManifest builds the manifest of an artifact.
func NewManifest(a Artifact) *Manifest {
	m := &Manifest{
		TracePath: a.TracePath,
		Valid:     a.Valid,
		CreatedAt: a.Created.UnixNano(),
		Samples:   make([]ManifestSample, 0, len(a.Samples)),
	}
	for _, s := range a.Samples {
		m.Samples = append(m.Samples, newManifestSample(s))
	}
	return m
}

func newManifestSample(s sampler.SampleObservation) ManifestSample {
	return ManifestSample{
		Operation:   s.OperationName,
		OperationID: s.OperationID,
		RequestID:   s.RequestID,
		StartKey:    s.StartKey,
		StopKey:     s.StopKey,
		Start:       s.Start.UnixNano(),
		Duration:    int64(s.Duration),
	}
}

// Observation converts the sample back.
func (s ManifestSample) Observation() sampler.SampleObservation {
	start := time.Unix(0, s.Start)
	return sampler.SampleObservation{
		OperationName: s.Operation,
		OperationID:   s.OperationID,
		RequestID:     s.RequestID,
		StartKey:      s.StartKey,
		StopKey:       s.StopKey,
		Start:         start,
		Stop:          start.Add(time.Duration(s.Duration)),
		Duration:      time.Duration(s.Duration),
	}
}
