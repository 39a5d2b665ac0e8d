package validate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	exptrace "golang.org/x/exp/trace"

	"github.com/DataDog/datadog-profiling-agent/capture"
	"github.com/DataDog/datadog-profiling-agent/sampler"
)

// MarkerKind tells start markers from stop markers.
type MarkerKind uint8

const (
	// StartMarker is logged when an operation starts.
	StartMarker MarkerKind = iota
	// StopMarker is logged when an operation stops.
	StopMarker
)

// Marker is an operation marker found in a trace.
type Marker struct {
	Kind MarkerKind
	Key  string
	// Time is the trace timestamp, in nanoseconds.
	Time int64
	Task uint64
}

// Index holds the markers of a trace in event order.
type Index struct {
	Markers []Marker
}

// NewIndex indexes markers, which must be given in event order.
func NewIndex(markers []Marker) *Index {
	return &Index{Markers: append([]Marker(nil), markers...)}
}

// TraceIndexer reads the trace file and indexes its operation markers. Any
// failure to read the trace stops the upload.
type TraceIndexer struct{}

// Name implements Validator.
func (TraceIndexer) Name() string { return "trace_indexer" }

// Validate implements Validator. Samples go through untouched.
func (v TraceIndexer) Validate(ctx context.Context, t *Trace, samples []sampler.SampleObservation) ([]sampler.SampleObservation, error) {
	f, err := os.Open(t.Path)
	if err != nil {
		return nil, &ValidationError{Validator: v.Name(), Message: "cannot open trace", Cause: err, StopUploading: true}
	}
	defer f.Close()

	idx, err := ReadIndex(ctx, f)
	if err != nil {
		return nil, &ValidationError{Validator: v.Name(), Message: "cannot read trace", Cause: err, StopUploading: true}
	}
	t.Index = idx
	return samples, nil
}

// ReadIndex decodes an execution trace from r and indexes its markers.
func ReadIndex(ctx context.Context, r io.Reader) (*Index, error) {
	tr, err := exptrace.NewReader(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}
	idx := &Index{}
	for n := 0; ; n++ {
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		ev, err := tr.ReadEvent()
		if errors.Is(err, io.EOF) {
			return idx, nil
		}
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", n, err)
		}
		if ev.Kind() != exptrace.EventLog {
			continue
		}
		l := ev.Log()
		var kind MarkerKind
		switch l.Category {
		case capture.StartCategory:
			kind = StartMarker
		case capture.StopCategory:
			kind = StopMarker
		default:
			continue
		}
		idx.Markers = append(idx.Markers, Marker{Kind: kind, Key: l.Message, Time: int64(ev.Time()), Task: uint64(l.Task)})
	}
}
