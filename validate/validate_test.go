package validate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/datadog-profiling-agent/capture"
	"github.com/DataDog/datadog-profiling-agent/sampler"
)

// staticIndexer installs a prebuilt index instead of reading the trace file.
type staticIndexer struct {
	markers []Marker
}

func (staticIndexer) Name() string { return "static_indexer" }

func (v staticIndexer) Validate(_ context.Context, t *Trace, samples []sampler.SampleObservation) ([]sampler.SampleObservation, error) {
	t.Index = NewIndex(v.markers)
	return samples, nil
}

type failingValidator struct {
	err   error
	calls int
}

func (*failingValidator) Name() string { return "failing" }

func (v *failingValidator) Validate(context.Context, *Trace, []sampler.SampleObservation) ([]sampler.SampleObservation, error) {
	v.calls++
	return nil, v.err
}

func testSample(id string) sampler.SampleObservation {
	return sampler.SampleObservation{
		OperationName: "query",
		OperationID:   id,
		StartKey:      capture.StartKey(id),
		StopKey:       capture.StopKey(id),
		Duration:      time.Millisecond,
	}
}

func markersFor(ids ...string) []Marker {
	var ms []Marker
	for i, id := range ids {
		ms = append(ms,
			Marker{Kind: StartMarker, Key: capture.StartKey(id), Time: int64(2 * i)},
			Marker{Kind: StopMarker, Key: capture.StopKey(id), Time: int64(2*i + 1)},
		)
	}
	return ms
}

func TestChainScenarios(t *testing.T) {
	type testCase struct {
		samples  []sampler.SampleObservation
		markers  []Marker
		expected []sampler.SampleObservation
		stop     bool
	}
	a, b, c := testSample("a"), testSample("b"), testSample("c")

	for name, tc := range map[string]testCase{
		"empty": {
			samples: nil,
			markers: markersFor("a"),
			stop:    true,
		},
		"no-match": {
			samples: []sampler.SampleObservation{a, b},
			markers: markersFor("x", "y"),
			stop:    true,
		},
		"all": {
			samples:  []sampler.SampleObservation{a, b, c},
			markers:  markersFor("c", "a", "b"),
			expected: []sampler.SampleObservation{a, b, c},
		},
		"partial": {
			samples:  []sampler.SampleObservation{a, b, c},
			markers:  markersFor("a", "c"),
			expected: []sampler.SampleObservation{a, c},
		},
	} {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			chain := NewChain(staticIndexer{markers: tc.markers}, ActivityCorrelator{})

			res, err := chain.Run(context.Background(), "/traces/t.out", tc.samples)
			assert.Equal("/traces/t.out", res.TracePath)
			if tc.stop {
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.True(verr.StopUploading)
				assert.Equal("activity_correlator", verr.Validator)
				assert.False(res.IsTraceValid)
				return
			}
			assert.NoError(err)
			assert.True(res.IsTraceValid)
			assert.Equal(tc.expected, res.Samples)
		})
	}
}

func TestCorrelatorOrdering(t *testing.T) {
	assert := assert.New(t)
	a, b := testSample("a"), testSample("b")

	// b stops before it starts, only a is validated
	markers := []Marker{
		{Kind: StopMarker, Key: b.StopKey},
		{Kind: StartMarker, Key: a.StartKey},
		{Kind: StartMarker, Key: b.StartKey},
		{Kind: StopMarker, Key: a.StopKey},
	}
	got, err := ActivityCorrelator{}.Validate(context.Background(), &Trace{Index: NewIndex(markers)}, []sampler.SampleObservation{a, b})
	assert.NoError(err)
	assert.Equal([]sampler.SampleObservation{a}, got)

	// markers of other operations are ignored
	markers = append(markersFor("x"), markersFor("b")...)
	got, err = ActivityCorrelator{}.Validate(context.Background(), &Trace{Index: NewIndex(markers)}, []sampler.SampleObservation{b})
	assert.NoError(err)
	assert.Equal([]sampler.SampleObservation{b}, got)
}

func TestCorrelatorSharedKeys(t *testing.T) {
	assert := assert.New(t)

	// two operations logged under the same keys, both present in the trace
	a, b := testSample("a"), testSample("a")
	b.OperationID = "b"
	markers := append(markersFor("a"), markersFor("a")...)

	got, err := ActivityCorrelator{}.Validate(context.Background(), &Trace{Index: NewIndex(markers)}, []sampler.SampleObservation{a, b})
	assert.NoError(err)
	assert.Equal([]sampler.SampleObservation{a, b}, got)

	// a stop before any start leaves both waiting for a later stop
	markers = []Marker{
		{Kind: StopMarker, Key: a.StopKey},
		{Kind: StartMarker, Key: a.StartKey},
		{Kind: StopMarker, Key: a.StopKey},
	}
	got, err = ActivityCorrelator{}.Validate(context.Background(), &Trace{Index: NewIndex(markers)}, []sampler.SampleObservation{a, b})
	assert.NoError(err)
	assert.Equal([]sampler.SampleObservation{a, b}, got)
}

func TestCorrelatorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ActivityCorrelator{}.Validate(ctx, &Trace{Index: NewIndex(markersFor("a"))}, []sampler.SampleObservation{testSample("a")})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.StopUploading)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCorrelatorNotIndexed(t *testing.T) {
	_, err := ActivityCorrelator{}.Validate(context.Background(), &Trace{}, []sampler.SampleObservation{testSample("a")})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.StopUploading)
}

func TestChainAbortsOnFirstError(t *testing.T) {
	assert := assert.New(t)

	cause := errors.New("disk gone")
	first := &failingValidator{err: &ValidationError{Validator: "failing", Message: "boom", Cause: cause}}
	second := &failingValidator{err: errors.New("never returned")}
	chain := NewChain(first, second)

	res, err := chain.Run(context.Background(), "t.out", []sampler.SampleObservation{testSample("a")})
	assert.Equal(first.err, err, "returned untouched")
	assert.True(errors.Is(err, cause))
	assert.Equal(1, first.calls)
	assert.Equal(0, second.calls)
	assert.False(res.IsTraceValid)
	assert.Empty(res.Samples, "unvalidated samples are not returned")
}

func TestChainImmutable(t *testing.T) {
	vs := []Validator{TraceIndexer{}, ActivityCorrelator{}}
	chain := NewChain(vs...)
	vs[0] = &failingValidator{}
	assert.Equal(t, []string{"trace_indexer", "activity_correlator"}, chain.Names())
	assert.Equal(t, "trace_indexer -> activity_correlator", chain.String())
	assert.Equal(t, chain.Names(), DefaultChain(nil).Names())
}

func TestValidationError(t *testing.T) {
	assert := assert.New(t)

	err := &ValidationError{Validator: "v", Message: "bad"}
	assert.Equal("v: bad", err.Error())
	assert.Nil(err.Unwrap())

	cause := fmt.Errorf("wrapped: %w", os.ErrNotExist)
	err = &ValidationError{Validator: "v", Message: "bad", Cause: cause}
	assert.Equal("v: bad: wrapped: file does not exist", err.Error())
	assert.True(errors.Is(err, os.ErrNotExist))
}

func TestTraceIndexerErrors(t *testing.T) {
	type testCase struct {
		content []byte
		missing bool
	}
	for name, tc := range map[string]testCase{
		"missing": {missing: true},
		"corrupt": {content: []byte("definitely not a trace")},
		"empty":   {content: []byte{}},
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "trace.out")
			if !tc.missing {
				require.NoError(t, os.WriteFile(path, tc.content, 0o644))
			}
			_, err := TraceIndexer{}.Validate(context.Background(), &Trace{Path: path}, []sampler.SampleObservation{testSample("a")})
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.True(t, verr.StopUploading)
			assert.Equal(t, "trace_indexer", verr.Validator)
		})
	}
}

func TestNewIndex(t *testing.T) {
	assert := assert.New(t)

	markers := markersFor("a", "b")
	idx := NewIndex(markers)
	markers[0].Key = "changed"
	require.Len(t, idx.Markers, 4)
	assert.Equal(capture.StartKey("a"), idx.Markers[0].Key)
	assert.Equal(StopMarker, idx.Markers[3].Kind)
	assert.Equal(int64(3), idx.Markers[3].Time)
}

// TestDefaultChainRuntimeTrace validates operations recorded in a real
// runtime trace.
func TestDefaultChainRuntimeTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.out")
	rt := capture.NewRuntimeTracer()
	s, err := rt.Start(path)
	if err != nil {
		t.Skipf("tracer unavailable: %v", err)
	}

	var samples []sampler.SampleObservation
	for i := 0; i < 3; i++ {
		_, op := capture.StartOperation(context.Background(), "query", fmt.Sprintf("req-%d", i))
		samples = append(samples, op.End())
	}
	require.NoError(t, rt.Stop(s))

	// not part of the trace
	_, late := capture.StartOperation(context.Background(), "query", "late")
	samples = append(samples, late.End())

	f, err := os.Open(path)
	require.NoError(t, err)
	_, err = ReadIndex(context.Background(), f)
	f.Close()
	if err != nil {
		t.Skipf("trace format not supported by the decoder: %v", err)
	}

	res, err := DefaultChain(nil).Run(context.Background(), path, samples)
	require.NoError(t, err)
	assert.True(t, res.IsTraceValid)
	assert.Equal(t, samples[:3], res.Samples)
}
