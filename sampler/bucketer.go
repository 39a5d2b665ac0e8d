package sampler

import (
	"math"
	"sync"
	"sync/atomic"
)

const (
	// DefaultPrecision gives buckets roughly 10% wide.
	DefaultPrecision = 0.1
	// DefaultMinimumValue is the upper bound of bucket 0, in the unit of the
	// values added (milliseconds for the container).
	DefaultMinimumValue = 1.0
	// MinPrecision keeps the number of buckets per operation bounded.
	MinPrecision = 1e-3

	// minGrowth is the headroom added whenever the bucket window grows.
	minGrowth = 8
)

// BucketIndex returns the bucket a value falls in for the given precision and
// minimum value. It is monotonic non-decreasing in value. Values which are not
// finite fall in bucket 0.
func BucketIndex(value, precision, minimum float64) int {
	if value <= minimum || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return int(math.Floor(math.Log(value/minimum) / math.Log1p(precision)))
}

// bucket holds the current representative of one index.
type bucket struct {
	rep atomic.Pointer[candidate]
}

// offer installs c if it beats the current representative.
func (b *bucket) offer(c *candidate) {
	for {
		cur := b.rep.Load()
		if !c.beats(cur) {
			return
		}
		if b.rep.CompareAndSwap(cur, c) {
			return
		}
	}
}

// window is an immutable view of the bucket array. Growth replaces the whole
// window, so a reader holding one never sees a partial resize.
type window struct {
	offset  int
	buckets []*bucket
}

func (w *window) slot(index int) *bucket {
	if w == nil {
		return nil
	}
	i := index - w.offset
	if i < 0 || i >= len(w.buckets) {
		return nil
	}
	return w.buckets[i]
}

// Bucketer keeps one representative observation per exponential value bucket.
// It is safe for concurrent use; the result does not depend on insertion order.
type Bucketer struct {
	precision float64
	minimum   float64

	// growMu serializes window replacement only.
	growMu sync.Mutex
	win    atomic.Pointer[window]
}

// NewBucketer returns a Bucketer. Out of range arguments fall back to
// DefaultPrecision and DefaultMinimumValue.
func NewBucketer(precision, minimum float64) *Bucketer {
	if precision < MinPrecision || precision >= 1 {
		precision = DefaultPrecision
	}
	if minimum <= 0 {
		minimum = DefaultMinimumValue
	}
	return &Bucketer{precision: precision, minimum: minimum}
}

// Index returns the bucket index of value for this Bucketer.
func (b *Bucketer) Index(value float64) int {
	return BucketIndex(value, b.precision, b.minimum)
}

// Add offers obs as the representative of the bucket value falls in.
func (b *Bucketer) Add(value float64, obs SampleObservation) {
	index := b.Index(value)
	c := newCandidate(obs)

	if s := b.win.Load().slot(index); s != nil {
		s.offer(c)
		return
	}
	b.ensure(index).offer(c)
}

// ensure returns the bucket for index, growing the window if needed.
func (b *Bucketer) ensure(index int) *bucket {
	b.growMu.Lock()
	defer b.growMu.Unlock()

	w := b.win.Load()
	if s := w.slot(index); s != nil {
		return s
	}

	var nw *window
	switch {
	case w == nil:
		nw = &window{offset: index, buckets: make([]*bucket, minGrowth)}
	case index < w.offset:
		headroom := max(len(w.buckets), minGrowth)
		offset := max(index-headroom, 0)
		buckets := make([]*bucket, w.offset-offset+len(w.buckets))
		copy(buckets[w.offset-offset:], w.buckets)
		nw = &window{offset: offset, buckets: buckets}
	case index >= w.offset+len(w.buckets):
		size := max(2*len(w.buckets), index-w.offset+1+minGrowth)
		buckets := make([]*bucket, size)
		copy(buckets, w.buckets)
		nw = &window{offset: w.offset, buckets: buckets}
	default:
		// in range but never used
		nw = &window{offset: w.offset, buckets: append([]*bucket(nil), w.buckets...)}
	}

	s := &bucket{}
	nw.buckets[index-nw.offset] = s
	b.win.Store(nw)
	return s
}

// Len returns the number of occupied buckets.
func (b *Bucketer) Len() int {
	n := 0
	b.Each(func(int, SampleObservation) { n++ })
	return n
}

// Each calls fn for every occupied bucket in increasing index order, on a
// stable snapshot of the window.
func (b *Bucketer) Each(fn func(index int, obs SampleObservation)) {
	w := b.win.Load()
	if w == nil {
		return
	}
	for i, s := range w.buckets {
		if s == nil {
			continue
		}
		if c := s.rep.Load(); c != nil {
			fn(w.offset+i, c.obs)
		}
	}
}
