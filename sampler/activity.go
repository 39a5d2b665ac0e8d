// Package sampler reduces the completed operations seen during a capture to a
// small reproducible sample set.
//
// Observations are grouped by operation name, then stratified by duration into
// exponential buckets (see BucketIndex). Each bucket keeps one representative:
// the observation whose identity hashes to the smallest value. Since the hash
// only depends on the identity, the final set does not depend on the order or
// the concurrency of insertions.
package sampler

import (
	"sort"
	"strings"
	"sync"
)

// ActivityContainer maps operation names to their Bucketer. A new container is
// used for every capture session.
type ActivityContainer struct {
	precision float64
	minimum   float64

	mu        sync.RWMutex
	bucketers map[string]*Bucketer
}

// NewActivityContainer returns an empty container whose bucketers use the
// given precision and minimum duration in milliseconds.
func NewActivityContainer(precision, minimumMillis float64) *ActivityContainer {
	return &ActivityContainer{
		precision: precision,
		minimum:   minimumMillis,
		bucketers: make(map[string]*Bucketer),
	}
}

// Add records a completed operation. It is safe for concurrent use.
func (c *ActivityContainer) Add(obs SampleObservation) {
	c.bucketer(obs.OperationName).Add(obs.DurationMillis(), obs)
}

func (c *ActivityContainer) bucketer(name string) *Bucketer {
	key := strings.ToLower(name)

	c.mu.RLock()
	b, ok := c.bucketers[key]
	c.mu.RUnlock()
	if ok {
		return b
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok = c.bucketers[key]; !ok {
		b = NewBucketer(c.precision, c.minimum)
		c.bucketers[key] = b
	}
	return b
}

// Operations returns the number of distinct operation names seen.
func (c *ActivityContainer) Operations() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bucketers)
}

// GetActivities flattens the container into one observation per occupied
// (operation, bucket) pair, ordered by operation then bucket index.
func (c *ActivityContainer) GetActivities() []SampleObservation {
	c.mu.RLock()
	keys := make([]string, 0, len(c.bucketers))
	for k := range c.bucketers {
		keys = append(keys, k)
	}
	bucketers := make([]*Bucketer, len(keys))
	sort.Strings(keys)
	for i, k := range keys {
		bucketers[i] = c.bucketers[k]
	}
	c.mu.RUnlock()

	var out []SampleObservation
	for _, b := range bucketers {
		b.Each(func(_ int, obs SampleObservation) {
			out = append(out, obs)
		})
	}
	return out
}
