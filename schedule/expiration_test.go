package schedule

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCount(t *testing.T) {
	assert := assert.New(t)

	e := Count(3)
	for i := 0; i < 3; i++ {
		assert.False(e.Expired())
		assert.True(e.Consume())
	}
	assert.True(e.Expired())
	assert.False(e.Consume())
	assert.True(e.Expired())

	assert.True(Count(0).Expired())
	assert.False(Count(-1).Consume())
}

func TestCountConcurrent(t *testing.T) {
	e := Count(10)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if e.Consume() {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, granted)
	assert.True(t, e.Expired())
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestElapsed(t *testing.T) {
	assert := assert.New(t)

	clock := &fakeClock{now: time.Unix(1000, 0)}
	e := newElapsed(time.Minute, clock.Now)
	assert.False(e.Expired())
	assert.True(e.Consume())

	clock.Advance(time.Minute)
	assert.False(e.Expired(), "expires only once more than the duration elapsed")

	clock.Advance(time.Millisecond)
	assert.True(e.Expired())
	assert.False(e.Consume())

	// time going backwards does not revive it
	clock.Advance(-time.Hour)
	assert.True(e.Expired())
}

func TestAny(t *testing.T) {
	assert := assert.New(t)

	assert.False(Any().Expired())
	assert.True(Any(nil, nil).Consume())

	clock := &fakeClock{now: time.Unix(1000, 0)}
	e := Any(Count(2), newElapsed(time.Minute, clock.Now))
	assert.True(e.Consume())
	clock.Advance(2 * time.Minute)
	assert.True(e.Expired(), "elapsed part expired")
	assert.False(e.Consume())

	e = Any(Count(1), newElapsed(time.Hour, clock.Now))
	assert.True(e.Consume())
	assert.True(e.Expired(), "count part expired")
}
