package watchdog

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDuration = time.Second
)

func TestCPULow(t *testing.T) {
	assert := assert.New(t)

	pi, err := NewProcessInfo()
	require.NoError(t, err)

	time.Sleep(testDuration)
	c, err := pi.CPU()
	assert.NoError(err)
	t.Logf("CPU (sleep): %v", c)

	// checking that CPU is low enough, this is theorically flaky,
	// but eating 50% of CPU for a time.Sleep is still not likely to happen often
	assert.Condition(func() bool { return c.UserAvg >= 0.0 }, "cpu avg should be positive")
	assert.Condition(func() bool { return c.UserAvg <= 0.5 }, "cpu avg should be below 0.5")
}

func TestCPUHigh(t *testing.T) {
	if testing.Short() {
		t.Skip("burns a core for a second")
	}
	assert := assert.New(t)

	pi, err := NewProcessInfo()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		j := 0
		for {
			select {
			case <-done:
				return
			default:
				j++
			}
		}
	}()
	time.Sleep(testDuration)
	c, err := pi.CPU()
	close(done)
	assert.NoError(err)
	t.Logf("CPU (1 goroutine): %v", c)

	assert.Condition(func() bool { return c.UserAvg >= 0.5 }, "cpu avg is too low")
	assert.Condition(func() bool { return c.UserAvg <= 2 }, "cpu avg is too high")
}

func TestMemLow(t *testing.T) {
	assert := assert.New(t)

	pi, err := NewProcessInfo()
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	m := pi.Mem()
	assert.True(m.Alloc > 0)
	assert.True(m.AllocPerSec >= 0)
}

func TestMemorySource(t *testing.T) {
	assert := assert.New(t)

	s, err := NewMemorySource()
	require.NoError(t, err)
	usage, err := s.AverageUsage()
	assert.NoError(err)
	assert.True(usage > 0 && usage < 1, "usage %v out of range", usage)
}

func TestMemorySourceErrors(t *testing.T) {
	assert := assert.New(t)

	s := &MemorySource{
		rss:   func() (uint64, error) { return 0, errors.New("no /proc") },
		total: func() (uint64, error) { return 1 << 30, nil },
	}
	_, err := s.AverageUsage()
	assert.Error(err)

	s.total = func() (uint64, error) { return 0, nil }
	_, err = s.AverageUsage()
	assert.Error(err)

	s.rss = func() (uint64, error) { return 1 << 29, nil }
	s.total = func() (uint64, error) { return 1 << 30, nil }
	usage, err := s.AverageUsage()
	assert.NoError(err)
	assert.Equal(0.5, usage)
}

func TestCPUSource(t *testing.T) {
	s, err := NewCPUSource()
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	usage, err := s.AverageUsage()
	assert.NoError(t, err)
	assert.True(t, usage >= 0)
}

func TestHeapSource(t *testing.T) {
	assert := assert.New(t)

	s, err := NewHeapSource()
	require.NoError(t, err)
	usage, err := s.AverageUsage()
	assert.NoError(err)
	assert.True(usage > 0 && usage < 1, "usage %v out of range", usage)

	s.total = func() (uint64, error) { return 0, nil }
	_, err = s.AverageUsage()
	assert.Error(err)

	s.total = func() (uint64, error) { return 1 << 62, nil }
	usage, err = s.AverageUsage()
	assert.NoError(err)
	assert.True(usage > 0 && usage < 1e-6, "usage %v out of range", usage)
}
