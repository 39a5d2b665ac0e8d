package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/DataDog/datadog-profiling-agent/config"
)

type mockResource struct {
	mu    sync.Mutex
	usage float64
	err   error
	calls int
}

func (r *mockResource) AverageUsage() (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.usage, r.err
}

func (r *mockResource) set(usage float64, err error) {
	r.mu.Lock()
	r.usage, r.err = usage, err
	r.mu.Unlock()
}

type mockSettings struct {
	mu  sync.Mutex
	t   config.Tunables
	err error
}

func (s *mockSettings) Fetch(context.Context) (config.Tunables, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t, s.err
}

func (s *mockSettings) set(t config.Tunables, err error) {
	s.mu.Lock()
	s.t, s.err = t, err
	s.mu.Unlock()
}

func testTunables() config.Tunables {
	return config.Tunables{
		Enabled:         true,
		PolicyEnabled:   true,
		CaptureDuration: 5 * time.Second,
		Cooldown:        time.Minute,
		PollingInterval: 2 * time.Second,
		RefreshInterval: 10 * time.Second,
		Threshold:       0.5,
	}
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "start_capture", StartCapture.String())
	assert.Equal(t, "standby", Standby.String())
	assert.Equal(t, "action(7)", Action(7).String())
	assert.Equal(t, "(5s, start_capture)", Entry{5 * time.Second, StartCapture}.String())
}

func TestTriggerOnce(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	p := NewTriggerOnce(testTunables(), nil)
	assert.Equal("trigger_once", p.Name())
	assert.False(p.Expired())

	assert.Equal([]Entry{
		{5 * time.Second, StartCapture},
		{5 * time.Second, Standby},
	}, p.GetSchedule(ctx))
	assert.True(p.Expired())

	for i := 0; i < 3; i++ {
		entries := p.GetSchedule(ctx)
		assert.False(HasStart(entries))
		assert.Nil(entries)
	}
	assert.False(p.NeedsRefresh(ctx))
}

func TestTriggerOnceDisabled(t *testing.T) {
	assert := assert.New(t)

	tun := testTunables()
	tun.PolicyEnabled = false
	p := NewTriggerOnce(tun, nil)
	assert.Equal([]Entry{{2 * time.Second, Standby}}, p.GetSchedule(context.Background()))
	assert.False(p.Expired(), "a disabled trigger does not consume its single capture")
}

func TestResourceThresholdSchedule(t *testing.T) {
	type testCase struct {
		usage    float64
		err      error
		mutate   func(*config.Tunables)
		expected []Entry
	}
	capture := []Entry{
		{5 * time.Second, StartCapture},
		{time.Minute, Standby},
	}
	poll := []Entry{{2 * time.Second, Standby}}

	for name, tc := range map[string]testCase{
		"above":          {usage: 0.9, expected: capture},
		"equal":          {usage: 0.5, expected: poll},
		"below":          {usage: 0.1, expected: poll},
		"resource-error": {usage: 0.9, err: errors.New("no /proc"), expected: poll},
		"disabled": {
			usage:    0.9,
			mutate:   func(t *config.Tunables) { t.Enabled = false },
			expected: poll,
		},
		"policy-disabled": {
			usage:    0.9,
			mutate:   func(t *config.Tunables) { t.PolicyEnabled = false },
			expected: poll,
		},
	} {
		t.Run(name, func(t *testing.T) {
			tun := testTunables()
			if tc.mutate != nil {
				tc.mutate(&tun)
			}
			res := &mockResource{usage: tc.usage, err: tc.err}
			p := NewResourceThreshold("memory", res, nil, tun, nil, nil)
			assert.Equal(t, tc.expected, p.GetSchedule(context.Background()))
			assert.False(t, p.Expired())
		})
	}
}

func TestResourceThresholdExpiration(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	res := &mockResource{usage: 0.9}
	p := NewResourceThreshold("cpu", res, nil, testTunables(), Count(2), nil)

	assert.True(HasStart(p.GetSchedule(ctx)))
	res.set(0.1, nil)
	assert.False(HasStart(p.GetSchedule(ctx)))
	res.set(0.9, nil)
	assert.True(HasStart(p.GetSchedule(ctx)))

	assert.True(p.Expired())
	calls := res.calls
	assert.Nil(p.GetSchedule(ctx))
	assert.Equal(calls, res.calls, "an expired policy does not read its source")
}

func TestResourceThresholdRefresh(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	initial := testTunables()
	settings := &mockSettings{t: initial}
	res := &mockResource{usage: 0.6}
	p := NewResourceThreshold("memory", res, settings, initial, nil, nil)

	assert.False(p.NeedsRefresh(ctx), "same settings")
	assert.True(HasStart(p.GetSchedule(ctx)))

	raised := initial
	raised.Threshold = 0.7
	raised.CaptureDuration = 7 * time.Second
	settings.set(raised, nil)
	assert.True(p.NeedsRefresh(ctx))
	assert.Equal(raised, p.Tunables())
	assert.Equal([]Entry{{2 * time.Second, Standby}}, p.GetSchedule(ctx))

	assert.False(p.NeedsRefresh(ctx), "already applied")

	// stale settings keep the last known good value
	settings.set(config.Tunables{}, errors.New("timeout"))
	assert.False(p.NeedsRefresh(ctx))
	assert.Equal(raised, p.Tunables())

	// invalid settings are refused as a whole
	broken := raised
	broken.Threshold = 0.1
	broken.PollingInterval = 0
	settings.set(broken, nil)
	assert.False(p.NeedsRefresh(ctx))
	assert.Equal(raised, p.Tunables())
}

func TestResourceThresholdRefreshAtomic(t *testing.T) {
	ctx := context.Background()

	a := testTunables()
	b := a
	b.CaptureDuration = time.Hour
	b.Cooldown = time.Hour
	b.PollingInterval = time.Hour
	b.Threshold = 0.99

	settings := &mockSettings{t: a}
	p := NewResourceThreshold("memory", &mockResource{}, settings, a, nil, nil)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				settings.set(b, nil)
			} else {
				settings.set(a, nil)
			}
			p.NeedsRefresh(ctx)
		}
	}()
	for i := 0; i < 1000; i++ {
		got := p.Tunables()
		if got != a && got != b {
			t.Fatalf("torn tunables: %+v", got)
		}
	}
	close(stop)
	wg.Wait()
}

func TestNewPolicy(t *testing.T) {
	assert := assert.New(t)

	conf := config.NewDefaultAgentConfig()
	for _, name := range []string{config.PolicyTriggerOnce, config.PolicyMemory, config.PolicyCPU, config.PolicyHeap} {
		conf.Policy = name
		p, err := NewPolicy(conf, nil, testTunables(), nil)
		assert.NoError(err)
		assert.Equal(name, p.Name())
	}

	conf.Policy = "disk"
	_, err := NewPolicy(conf, nil, testTunables(), nil)
	assert.Error(err)
}

func TestExpirationFor(t *testing.T) {
	assert := assert.New(t)

	conf := config.NewDefaultAgentConfig()
	assert.Equal(Never(), expirationFor(conf))

	conf.MaxCaptures = 1
	e := expirationFor(conf)
	assert.True(e.Consume())
	assert.True(e.Expired())

	conf.MaxRuntime = time.Hour
	e = expirationFor(conf)
	assert.True(e.Consume())
	assert.True(e.Expired())
}

func TestSleep(t *testing.T) {
	assert := assert.New(t)

	start := time.Now()
	Sleep(context.Background(), 10*time.Millisecond)
	assert.True(time.Since(start) >= 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start = time.Now()
	TimerDelayer.Sleep(ctx, time.Hour)
	assert.True(time.Since(start) < time.Second, "returns early once cancelled")

	Sleep(context.Background(), -time.Second)
}
