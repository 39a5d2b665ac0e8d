// Package agent runs a scheduling policy against the execution tracer. It
// owns the capture session, collects the operations completed while a capture
// is active and, once it stops, validates the trace and hands it off.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/cihub/seelog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/DataDog/datadog-profiling-agent/capture"
	"github.com/DataDog/datadog-profiling-agent/config"
	"github.com/DataDog/datadog-profiling-agent/info"
	"github.com/DataDog/datadog-profiling-agent/metrics"
	"github.com/DataDog/datadog-profiling-agent/sampler"
	"github.com/DataDog/datadog-profiling-agent/schedule"
	"github.com/DataDog/datadog-profiling-agent/uploader"
	"github.com/DataDog/datadog-profiling-agent/validate"
	"github.com/DataDog/datadog-profiling-agent/watchdog"
)

// session is an active capture and the samples collected during it.
type session struct {
	capture *capture.Session
	samples *sampler.ActivityContainer
}

// Agent struct holds the components driven by the scheduling loop
type Agent struct {
	Policy   schedule.Policy
	Capturer capture.Capturer
	Chain    *validate.Chain
	Handoff  uploader.Handoff
	Delayer  schedule.Delayer

	conf   *config.AgentConfig
	budget *rate.Limiter
	stats  metrics.StatsClient
	tags   []string
	now    func() time.Time

	// mu serializes capture starts and stops, current is read without it
	mu      sync.Mutex
	current atomic.Pointer[session]

	finalizing sync.WaitGroup
	counters   counters
}

type counters struct {
	captures           atomic.Int64
	refused            atomic.Int64
	captureErrors      atomic.Int64
	observations       atomic.Int64
	early              atomic.Int64
	handoffs           atomic.Int64
	validationFailures atomic.Int64
}

// New returns an Agent running policy. Captures are validated with the default
// chain and the delays between schedule entries are real.
func New(conf *config.AgentConfig, policy schedule.Policy, capturer capture.Capturer, handoff uploader.Handoff, stats metrics.StatsClient) *Agent {
	stats = metrics.OrNoop(stats)
	return &Agent{
		Policy:   policy,
		Capturer: capturer,
		Chain:    validate.DefaultChain(stats),
		Handoff:  handoff,
		Delayer:  schedule.TimerDelayer,
		conf:     conf,
		budget:   newBudget(conf.MaxCapturesPerHour),
		stats:    stats,
		tags:     []string{"policy:" + policy.Name()},
		now:      time.Now,
	}
}

// newBudget allows n captures at once, then one every hour/n.
func newBudget(n int) *rate.Limiter {
	if n <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Hour/time.Duration(n)), n)
}

// Run evaluates the policy and applies its schedule until ctx is cancelled or
// the policy expires. Settings are refreshed concurrently. Before returning,
// any capture in flight is stopped and handed off.
func (a *Agent) Run(ctx context.Context) error {
	log.Infof("running %s policy", a.Policy.Name())
	a.publish()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		// an expired policy ends the refresh loop too
		defer cancel()
		a.execute(gctx)
		return nil
	})
	g.Go(func() error {
		a.refresh(gctx)
		return nil
	})
	err := g.Wait()

	// finish the last capture even though ctx is done
	if serr := a.stopCapture(context.WithoutCancel(ctx)); serr != nil {
		log.Errorf("stopping capture: %v", serr)
	}
	a.finalizing.Wait()
	a.publish()

	if err != nil {
		return err
	}
	return ctx.Err()
}

func (a *Agent) execute(ctx context.Context) {
	for ctx.Err() == nil {
		if a.Policy.Expired() {
			log.Infof("%s policy expired", a.Policy.Name())
			return
		}
		entries := a.Policy.GetSchedule(ctx)
		if len(entries) == 0 {
			if a.Policy.Expired() {
				continue
			}
			a.Delayer.Sleep(ctx, a.Policy.Tunables().PollingInterval)
			continue
		}
		for _, e := range entries {
			if ctx.Err() != nil {
				return
			}
			if err := a.apply(ctx, e); err != nil {
				log.Errorf("%s: %v", e.Action, err)
			}
			a.publish()
			a.Delayer.Sleep(ctx, e.Duration)
		}
	}
}

// apply executes one schedule entry. A panic is logged and reported as an
// error, it does not stop the loop.
func (a *Agent) apply(ctx context.Context, e schedule.Entry) (err error) {
	defer watchdog.RecoverAndLog(&err)

	switch e.Action {
	case schedule.StartCapture:
		return a.startCapture()
	case schedule.Standby:
		return a.stopCapture(ctx)
	}
	return fmt.Errorf("unknown action %v", e.Action)
}

func (a *Agent) refresh(ctx context.Context) {
	interval := a.Policy.Tunables().RefreshInterval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !a.Policy.NeedsRefresh(ctx) {
				continue
			}
			a.publish()
			if ri := a.Policy.Tunables().RefreshInterval; ri > 0 && ri != interval {
				interval = ri
				ticker.Reset(ri)
			}
		}
	}
}

func (a *Agent) startCapture() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current.Load() != nil {
		log.Debug("capture already active")
		return nil
	}
	if !a.budget.AllowN(a.now(), 1) {
		a.counters.refused.Add(1)
		a.stats.Count("datadog.profiling.capture.refused", 1, a.tags, 1)
		log.Warnf("capture budget of %d per hour exhausted, skipping capture", a.conf.MaxCapturesPerHour)
		return nil
	}

	cs, err := a.Capturer.Start(capture.TracePath(a.conf.OutputDir, a.now()))
	if err != nil {
		a.counters.captureErrors.Add(1)
		a.stats.Count("datadog.profiling.capture.errors", 1, a.tags, 1)
		return err
	}
	a.current.Store(&session{
		capture: cs,
		samples: sampler.NewActivityContainer(a.conf.BucketPrecision, a.conf.BucketMinimumMillis),
	})
	a.counters.captures.Add(1)
	a.stats.Count("datadog.profiling.capture.started", 1, a.tags, 1)
	log.Infof("capture %s started", cs.ID)
	return nil
}

// stopCapture stops the active capture, if any, and finalizes it in the
// background.
func (a *Agent) stopCapture(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.current.Swap(nil)
	if s == nil {
		return nil
	}
	if err := a.Capturer.Stop(s.capture); err != nil {
		a.counters.captureErrors.Add(1)
		a.stats.Count("datadog.profiling.capture.errors", 1, a.tags, 1)
		return err
	}
	a.stats.Histogram("datadog.profiling.capture.duration", time.Since(s.capture.Started).Seconds(), a.tags, 1)

	a.finalizing.Add(1)
	go func() {
		defer a.finalizing.Done()
		if err := a.finalize(context.WithoutCancel(ctx), s); err != nil {
			log.Warnf("trace %s not handed off: %v", s.capture.Path, err)
		}
		a.publish()
	}()
	return nil
}

// finalize validates the samples of a stopped capture and hands the trace
// off. A validation error which does not stop the upload still lets the trace
// through, marked invalid.
func (a *Agent) finalize(ctx context.Context, s *session) (err error) {
	defer watchdog.RecoverAndLog(&err)

	candidates := s.samples.GetActivities()
	a.stats.Histogram("datadog.profiling.validation.candidates", float64(len(candidates)), a.tags, 1)

	res, err := a.Chain.Run(ctx, s.capture.Path, candidates)
	vi := info.ValidationInfo{
		TracePath:  s.capture.Path,
		Candidates: len(candidates),
		Samples:    len(res.Samples),
		Valid:      res.IsTraceValid,
		Time:       a.now(),
	}
	if err != nil {
		a.counters.validationFailures.Add(1)
		a.stats.Count("datadog.profiling.validation.failures", 1, a.tags, 1)
		vi.Error = err.Error()

		var verr *validate.ValidationError
		if !errors.As(err, &verr) || verr.StopUploading {
			vi.StopUploading = true
			info.UpdateValidationInfo(vi)
			return err
		}
		log.Warnf("uploading %s despite validation error: %v", s.capture.Path, err)
	}
	info.UpdateValidationInfo(vi)

	if a.Handoff == nil {
		return nil
	}
	err = a.Handoff.Submit(ctx, uploader.Artifact{
		TracePath: res.TracePath,
		Samples:   res.Samples,
		Valid:     res.IsTraceValid,
		Created:   a.now(),
	})
	if err != nil {
		return err
	}
	a.counters.handoffs.Add(1)
	return nil
}

// Record adds a completed operation to the active capture. It reports false,
// and drops obs, when no capture is active or when obs started before the
// capture: its start marker is not in the trace.
func (a *Agent) Record(obs sampler.SampleObservation) bool {
	s := a.current.Load()
	if s == nil {
		return false
	}
	if obs.Start.Before(s.capture.Started) {
		a.counters.early.Add(1)
		a.stats.Count("datadog.profiling.observations.early", 1, a.tags, 1)
		return false
	}
	s.samples.Add(obs)
	a.counters.observations.Add(1)
	return true
}

// StartOperation instruments an operation. The returned function ends it and
// records it with the active capture, if any.
func (a *Agent) StartOperation(ctx context.Context, name, requestID string) (context.Context, func()) {
	ctx, op := capture.StartOperation(ctx, name, requestID)
	return ctx, func() { a.Record(op.End()) }
}

// Capturing reports whether a capture is active.
func (a *Agent) Capturing() bool {
	return a.current.Load() != nil
}

// Stats returns the counters of the agent.
func (a *Agent) Stats() info.CaptureStats {
	return info.CaptureStats{
		Captures:           a.counters.captures.Load(),
		CapturesRefused:    a.counters.refused.Load(),
		CaptureErrors:      a.counters.captureErrors.Load(),
		Observations:       a.counters.observations.Load(),
		EarlyObservations:  a.counters.early.Load(),
		Handoffs:           a.counters.handoffs.Load(),
		ValidationFailures: a.counters.validationFailures.Load(),
		Active:             a.Capturing(),
	}
}

func (a *Agent) publish() {
	info.UpdatePolicyInfo(info.PolicyInfo{
		Name:     a.Policy.Name(),
		Tunables: a.Policy.Tunables(),
		Expired:  a.Policy.Expired(),
	})
	info.UpdateCaptureStats(a.Stats())
}
