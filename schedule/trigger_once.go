package schedule

import (
	"context"

	log "github.com/cihub/seelog"

	"github.com/DataDog/datadog-profiling-agent/config"
	"github.com/DataDog/datadog-profiling-agent/metrics"
)

// TriggerOnce captures once, as soon as it is first evaluated, then expires.
type TriggerOnce struct {
	tunables *tunablesHolder
	exp      Expiration
	stats    metrics.StatsClient
}

// NewTriggerOnce returns a TriggerOnce policy. Its tunables are never refreshed.
func NewTriggerOnce(t config.Tunables, stats metrics.StatsClient) *TriggerOnce {
	return &TriggerOnce{
		tunables: newTunablesHolder(t),
		exp:      Count(1),
		stats:    metrics.OrNoop(stats),
	}
}

// Name implements Policy.
func (p *TriggerOnce) Name() string { return config.PolicyTriggerOnce }

// GetSchedule implements Policy.
func (p *TriggerOnce) GetSchedule(ctx context.Context) []Entry {
	if p.exp.Expired() {
		return nil
	}
	t := p.tunables.load()
	if !t.Enabled || !t.PolicyEnabled {
		return standby(t.PollingInterval)
	}
	if !p.exp.Consume() {
		return nil
	}
	log.Infof("%s: capturing for %s", p.Name(), t.CaptureDuration)
	p.stats.Count("datadog.profiling.policy.triggered", 1, []string{"policy:" + p.Name()}, 1)
	return []Entry{
		{Duration: t.CaptureDuration, Action: StartCapture},
		{Duration: t.CaptureDuration, Action: Standby},
	}
}

// NeedsRefresh implements Policy. A one-shot capture has nothing to refresh.
func (p *TriggerOnce) NeedsRefresh(context.Context) bool { return false }

// Tunables implements Policy.
func (p *TriggerOnce) Tunables() config.Tunables { return p.tunables.load() }

// Expired implements Policy.
func (p *TriggerOnce) Expired() bool { return p.exp.Expired() }
