package schedule

import (
	"context"

	log "github.com/cihub/seelog"

	"github.com/DataDog/datadog-profiling-agent/config"
	"github.com/DataDog/datadog-profiling-agent/metrics"
	"github.com/DataDog/datadog-profiling-agent/watchdog"
)

// ResourceThreshold captures whenever the usage of a resource goes above the
// configured threshold, then cools down.
type ResourceThreshold struct {
	name     string
	source   watchdog.ResourceSource
	settings config.SettingsSource
	tunables *tunablesHolder
	exp      Expiration
	stats    metrics.StatsClient
	tags     []string
}

// NewResourceThreshold returns a policy watching source. settings may be nil,
// in which case the tunables never change. exp may be nil for a policy which
// never expires.
func NewResourceThreshold(
	name string,
	source watchdog.ResourceSource,
	settings config.SettingsSource,
	initial config.Tunables,
	exp Expiration,
	stats metrics.StatsClient,
) *ResourceThreshold {
	if exp == nil {
		exp = Never()
	}
	return &ResourceThreshold{
		name:     name,
		source:   source,
		settings: settings,
		tunables: newTunablesHolder(initial),
		exp:      exp,
		stats:    metrics.OrNoop(stats),
		tags:     []string{"policy:" + name},
	}
}

// Name implements Policy.
func (p *ResourceThreshold) Name() string { return p.name }

// GetSchedule implements Policy.
func (p *ResourceThreshold) GetSchedule(ctx context.Context) []Entry {
	if p.exp.Expired() {
		return nil
	}
	t := p.tunables.load()
	if !t.Enabled || !t.PolicyEnabled {
		return standby(t.PollingInterval)
	}

	usage, err := p.source.AverageUsage()
	if err != nil {
		log.Warnf("%s: %v: %v", p.name, ErrResourceSignalUnavailable, err)
		p.stats.Count("datadog.profiling.policy.resource_errors", 1, p.tags, 1)
		return standby(t.PollingInterval)
	}
	p.stats.Gauge("datadog.profiling.policy.usage", usage, p.tags, 1)

	if usage <= t.Threshold {
		return standby(t.PollingInterval)
	}
	if !p.exp.Consume() {
		log.Infof("%s: expired", p.name)
		return nil
	}
	log.Infof("%s: usage %.3f above threshold %.3f, capturing for %s", p.name, usage, t.Threshold, t.CaptureDuration)
	p.stats.Count("datadog.profiling.policy.triggered", 1, p.tags, 1)
	return []Entry{
		{Duration: t.CaptureDuration, Action: StartCapture},
		{Duration: t.Cooldown, Action: Standby},
	}
}

// NeedsRefresh implements Policy. It fetches the settings and installs them
// when any field changed. On failure the current tunables stay in effect.
func (p *ResourceThreshold) NeedsRefresh(ctx context.Context) bool {
	if p.settings == nil {
		return false
	}
	fresh, err := p.settings.Fetch(ctx)
	if err == nil {
		err = fresh.Validate()
	}
	if err != nil {
		log.Warnf("%s: %v, keeping current settings: %v", p.name, ErrConfigurationStale, err)
		p.stats.Count("datadog.profiling.settings.stale", 1, p.tags, 1)
		return false
	}
	if !p.tunables.swapIfChanged(fresh) {
		return false
	}
	log.Infof("%s: settings changed: %+v", p.name, fresh)
	p.stats.Count("datadog.profiling.settings.refreshed", 1, p.tags, 1)
	return true
}

// Tunables implements Policy.
func (p *ResourceThreshold) Tunables() config.Tunables { return p.tunables.load() }

// Expired implements Policy.
func (p *ResourceThreshold) Expired() bool { return p.exp.Expired() }
