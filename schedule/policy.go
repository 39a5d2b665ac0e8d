package schedule

import (
	"fmt"

	"github.com/DataDog/datadog-profiling-agent/config"
	"github.com/DataDog/datadog-profiling-agent/metrics"
	"github.com/DataDog/datadog-profiling-agent/watchdog"
)

// NewPolicy builds the policy named by conf.Policy, starting from the given
// tunables and refreshing them from settings.
func NewPolicy(conf *config.AgentConfig, settings config.SettingsSource, initial config.Tunables, stats metrics.StatsClient) (Policy, error) {
	var (
		source watchdog.ResourceSource
		err    error
	)
	switch conf.Policy {
	case config.PolicyTriggerOnce:
		return NewTriggerOnce(initial, stats), nil
	case config.PolicyMemory:
		source, err = watchdog.NewMemorySource()
	case config.PolicyCPU:
		source, err = watchdog.NewCPUSource()
	case config.PolicyHeap:
		source, err = watchdog.NewHeapSource()
	default:
		return nil, fmt.Errorf("unknown policy %q", conf.Policy)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot watch %s usage: %w", conf.Policy, err)
	}
	return NewResourceThreshold(conf.Policy, source, settings, initial, expirationFor(conf), stats), nil
}

func expirationFor(conf *config.AgentConfig) Expiration {
	var exps []Expiration
	if conf.MaxCaptures > 0 {
		exps = append(exps, Count(conf.MaxCaptures))
	}
	if conf.MaxRuntime > 0 {
		exps = append(exps, Elapsed(conf.MaxRuntime))
	}
	return Any(exps...)
}
