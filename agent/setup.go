package agent

import (
	"context"
	"fmt"
	"path/filepath"

	log "github.com/cihub/seelog"

	"github.com/DataDog/datadog-profiling-agent/capture"
	"github.com/DataDog/datadog-profiling-agent/config"
	"github.com/DataDog/datadog-profiling-agent/metrics"
	"github.com/DataDog/datadog-profiling-agent/schedule"
	"github.com/DataDog/datadog-profiling-agent/uploader"
)

// SpoolDir is the directory, under the output directory, traces are handed
// off into.
const SpoolDir = "spool"

// NewStatsClient returns the stats client selected by conf.MetricsBackend.
func NewStatsClient(conf *config.AgentConfig) (metrics.StatsClient, error) {
	switch conf.MetricsBackend {
	case config.MetricsStatsd:
		return metrics.NewStatsdClient(conf.StatsdHost, conf.StatsdPort)
	case config.MetricsPrometheus:
		return metrics.NewPrometheusClient(nil), nil
	case config.MetricsNone:
		return metrics.NoopClient{}, nil
	}
	return nil, fmt.Errorf("unknown metrics backend %q", conf.MetricsBackend)
}

// NewSettingsSource returns the settings source configured in conf, or nil
// when the settings never change. The returned function releases it.
func NewSettingsSource(conf *config.AgentConfig) (config.SettingsSource, func(), error) {
	switch {
	case conf.SettingsFile != "":
		fs, err := config.NewFileSource(conf.SettingsFile, conf.Tunables)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot watch settings file: %w", err)
		}
		return fs, func() { fs.Close() }, nil
	case conf.SettingsURL != "":
		return config.NewHTTPSource(conf.SettingsURL, conf.SettingsAPIKey, conf.SettingsCachePath, conf.Tunables), func() {}, nil
	}
	return nil, func() {}, nil
}

// NewFromConfig builds an Agent and all its components from conf. The
// returned function releases them once the agent stopped.
func NewFromConfig(ctx context.Context, conf *config.AgentConfig, stats metrics.StatsClient) (*Agent, func(), error) {
	settings, closeSettings, err := NewSettingsSource(conf)
	if err != nil {
		return nil, nil, err
	}
	initial := config.InitialTunables(ctx, settings, conf.Tunables)
	log.Debugf("initial settings: %+v", initial)

	policy, err := schedule.NewPolicy(conf, settings, initial, stats)
	if err != nil {
		closeSettings()
		return nil, nil, err
	}
	handoff, err := uploader.NewDirectoryHandoff(filepath.Join(conf.OutputDir, SpoolDir), conf.HandoffCacheSize, stats)
	if err != nil {
		closeSettings()
		return nil, nil, err
	}
	return New(conf, policy, capture.NewRuntimeTracer(), handoff, stats), closeSettings, nil
}
