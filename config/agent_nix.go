//go:build !windows

package config

const (
	// DefaultLogFilePath is where the agent will write logs if not overriden in the conf
	DefaultLogFilePath = "/var/log/datadog/profiling-agent.log"

	// DefaultSettingsCachePath is where the agent persists the last settings received from the settings endpoint
	DefaultSettingsCachePath = "/opt/datadog-agent/run/profiling-settings.gob"
)
