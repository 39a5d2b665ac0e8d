package config

const (
	// DefaultLogFilePath is where the agent will write logs if not overriden in the conf
	DefaultLogFilePath = "c:\\programdata\\datadog\\logs\\profiling-agent.log"

	// DefaultSettingsCachePath is where the agent persists the last settings received from the settings endpoint
	DefaultSettingsCachePath = "c:\\programdata\\datadog\\run\\profiling-settings.gob"
)
