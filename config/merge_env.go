package config

import (
	"os"
	"strconv"

	log "github.com/cihub/seelog"
)

// mergeEnv applies overrides from environment variables to the agent configuration
func mergeEnv(c *AgentConfig) {
	if v := os.Getenv("DD_PROFILING_ENABLED"); v == "true" {
		c.Enabled = true
	} else if v == "false" {
		c.Enabled = false
	}

	if v := os.Getenv("DD_PROFILING_POLICY"); v != "" {
		c.Policy = v
	}

	if v := os.Getenv("DD_PROFILING_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}

	if v := os.Getenv("DD_PROFILING_THRESHOLD"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Error("Failed to parse DD_PROFILING_THRESHOLD: it should be a number")
		} else {
			c.Tunables.Threshold = threshold
		}
	}

	if v := os.Getenv("DD_PROFILING_SETTINGS_URL"); v != "" {
		c.SettingsURL = v
	}

	if v := os.Getenv("DD_API_KEY"); v != "" {
		c.SettingsAPIKey = v
	}

	if v := os.Getenv("DD_DOGSTATSD_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			log.Error("Failed to parse DD_DOGSTATSD_PORT: it should be a port number")
		} else {
			c.StatsdPort = port
		}
	}

	if v := os.Getenv("DD_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}
