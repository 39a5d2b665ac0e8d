package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YamlAgentConfig is a structure used for marshaling the datadog.yaml configuration.
type YamlAgentConfig struct {
	LogLevel   string `yaml:"log_level"`
	StatsdHost string `yaml:"bind_host"`
	StatsdPort int    `yaml:"dogstatsd_port"`

	Profiling profilingConfig `yaml:"profiling_config"`
}

type profilingConfig struct {
	Enabled   *bool  `yaml:"enabled"`
	Policy    string `yaml:"policy"`
	OutputDir string `yaml:"output_dir"`
	LogFile   string `yaml:"log_file"`

	CaptureDuration float64 `yaml:"capture_duration_seconds"`
	Cooldown        float64 `yaml:"cooldown_seconds"`
	PollingInterval float64 `yaml:"polling_interval_seconds"`
	RefreshInterval float64 `yaml:"refresh_interval_seconds"`
	Threshold       float64 `yaml:"threshold"`

	MaxCaptures        int     `yaml:"max_captures"`
	MaxRuntime         float64 `yaml:"max_runtime_seconds"`
	MaxCapturesPerHour int     `yaml:"max_captures_per_hour"`

	BucketPrecision float64 `yaml:"bucket_precision"`
	BucketMinimum   float64 `yaml:"bucket_minimum_ms"`

	SettingsFile      string `yaml:"settings_file"`
	SettingsURL       string `yaml:"settings_url"`
	SettingsAPIKey    string `yaml:"settings_api_key"`
	SettingsCachePath string `yaml:"settings_cache_path"`

	HandoffCacheSize int    `yaml:"handoff_cache_size"`
	MetricsBackend   string `yaml:"metrics_backend"`
	StatusPort       *int   `yaml:"status_port"`
}

// newYamlFromBytes returns a new YamlAgentConfig for the provided byte array.
func newYamlFromBytes(bytes []byte) (*YamlAgentConfig, error) {
	var yamlConf YamlAgentConfig

	if err := yaml.Unmarshal(bytes, &yamlConf); err != nil {
		return nil, fmt.Errorf("parse error: %s", err)
	}
	return &yamlConf, nil
}

// NewYamlIfExists returns a new YamlAgentConfig if the given configPath is exists.
func NewYamlIfExists(configPath string) (*YamlAgentConfig, error) {
	if PathExists(configPath) {
		fileContent, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		return newYamlFromBytes(fileContent)
	}
	return nil, nil
}

func mergeYamlConfig(c *AgentConfig, yc *YamlAgentConfig) error {
	if yc == nil {
		return nil
	}

	if yc.LogLevel != "" {
		c.LogLevel = yc.LogLevel
	}
	if yc.StatsdHost != "" {
		c.StatsdHost = yc.StatsdHost
	}
	if yc.StatsdPort > 0 {
		c.StatsdPort = yc.StatsdPort
	}

	p := yc.Profiling
	if p.Enabled != nil {
		c.Enabled = *p.Enabled
	}
	if p.Policy != "" {
		c.Policy = p.Policy
	}
	if p.OutputDir != "" {
		c.OutputDir = p.OutputDir
	}
	if p.LogFile != "" {
		c.LogFilePath = p.LogFile
	}

	if p.CaptureDuration > 0 {
		c.Tunables.CaptureDuration = GetDuration(p.CaptureDuration)
	}
	if p.Cooldown > 0 {
		c.Tunables.Cooldown = GetDuration(p.Cooldown)
	}
	if p.PollingInterval > 0 {
		c.Tunables.PollingInterval = GetDuration(p.PollingInterval)
	}
	if p.RefreshInterval > 0 {
		c.Tunables.RefreshInterval = GetDuration(p.RefreshInterval)
	}
	if p.Threshold > 0 {
		c.Tunables.Threshold = p.Threshold
	}

	if p.MaxCaptures > 0 {
		c.MaxCaptures = p.MaxCaptures
	}
	if p.MaxRuntime > 0 {
		c.MaxRuntime = GetDuration(p.MaxRuntime)
	}
	if p.MaxCapturesPerHour > 0 {
		c.MaxCapturesPerHour = p.MaxCapturesPerHour
	}

	if p.BucketPrecision > 0 {
		c.BucketPrecision = p.BucketPrecision
	}
	if p.BucketMinimum > 0 {
		c.BucketMinimumMillis = p.BucketMinimum
	}

	c.SettingsFile = p.SettingsFile
	c.SettingsURL = p.SettingsURL
	c.SettingsAPIKey = p.SettingsAPIKey
	if p.SettingsCachePath != "" {
		c.SettingsCachePath = p.SettingsCachePath
	}

	if p.HandoffCacheSize > 0 {
		c.HandoffCacheSize = p.HandoffCacheSize
	}
	if p.MetricsBackend != "" {
		c.MetricsBackend = p.MetricsBackend
	}
	if p.StatusPort != nil {
		c.StatusPort = *p.StatusPort
	}
	return nil
}
