package config

import (
	"fmt"
	"strings"

	log "github.com/cihub/seelog"
	"github.com/go-ini/ini"
)

// A File is a representation of an ini file with some custom convenience
// methods.
type File struct {
	instance *ini.File
	Path     string
}

// NewIni reads the file in configPath and returns a corresponding *File
// or an error if encountered.
func NewIni(configPath string) (*File, error) {
	config, err := ini.Load(configPath)
	if err != nil {
		return nil, err
	}
	return &File{instance: config, Path: configPath}, nil
}

// NewIniIfExists reads the file in configPath if it exists, and returns a nil
// File otherwise.
func NewIniIfExists(configPath string) (*File, error) {
	if !PathExists(configPath) {
		return nil, nil
	}
	return NewIni(configPath)
}

// Get returns a value from the section/name pair, or an error if it can't be found.
func (c *File) Get(section, name string) (string, error) {
	exists := c.instance.Section(section).HasKey(name)
	if !exists {
		return "", fmt.Errorf("missing `%s` value in [%s] section", name, section)
	}
	return c.instance.Section(section).Key(name).String(), nil
}

// GetSection is a convenience method to return an entire section of ini config
func (c *File) GetSection(key string) (*ini.Section, error) {
	return c.instance.GetSection(key)
}

func mergeIniConfig(c *AgentConfig, conf *File) {
	if conf == nil {
		return
	}

	// [Main] section
	if m, err := conf.GetSection("Main"); err == nil {
		if v := m.Key("log_level").MustString(""); v != "" {
			c.LogLevel = v
		}
		if v := m.Key("bind_host").MustString(""); v != "" {
			c.StatsdHost = v
		}
		if v := m.Key("dogstatsd_port").MustInt(-1); v != -1 {
			c.StatsdPort = v
		}
	}

	// [profiling] section
	p, err := conf.GetSection("profiling")
	if err != nil {
		return
	}

	switch strings.ToLower(p.Key("enabled").MustString("")) {
	case "yes", "true", "1":
		c.Enabled = true
	case "no", "false", "0":
		c.Enabled = false
	}

	if v := p.Key("policy").MustString(""); v != "" {
		c.Policy = v
	}
	if v := p.Key("output_dir").MustString(""); v != "" {
		c.OutputDir = v
	}
	if v := p.Key("log_file").MustString(""); v != "" {
		c.LogFilePath = v
	}

	positive := func(key string, dst *float64) bool {
		if !p.HasKey(key) {
			return false
		}
		v, err := p.Key(key).Float64()
		if err != nil || v <= 0 {
			log.Errorf("Failed to parse %s in [profiling]: it should be a positive number", key)
			return false
		}
		*dst = v
		return true
	}

	var v float64
	if positive("capture_duration_seconds", &v) {
		c.Tunables.CaptureDuration = GetDuration(v)
	}
	if positive("cooldown_seconds", &v) {
		c.Tunables.Cooldown = GetDuration(v)
	}
	if positive("polling_interval_seconds", &v) {
		c.Tunables.PollingInterval = GetDuration(v)
	}
	if positive("refresh_interval_seconds", &v) {
		c.Tunables.RefreshInterval = GetDuration(v)
	}
	if positive("threshold", &v) {
		c.Tunables.Threshold = v
	}
	if positive("max_runtime_seconds", &v) {
		c.MaxRuntime = GetDuration(v)
	}
	if positive("bucket_precision", &v) {
		c.BucketPrecision = v
	}
	if positive("bucket_minimum_ms", &v) {
		c.BucketMinimumMillis = v
	}

	if n := p.Key("max_captures").MustInt(0); n > 0 {
		c.MaxCaptures = n
	}
	if n := p.Key("max_captures_per_hour").MustInt(0); n > 0 {
		c.MaxCapturesPerHour = n
	}
	if n := p.Key("status_port").MustInt(-1); n >= 0 {
		c.StatusPort = n
	}
	if n := p.Key("handoff_cache_size").MustInt(0); n > 0 {
		c.HandoffCacheSize = n
	}

	c.SettingsFile = p.Key("settings_file").MustString(c.SettingsFile)
	c.SettingsURL = p.Key("settings_url").MustString(c.SettingsURL)
	c.SettingsAPIKey = p.Key("settings_api_key").MustString(c.SettingsAPIKey)
	c.SettingsCachePath = p.Key("settings_cache_path").MustString(c.SettingsCachePath)
	c.MetricsBackend = p.Key("metrics_backend").MustString(c.MetricsBackend)
}
