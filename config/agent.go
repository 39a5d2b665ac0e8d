package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Policy names accepted in the configuration.
const (
	PolicyTriggerOnce = "trigger_once"
	PolicyMemory      = "memory"
	PolicyCPU         = "cpu"
	PolicyHeap        = "heap"
)

// MinBucketPrecision bounds the number of buckets a single operation can use.
const MinBucketPrecision = 1e-3

// Metrics backends accepted in the configuration.
const (
	MetricsStatsd     = "statsd"
	MetricsPrometheus = "prometheus"
	MetricsNone       = "none"
)

// AgentConfig handles the interpretation of the configuration (with default
// behaviors) in one place. It holds the static settings read at startup; the
// settings which may change while running live in Tunables.
type AgentConfig struct {
	Enabled bool

	// Policy selects the trigger driving captures.
	Policy string
	// OutputDir is where trace files and their manifests are written.
	OutputDir string

	// Tunables holds the initial values used until a settings source answers.
	Tunables Tunables

	// expiration
	MaxCaptures        int           // MaxCaptures bounds the number of captures a threshold policy fires, 0 for unbounded
	MaxRuntime         time.Duration // MaxRuntime expires the policy after this long, 0 for never
	MaxCapturesPerHour int           // MaxCapturesPerHour is the capture budget enforced by the agent

	// sample selection
	BucketPrecision     float64
	BucketMinimumMillis float64

	// settings sources, at most one of file and URL is used (file wins)
	SettingsFile      string
	SettingsURL       string
	SettingsAPIKey    string `json:"-"` // never publish this
	SettingsCachePath string

	// handoff
	HandoffCacheSize int

	// internal telemetry
	MetricsBackend string
	StatsdHost     string
	StatsdPort     int
	// StatusPort serves expvar (and Prometheus metrics) on localhost, 0 disables it
	StatusPort int

	// logging
	LogLevel    string
	LogFilePath string
}

// NewDefaultAgentConfig returns a configuration with the default values
func NewDefaultAgentConfig() *AgentConfig {
	return &AgentConfig{
		Enabled:   true,
		Policy:    PolicyMemory,
		OutputDir: filepath.Join(os.TempDir(), "datadog-profiling"),

		Tunables: DefaultTunables(),

		MaxCapturesPerHour: 6,

		BucketPrecision:     0.1,
		BucketMinimumMillis: 1,

		HandoffCacheSize: 128,

		MetricsBackend: MetricsStatsd,
		StatsdHost:     "localhost",
		StatsdPort:     8125,
		StatusPort:     5013,

		LogLevel:    "INFO",
		LogFilePath: DefaultLogFilePath,
	}
}

// Load builds the AgentConfig from the file at path (YAML or INI, picked by
// extension; an empty path means defaults only), then applies environment
// overrides.
func Load(path string) (*AgentConfig, error) {
	c := NewDefaultAgentConfig()

	switch ext := filepath.Ext(path); ext {
	case "":
		if path != "" {
			return nil, fmt.Errorf("configuration file %q has no extension, expected .yaml or .ini", path)
		}
	case ".yaml", ".yml":
		yc, err := NewYamlIfExists(path)
		if err != nil {
			return nil, err
		}
		if err := mergeYamlConfig(c, yc); err != nil {
			return nil, err
		}
	case ".ini", ".conf":
		f, err := NewIniIfExists(path)
		if err != nil {
			return nil, err
		}
		mergeIniConfig(c, f)
	default:
		return nil, fmt.Errorf("configuration file %q not supported, it must be a .yaml or .ini file", path)
	}

	// environment variables have precedence among defaults and the config file
	mergeEnv(c)

	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c *AgentConfig) validate() error {
	switch c.Policy {
	case PolicyTriggerOnce, PolicyMemory, PolicyCPU, PolicyHeap:
	default:
		return fmt.Errorf("unknown policy %q", c.Policy)
	}
	switch c.MetricsBackend {
	case MetricsStatsd, MetricsPrometheus, MetricsNone:
	default:
		return fmt.Errorf("unknown metrics backend %q", c.MetricsBackend)
	}
	if c.BucketPrecision < MinBucketPrecision || c.BucketPrecision >= 1 {
		return fmt.Errorf("bucket_precision must be in [%g, 1), got %g", MinBucketPrecision, c.BucketPrecision)
	}
	if c.BucketMinimumMillis <= 0 {
		return fmt.Errorf("bucket_minimum_ms must be positive, got %g", c.BucketMinimumMillis)
	}
	if c.OutputDir == "" {
		return errors.New("output_dir can not be empty")
	}
	return c.Tunables.Validate()
}

// PathExists returns a boolean indicating if the given path exists on the file system.
func PathExists(filename string) bool {
	if _, err := os.Stat(filename); err == nil {
		return true
	}
	return false
}

// GetDuration returns the duration of the provided value, in seconds.
func GetDuration(value float64) time.Duration {
	return time.Duration(value * float64(time.Second))
}
