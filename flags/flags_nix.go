//go:build !windows

package flags

// DefaultConfigPath is read when --config is not given. A missing file means
// defaults and environment only.
const DefaultConfigPath = "/etc/datadog-agent/profiling.yaml"
