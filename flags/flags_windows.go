//go:build windows

package flags

// DefaultConfigPath is read when --config is not given. A missing file means
// defaults and environment only.
const DefaultConfigPath = "c:\\programdata\\datadog\\profiling.yaml"
