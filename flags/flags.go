// Package flags holds the command-line options of the profiling agent.
package flags

import "github.com/spf13/pflag"

var (
	ConfigFile string
	LogLevel   string
	CPUProfile string
	MemProfile string
	Workload   int
)

// RegisterGlobal adds the options shared by every command to fs.
func RegisterGlobal(fs *pflag.FlagSet) {
	fs.StringVarP(&ConfigFile, "config", "c", DefaultConfigPath, "Agent config file location (.yaml or .ini)")
}

// RegisterRun adds the options of the run command to fs.
func RegisterRun(fs *pflag.FlagSet) {
	fs.StringVar(&LogLevel, "log-level", "", "Override the configured log level")
	fs.IntVar(&Workload, "workload", 0, "Number of goroutines running a synthetic instrumented workload")

	// profiling of the agent itself
	fs.StringVar(&CPUProfile, "cpuprofile", "", "Write cpu profile to file")
	fs.StringVar(&MemProfile, "memprofile", "", "Write memory profile to `file`")
}
