package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/cihub/seelog"
	"github.com/spf13/cobra"

	"github.com/DataDog/datadog-profiling-agent/config"
	"github.com/DataDog/datadog-profiling-agent/flags"
	"github.com/DataDog/datadog-profiling-agent/info"
	"github.com/DataDog/datadog-profiling-agent/watchdog"
)

var rootCmd = &cobra.Command{
	Use:          "profiling-agent",
	Short:        "Adaptive execution trace capture",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information and exit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), info.VersionString())
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show info about the running agent process and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		// plain console output only
		log.ReplaceLogger(log.Disabled)

		conf, err := config.Load(flags.ConfigFile)
		if err != nil {
			return err
		}
		if err := info.InitInfo(conf); err != nil {
			return err
		}
		return info.Info(cmd.OutOrStdout(), conf)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		// Handle stops properly
		go func() {
			defer watchdog.LogOnPanic()
			handleSignal(cancel)
		}()
		return runAgent(ctx)
	},
}

// handleSignal cancels the agent context on SIGINT and SIGTERM
func handleSignal(onSignal func()) {
	sigChan := make(chan os.Signal, 10)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	for signo := range sigChan {
		switch signo {
		case syscall.SIGINT, syscall.SIGTERM:
			log.Infof("received signal %d (%v)", signo, signo)
			onSignal()
			return
		default:
			log.Warnf("unhandled signal %d (%v)", signo, signo)
		}
	}
}

func init() {
	flags.RegisterGlobal(rootCmd.PersistentFlags())
	flags.RegisterRun(runCmd.Flags())

	rootCmd.AddCommand(runCmd, infoCmd, versionCmd)
}

// main is the main application entry point
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
