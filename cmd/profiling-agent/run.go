package main

import (
	"context"
	"errors"
	"expvar"
	"net"
	"net/http"
	"os"
	"runtime"
	"runtime/pprof"
	"strconv"
	"time"

	log "github.com/cihub/seelog"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DataDog/datadog-profiling-agent/agent"
	"github.com/DataDog/datadog-profiling-agent/config"
	"github.com/DataDog/datadog-profiling-agent/flags"
	"github.com/DataDog/datadog-profiling-agent/info"
	"github.com/DataDog/datadog-profiling-agent/watchdog"
)

const agentDisabledMessage = `profiling agent not enabled.
Set env var DD_PROFILING_ENABLED=true or add
profiling_config:
  enabled: true
to your configuration file.
Exiting.`

// runAgent is the entrypoint of our code
func runAgent(ctx context.Context) error {
	defer log.Flush()
	defer watchdog.LogOnPanic()

	conf, err := config.Load(flags.ConfigFile)
	if err != nil {
		return err
	}
	if flags.LogLevel != "" {
		conf.LogLevel = flags.LogLevel
	}
	if err := config.NewLoggerLevelCustom(conf.LogLevel, conf.LogFilePath); err != nil {
		return err
	}

	if !conf.Enabled {
		log.Info(agentDisabledMessage)
		return nil
	}

	if err := info.InitInfo(conf); err != nil { // for expvar & the info command
		return err
	}

	stats, err := agent.NewStatsClient(conf)
	if err != nil {
		return err
	}
	stats.Count("datadog.profiling.started", 1, []string{"version:" + info.Version}, 1)

	a, release, err := agent.NewFromConfig(ctx, conf, stats)
	if err != nil {
		return err
	}
	defer release()

	if conf.StatusPort > 0 {
		srv := newStatusServer(conf)
		go func() {
			defer watchdog.LogOnPanic()
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("status server: %v", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(sctx)
		}()
	}

	for i := 0; i < flags.Workload; i++ {
		go func(i int) {
			defer watchdog.LogOnPanic()
			runWorkload(ctx, a, i)
		}(i)
	}

	// start CPU profiling
	if flags.CPUProfile != "" {
		f, err := os.Create(flags.CPUProfile)
		if err != nil {
			return err
		}
		pprof.StartCPUProfile(f)
		log.Info("CPU profiling started...")
		defer pprof.StopCPUProfile()
	}

	log.Infof("profiling agent running, traces go to %s", conf.OutputDir)
	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("exiting")

	// collect memory profile
	if flags.MemProfile != "" {
		writeHeapProfile(flags.MemProfile)
	}
	return nil
}

func writeHeapProfile(path string) {
	f, err := os.Create(path)
	if err != nil {
		log.Critical("could not create memory profile: ", err)
		return
	}
	defer f.Close()

	// get up-to-date statistics
	runtime.GC()
	// WriteTo with debug=1 resolves pointers to names.
	if err := pprof.Lookup("heap").WriteTo(f, 1); err != nil {
		log.Critical("could not write memory profile: ", err)
	}
}

// newStatusServer serves expvar, and the Prometheus metrics when they are
// enabled, on localhost.
func newStatusServer(conf *config.AgentConfig) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())
	if conf.MetricsBackend == config.MetricsPrometheus {
		mux.Handle("/metrics", promhttp.Handler())
	}
	return &http.Server{
		Addr:              net.JoinHostPort("localhost", strconv.Itoa(conf.StatusPort)),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
