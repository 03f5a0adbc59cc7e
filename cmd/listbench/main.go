// Command listbench drives concurrent workloads against the listset
// variants named in a TOML config file and verifies each final set.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/metailurini/listset"
	"github.com/metailurini/listset/internal/config"
	"github.com/metailurini/listset/internal/workload"
)

// Functions

// initLogger initializes a JSON gokit-logger set
// to the according log level.
func initLogger(loglevel string) log.Logger {

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	logger = log.With(logger,
		"ts", log.DefaultTimestampUTC,
		"caller", log.DefaultCaller,
	)

	switch strings.ToLower(loglevel) {
	case "info":
		logger = level.NewFilter(logger, level.AllowInfo())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		logger = level.NewFilter(logger, level.AllowDebug())
	}

	return logger
}

// runPromHTTP exposes the default Prometheus
// registry on addr until the process exits.
func runPromHTTP(logger log.Logger, addr string) {

	if addr == "" {
		level.Debug(logger).Log("msg", "prometheus addr is empty, not exposing prometheus metrics")
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	level.Info(logger).Log("msg", "exposing prometheus metrics", "addr", addr)

	if err := http.ListenAndServe(addr, mux); err != nil {
		level.Error(logger).Log(
			"msg", "failed to serve prometheus metrics",
			"err", err,
		)
	}
}

func run(ctx context.Context, logger log.Logger, conf *config.Config) error {

	variants, err := conf.Variants()
	if err != nil {
		return err
	}

	inst := listset.DiscardInstruments()
	if conf.PrometheusAddr != "" {
		inst = listset.NewPrometheusInstruments(conf.Namespace)
		go runPromHTTP(logger, conf.PrometheusAddr)
	}

	spec := conf.Spec()
	failed := 0

	for _, v := range variants {

		vlogger := log.With(logger, "variant", v)

		opts := append(conf.Options(),
			listset.WithLogger(vlogger),
			listset.WithInstruments(inst.With("variant", v.String())),
		)
		s := listset.New[int](v, opts...)

		level.Debug(vlogger).Log(
			"msg", "starting workload",
			"goroutines", spec.Goroutines,
			"ops_per_goroutine", spec.OpsPerGoroutine,
			"key_range", spec.KeyRange,
			"distribution", spec.Distribution,
		)

		res, err := workload.Run(ctx, s, spec)
		if err != nil {
			level.Error(vlogger).Log(
				"msg", "verification failed",
				"seed", res.Seed,
				"err", err,
			)
			failed++
			continue
		}

		level.Info(vlogger).Log(
			"msg", "workload verified",
			"seed", res.Seed,
			"ops", res.Ops,
			"elapsed", res.Elapsed,
			"ops_per_sec", int64(res.Throughput()),
			"inserted", res.Inserted,
			"removed", res.Removed,
			"hits", res.Hits,
			"len", res.Stats.Len,
			"retries", res.Stats.Retries,
			"helps", res.Stats.Helps,
		)

		if ctx.Err() != nil {
			level.Warn(logger).Log("msg", "interrupted, skipping remaining variants")
			break
		}
	}

	if failed > 0 {
		return workload.ErrInconsistent
	}

	return nil
}

func main() {

	// Parse command-line flags that define the config path and log level.
	configFlag := flag.String("config", "listbench.toml", "Provide path to configuration file in TOML syntax.")
	loglevelFlag := flag.String("loglevel", "", "This flag overrides the logging level of the config file.")
	flag.Parse()

	// Read configuration from file.
	conf, err := config.LoadConfig(*configFlag)
	if err != nil {
		level.Error(initLogger("error")).Log(
			"msg", "failed to load the config",
			"err", err,
		)
		os.Exit(1)
	}

	loglevel := conf.LogLevel
	if *loglevelFlag != "" {
		loglevel = *loglevelFlag
	}
	logger := initLogger(loglevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, conf); err != nil {
		level.Error(logger).Log("msg", "listbench failed", "err", err)
		stop()
		os.Exit(1)
	}
}
