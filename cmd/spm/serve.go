package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/dm/spm-go/internal/config"
	"github.com/dm/spm-go/internal/engine"
	"github.com/dm/spm-go/internal/metrics"
	"github.com/dm/spm-go/internal/model"
	"github.com/dm/spm-go/internal/sink"
)

// reportStore receives every successful poll. *sink.Influx implements it.
type reportStore interface {
	Store(ctx context.Context, snap *model.InstanceSnapshot, report *model.Report) error
}

// exporter polls the configured instances on a timer and keeps the
// collector current.
type exporter struct {
	sc        *config.SafeConfig
	v         *viper.Viper
	collector *metrics.Collector
	store     reportStore
	newClient func(config.Discovery) engine.ClientFactory
	logger    log.Logger
	reloadCh  chan chan error
}

// pollOnce polls every configured instance once.
func (e *exporter) pollOnce(ctx context.Context) {
	cfg := e.sc.Get()
	if len(cfg.Instances) == 0 {
		level.Warn(e.logger).Log("msg", "no instances configured")
		return
	}

	d := &engine.Discoverer{
		NewClient:    e.newClient(cfg.Discovery),
		Healthchecks: cfg.Healthchecks,
		Logger:       e.logger,
	}
	reports := make(map[string]*model.Report, len(cfg.Instances))
	results, err := d.Run(ctx, cfg.Instances, func(ev model.ProgressEvent) {
		e.collector.ObserveDiscovery(ev)
		if ev.Status != model.StatusOK {
			e.collector.Update(ev.Candidate.Key(), nil, nil, ev.Err)
			return
		}
		reports[ev.Candidate.Key()] = ev.Report
	})
	if err != nil {
		level.Warn(e.logger).Log("msg", "poll cycle interrupted", "err", err)
	}

	for key, snap := range results {
		report := reports[key]
		e.collector.Update(key, snap, report, nil)
		if e.store == nil || report == nil {
			continue
		}
		if err := e.store.Store(ctx, snap, report); err != nil {
			level.Error(e.logger).Log("msg", "error storing report", "instance", key, "err", err)
		}
	}
	level.Debug(e.logger).Log("msg", "poll cycle done", "polled", len(results), "instances", len(cfg.Instances))
}

// pollLoop polls immediately and then on every interval tick. A reload
// takes effect on the next tick.
func (e *exporter) pollLoop(ctx context.Context) error {
	for {
		e.pollOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(e.sc.Get().Serve.Interval):
		}
	}
}

func (e *exporter) reload() error {
	if err := e.sc.ReloadConfig(e.v, e.logger); err != nil {
		level.Error(e.logger).Log("msg", "Error reloading config", "err", err)
		return err
	}
	level.Info(e.logger).Log("msg", "Reloaded config file")
	return nil
}

// reloadLoop serialises reloads from SIGHUP and from /-/reload.
func (e *exporter) reloadLoop(ctx context.Context, hup <-chan os.Signal) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			_ = e.reload()
		case rc := <-e.reloadCh:
			rc <- e.reload()
		}
	}
}

// handler serves metrics, health, reload and the running config.
func (e *exporter) handler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/-/healthy", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})
	mux.HandleFunc("/-/reload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			fmt.Fprintf(w, "This endpoint requires a POST request.\n")
			return
		}
		rc := make(chan error)
		select {
		case e.reloadCh <- rc:
		case <-r.Context().Done():
			return
		}
		if err := <-rc; err != nil {
			http.Error(w, fmt.Sprintf("failed to reload config: %s", err), http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		c, err := yaml.Marshal(redacted(e.sc.Get()))
		if err != nil {
			level.Warn(e.logger).Log("msg", "Error marshalling configuration", "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write(c)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html>
    <head><title>spm exporter</title></head>
    <body>
    <h1>spm exporter</h1>
    <p><a href="metrics">Metrics</a></p>
    <p><a href="config">Configuration</a></p>
    </body>
</html>`))
	})
	return mux
}

// redacted returns a copy of cfg with secrets masked.
func redacted(cfg *config.Config) *config.Config {
	out := *cfg
	out.Instances = make([]model.Candidate, len(cfg.Instances))
	for i, c := range cfg.Instances {
		if c.Password != "" {
			c.Password = "<secret>"
		}
		if c.Token != "" {
			c.Token = "<secret>"
		}
		out.Instances[i] = c
	}
	if out.InfluxDB.Token != "" {
		out.InfluxDB.Token = "<secret>"
	}
	return &out
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Poll the configured instances and export their health as Prometheus metrics",
		Long: `serve polls every instance in the config file on serve.interval and exposes
the latest reports on /metrics. Send SIGHUP or POST /-/reload to re-read the
config file. When influxdb.url is set every poll is also written to InfluxDB.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				versioncollector.NewCollector("spm"),
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			sc := config.NewSafeConfig(reg)
			if err := sc.ReloadConfig(opts.v, logger); err != nil {
				level.Error(logger).Log("msg", "Error loading config", "err", err)
				return err
			}
			cfg := sc.Get()
			if listen == "" {
				listen = cfg.Serve.Listen
			}

			collector := metrics.NewCollector(logger)
			reg.MustRegister(collector)

			e := &exporter{
				sc:        sc,
				v:         opts.v,
				collector: collector,
				newClient: opts.clientFactory,
				logger:    logger,
				reloadCh:  make(chan chan error),
			}
			if cfg.InfluxDB.URL != "" {
				influx, err := sink.NewInflux(cfg.InfluxDB, logger)
				if err != nil {
					return err
				}
				defer influx.Close()
				e.store = influx
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)

			srv := &http.Server{Addr: listen, Handler: e.handler(reg), ReadHeaderTimeout: 10 * time.Second}
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				level.Info(logger).Log("msg", "Listening on", "address", listen)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("HTTP server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				level.Info(logger).Log("msg", "shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			g.Go(func() error { return e.pollLoop(ctx) })
			g.Go(func() error { return e.reloadLoop(ctx, hup) })
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default: serve.listen from the config, :9816)")
	return cmd
}
