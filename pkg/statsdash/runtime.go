package statsdash

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netcriptus/raiden-services/internal/adapters/observability"
	"github.com/netcriptus/raiden-services/internal/adapters/sink"
	"github.com/netcriptus/raiden-services/internal/adapters/statshttp"
	"github.com/netcriptus/raiden-services/internal/app/derive"
	"github.com/netcriptus/raiden-services/internal/app/pipeline"
	"github.com/netcriptus/raiden-services/internal/app/store"
	"github.com/netcriptus/raiden-services/internal/web"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	fetcher       Fetcher
	sinks         []Sink
	observability Observability
	withoutWeb    bool
	httpLog       io.Writer
	logWriter     io.Writer
	baseURL       string
	startTime     time.Time
}

// WithFetcher injects a custom fetcher in place of the HTTP stats client.
func WithFetcher(f Fetcher) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.fetcher = f
	}
}

// WithSink adds a sink next to the ones built from configuration. It can be given more than once.
func WithSink(s Sink) RuntimeOption {
	return func(o *runtimeOverrides) {
		if s != nil {
			o.sinks = append(o.sinks, s)
		}
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithoutWeb disables the dashboard HTTP server and its websocket sink.
func WithoutWeb() RuntimeOption {
	return func(o *runtimeOverrides) {
		o.withoutWeb = true
	}
}

// WithBaseURL overrides stats.base_url without touching the Config.
func WithBaseURL(u string) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.baseURL = u
	}
}

// WithLogWriter redirects the structured logs of the default observability backend.
func WithLogWriter(w io.Writer) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.logWriter = w
	}
}

// WithHTTPLogWriter redirects the web server access log.
func WithHTTPLogWriter(w io.Writer) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.httpLog = w
	}
}

// WithStartTime pins the origin of the sample clock.
func WithStartTime(t time.Time) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.startTime = t
	}
}

// Runtime wires fetcher, derived metric engine, series store and sinks together
// and exposes simple lifecycle hooks for embedding the dashboard in any Go service.
type Runtime struct {
	cfg       *Config
	obs       Observability
	fetcher   Fetcher
	store     *store.Store
	engine    *derive.Engine
	registry  *prometheus.Registry
	poller    *pipeline.Poller
	fanout    *sink.Fanout
	hub       *web.Hub
	httpLog   io.Writer
	sessionID string

	db *sql.DB
	nc *nats.Conn

	mu      sync.Mutex
	webSrv  *web.Server
	serveCh chan struct{}
}

// NewRuntime bootstraps the default adapters (HTTP stats fetcher, Prometheus/lager
// observability, websocket hub, and the Timescale and NATS sinks when configured).
// RuntimeOption values override or extend any of them.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	obs := overrides.observability
	if obs == nil {
		obsOpts := []observability.PromObsOption{
			observability.WithLogLevel(cfg.Log.Level),
			observability.WithRegisterer(registry),
		}
		if overrides.logWriter != nil {
			obsOpts = append(obsOpts, observability.WithLogWriter(overrides.logWriter))
		}
		obs = observability.NewPromObs(obsOpts...)
	}

	f := overrides.fetcher
	if f == nil {
		f = statshttp.NewFetcher(cfg.Stats)
	}
	baseURL := cfg.Stats.BaseURL
	if overrides.baseURL != "" {
		baseURL = overrides.baseURL
	}
	if baseURL != "" {
		f.SetBaseURL(baseURL)
	}

	st, err := store.New(cfg.Policy.WindowSize, cfg.Keys.Chart, cfg.Keys.Text)
	if err != nil {
		return nil, err
	}
	eng := derive.NewEngine(cfg.Policy.Interval, cfg.Keys.Counters)

	rt := &Runtime{
		cfg:       cfg,
		obs:       obs,
		fetcher:   f,
		store:     st,
		engine:    eng,
		registry:  registry,
		fanout:    sink.NewFanout(),
		httpLog:   overrides.httpLog,
		sessionID: uuid.NewString(),
	}

	if !overrides.withoutWeb && !cfg.Web.Disabled {
		rt.hub = web.NewHub(cfg.Web.ClientBuffer, obs)
		rt.fanout.Add(rt.hub)
	}

	if cfg.Timescale.ConnString != "" {
		rt.db, err = sql.Open("postgres", cfg.Timescale.ConnString)
		if err != nil {
			return nil, err
		}
		rt.fanout.Add(sink.NewTimescaleSink(rt.db, cfg.Timescale.Table, rt.sessionID))
	}

	if cfg.NATS.URL != "" {
		rt.nc, err = sink.DialNATS(cfg.NATS.URL, "statsdash-"+rt.sessionID)
		if err != nil {
			rt.closeClients()
			return nil, err
		}
		rt.fanout.Add(sink.NewNATSSink(rt.nc, cfg.NATS.Subject))
	}

	for _, s := range overrides.sinks {
		rt.fanout.Add(s)
	}

	var pollerOpts []pipeline.PollerOption
	if !overrides.startTime.IsZero() {
		pollerOpts = append(pollerOpts, pipeline.WithStartTime(overrides.startTime))
	}
	rt.poller, err = pipeline.NewPoller(f, st, eng, rt.fanout, cfg.Policy, obs, pollerOpts...)
	if err != nil {
		rt.closeClients()
		return nil, err
	}

	return rt, nil
}

// Start launches the poller and, unless disabled, the dashboard server.
// It returns immediately; call Run to block on a context instead.
func (r *Runtime) Start(ctx context.Context) error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}

	if err := r.poller.Start(ctx); err != nil {
		return err
	}
	if r.hub == nil {
		return nil
	}

	srv, err := r.newWebServer()
	if err != nil {
		r.poller.Stop()
		return fmt.Errorf("web server: %w", err)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.obs.LogCritical("web_server_exited", err)
		}
	}()

	r.mu.Lock()
	r.webSrv = srv
	r.serveCh = done
	r.mu.Unlock()

	r.obs.LogInfo("web_server_started", Field{Key: "addr", Value: srv.Addr()})
	return nil
}

// Run starts the runtime and blocks until the provided context is cancelled.
// Upon cancellation it attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops the poller, the dashboard server and every sink connection.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	r.poller.Stop()

	if r.hub != nil {
		r.hub.Close()
	}

	r.mu.Lock()
	srv, done := r.webSrv, r.serveCh
	r.webSrv, r.serveCh = nil, nil
	r.mu.Unlock()

	if srv != nil {
		if err := srv.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
		<-done
	}

	if err := r.closeClients(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Refresh runs one poll cycle immediately, outside the timer.
func (r *Runtime) Refresh(ctx context.Context) error {
	return r.poller.Tick(ctx)
}

// Addr returns the dashboard listen address, or "" when the server is not running.
func (r *Runtime) Addr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.webSrv == nil {
		return ""
	}
	return r.webSrv.Addr()
}

func (r *Runtime) BaseURL() string      { return r.fetcher.BaseURL() }
func (r *Runtime) SetBaseURL(u string)  { r.fetcher.SetBaseURL(u) }
func (r *Runtime) Snapshot() Snapshot   { return r.store.Snapshot() }
func (r *Runtime) PollStats() PollStats { return r.poller.Stats() }
func (r *Runtime) Config() *Config      { return r.cfg }

// SessionID identifies this run in the archive and on the message bus.
func (r *Runtime) SessionID() string { return r.sessionID }

// Sinks returns the name of the composite sink, listing every configured sink.
func (r *Runtime) Sinks() string { return r.fanout.Name() }

// MetricsHandler serves this runtime's own Prometheus registry.
func (r *Runtime) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Runtime) newWebServer() (*web.Server, error) {
	var opts []web.ServerOption
	if r.httpLog != nil {
		opts = append(opts, web.WithLogWriter(r.httpLog))
	}
	return web.NewServer(r.cfg.Web.Addr, web.Deps{
		Store:    r.store,
		Target:   r.fetcher,
		Stats:    r.poller,
		Hub:      r.hub,
		Metrics:  r.MetricsHandler(),
		Interval: r.cfg.Policy.Interval,
	}, opts...)
}

func (r *Runtime) closeClients() error {
	var errs []error
	if r.nc != nil {
		if err := r.nc.Drain(); err != nil {
			errs = append(errs, err)
		}
		r.nc = nil
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
		r.db = nil
	}
	return errors.Join(errs...)
}
