package observability

import (
	"io"
	"log"
	"os"

	"code.cloudfoundry.org/lager/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/netcriptus/raiden-services/internal/ports"
)

type PromObs struct {
	logger   lager.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
	rates    *prometheus.GaugeVec
}

type PromObsOption func(*promObsSettings)

type promObsSettings struct {
	level      lager.LogLevel
	writer     io.Writer
	registerer prometheus.Registerer
}

// WithLogLevel sets the minimum lager level. Unknown levels fall back to INFO.
func WithLogLevel(s string) PromObsOption {
	return func(o *promObsSettings) {
		if s == "" {
			return
		}
		l, err := lager.LogLevelFromString(s)
		if err != nil {
			log.Println(err.Error() + ": default to INFO")
			l = lager.INFO
		}
		o.level = l
	}
}

// WithLogWriter overrides where structured logs are written.
func WithLogWriter(w io.Writer) PromObsOption {
	return func(o *promObsSettings) {
		o.writer = w
	}
}

// WithRegisterer registers the metrics with reg instead of the global registry.
func WithRegisterer(reg prometheus.Registerer) PromObsOption {
	return func(o *promObsSettings) {
		if reg != nil {
			o.registerer = reg
		}
	}
}

func NewPromObs(opts ...PromObsOption) *PromObs {
	settings := promObsSettings{
		level:      lager.INFO,
		writer:     os.Stdout,
		registerer: prometheus.DefaultRegisterer,
	}
	for _, o := range opts {
		o(&settings)
	}

	logger := lager.NewLogger("statsdash")
	logger.RegisterSink(lager.NewWriterSink(settings.writer, settings.level))

	polls := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "statsdash_polls_total",
		Help: "Stats endpoint polls that returned a usable object.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "statsdash_poll_failures_total",
		Help: "Stats endpoint polls that failed to fetch or decode.",
	})
	sinkFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "statsdash_sink_failures_total",
		Help: "Updates a sink failed to accept.",
	})
	windowGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "statsdash_window_samples",
		Help: "Samples currently held across all chart windows.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "statsdash_poll_latency_seconds",
		Help:    "Round trip time of a stats poll.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})
	rates := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "statsdash_rate_per_second",
		Help: "Smoothed per-second rate derived from a monotonic counter.",
	}, []string{"key"})

	settings.registerer.MustRegister(polls, failures, sinkFailures, windowGauge, latency, rates)

	return &PromObs{
		logger: logger,
		counters: map[string]prometheus.Counter{
			"statsdash_polls_total":         polls,
			"statsdash_poll_failures_total": failures,
			"statsdash_sink_failures_total": sinkFailures,
		},
		gauges: map[string]prometheus.Gauge{
			"statsdash_window_samples": windowGauge,
		},
		histos: map[string]prometheus.Observer{
			"statsdash_poll_latency_seconds": latency,
		},
		rates: rates,
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.logger.Info(msg, toData(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.logger.Error(msg, err, toData(fields))
}

// LogCritical logs at error level with critical=true. lager's Fatal would panic.
func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	data := toData(fields)
	data["critical"] = true
	p.logger.Error(msg, err, data)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) SetRate(key string, perSecond float64) {
	p.rates.WithLabelValues(key).Set(perSecond)
}

func toData(fields []ports.Field) lager.Data {
	data := make(lager.Data, len(fields))
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return data
}

var _ ports.Observability = (*PromObs)(nil)
