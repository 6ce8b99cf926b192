package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/netcriptus/raiden-services/internal/ports"
)

func useTestRegistry(t *testing.T) {
	t.Helper()
	origReg := prometheus.DefaultRegisterer
	origGatherer := prometheus.DefaultGatherer
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origReg
		prometheus.DefaultGatherer = origGatherer
	})

	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
}

func TestPromObsMetrics(t *testing.T) {
	useTestRegistry(t)

	obs := NewPromObs(WithLogWriter(&bytes.Buffer{}))

	obs.IncCounter("statsdash_polls_total", 5)
	if got := testutil.ToFloat64(obs.counters["statsdash_polls_total"]); got != 5 {
		t.Fatalf("expected polls counter 5, got %f", got)
	}

	obs.IncCounter("statsdash_poll_failures_total", 2)
	if got := testutil.ToFloat64(obs.counters["statsdash_poll_failures_total"]); got != 2 {
		t.Fatalf("expected failure counter 2, got %f", got)
	}

	obs.IncCounter("does_not_exist", 1)

	obs.SetGauge("statsdash_window_samples", 40)
	if got := testutil.ToFloat64(obs.gauges["statsdash_window_samples"]); got != 40 {
		t.Fatalf("expected window gauge 40, got %f", got)
	}

	obs.ObserveLatency("statsdash_poll_latency_seconds", 0.25)
	hCollector := obs.histos["statsdash_poll_latency_seconds"].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected latency histogram to record 1 sample, got %d", samples)
	}

	obs.SetRate("tps", 1.5)
	if got := testutil.ToFloat64(obs.rates.WithLabelValues("tps")); got != 1.5 {
		t.Fatalf("expected tps rate 1.5, got %f", got)
	}
}

func TestPromObsLogsStructuredFields(t *testing.T) {
	useTestRegistry(t)

	var buf bytes.Buffer
	obs := NewPromObs(WithLogWriter(&buf), WithLogLevel("debug"))

	obs.LogInfo("poll_ok", ports.Field{Key: "tick", Value: 3})
	obs.LogError("poll_failed", errors.New("connection refused"), ports.Field{Key: "base_url", Value: "http://node"})
	obs.LogCritical("sink_broken", errors.New("boom"))

	out := buf.String()
	for _, want := range []string{"statsdash.poll_ok", `"tick":3`, "statsdash.poll_failed", "connection refused", "http://node", `"critical":true`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPromObsLogLevelFiltersInfo(t *testing.T) {
	useTestRegistry(t)

	var buf bytes.Buffer
	obs := NewPromObs(WithLogWriter(&buf), WithLogLevel("error"))
	obs.LogInfo("quiet")

	if buf.Len() != 0 {
		t.Fatalf("expected info log to be filtered, got %s", buf.String())
	}
}

func TestPromObsWithRegistererIsolatesInstances(t *testing.T) {
	first := prometheus.NewRegistry()
	second := prometheus.NewRegistry()

	a := NewPromObs(WithLogWriter(&bytes.Buffer{}), WithRegisterer(first))
	b := NewPromObs(WithLogWriter(&bytes.Buffer{}), WithRegisterer(second))

	a.IncCounter("statsdash_polls_total", 3)
	b.IncCounter("statsdash_polls_total", 1)

	if got := testutil.ToFloat64(a.counters["statsdash_polls_total"]); got != 3 {
		t.Fatalf("expected first counter 3, got %f", got)
	}
	if got := testutil.ToFloat64(b.counters["statsdash_polls_total"]); got != 1 {
		t.Fatalf("expected second counter 1, got %f", got)
	}
	if n, err := testutil.GatherAndCount(first, "statsdash_polls_total"); err != nil || n != 1 {
		t.Fatalf("expected polls counter in first registry, got %d (%v)", n, err)
	}
}
