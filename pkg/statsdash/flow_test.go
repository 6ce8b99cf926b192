package statsdash

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestConfFromConfigAndStreamBuilder(t *testing.T) {
	cfg := testConfig()

	flow, err := ConfFromConfig(cfg)
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	if flow.Config() != cfg {
		t.Fatalf("expected Config to be returned verbatim")
	}

	fetcher := &stubFetcher{}
	sink := &stubSink{}

	rt, err := flow.
		StreamIN(
			StreamInFetcher(fetcher),
			StreamInBaseURL("http://override:5001"),
			StreamInObservability(&stubObservability{}),
		).
		StreamOUT(
			StreamOutSink(sink),
			StreamOutCallback("cb", func(Update) error { return nil }),
			StreamOutObservability(&stubObservability{}),
			StreamOutHeadless(),
		)
	if err != nil {
		t.Fatalf("StreamOUT returned error: %v", err)
	}
	if rt.fetcher != fetcher {
		t.Fatalf("expected custom fetcher to be wired")
	}
	if got := rt.Sinks(); got != "fanout(stub,cb)" {
		t.Fatalf("unexpected sinks %q", got)
	}
	if rt.hub != nil {
		t.Fatalf("expected headless runtime")
	}
	if got := fetcher.BaseURL(); got != "http://override:5001" {
		t.Fatalf("expected base url override on the fetcher, got %q", got)
	}
	if cfg.Stats.BaseURL != "http://node:5001" {
		t.Fatalf("expected caller config to be left alone, got %q", cfg.Stats.BaseURL)
	}
}

func TestStreamInFetcherReceivesConfiguredBaseURL(t *testing.T) {
	flow, err := ConfFromConfig(testConfig())
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}

	fetcher := &stubFetcher{}
	rt, err := flow.
		StreamIN(
			StreamInFetcher(fetcher),
			StreamInObservability(&stubObservability{}),
		).
		StreamOUT(StreamOutHeadless())
	if err != nil {
		t.Fatalf("StreamOUT returned error: %v", err)
	}
	if got := rt.BaseURL(); got != "http://node:5001" {
		t.Fatalf("expected stats.base_url on the injected fetcher, got %q", got)
	}
}

func TestConfLoadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statsdash.yaml")
	data := "stats:\n  base_url: http://node:5001\npolicy:\n  window_size: 5\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flow, err := Conf(path)
	if err != nil {
		t.Fatalf("Conf returned error: %v", err)
	}
	if flow.Config().Policy.WindowSize != 5 {
		t.Fatalf("unexpected window size %d", flow.Config().Policy.WindowSize)
	}

	if _, err := Conf(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestFlowRunUsesStreamOutOptions(t *testing.T) {
	flow, err := ConfFromConfig(testConfig())
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	// Stop immediately; Run must still shut down cleanly.
	cancel()
	if err := flow.StreamIN(
		StreamInFetcher(&stubFetcher{}),
		StreamInObservability(&stubObservability{}),
	).Run(ctx,
		StreamOutSink(&stubSink{}),
		StreamOutHeadless(),
	); err != nil {
		t.Fatalf("Run returned unexpected error: %v", err)
	}
}
