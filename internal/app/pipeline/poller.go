package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/netcriptus/raiden-services/internal/app/derive"
	"github.com/netcriptus/raiden-services/internal/app/store"
	"github.com/netcriptus/raiden-services/internal/domain"
	"github.com/netcriptus/raiden-services/internal/ports"
)

// Poller owns the polling loop state: the engine, the synthetic clock and the tick count.
// Tick holds mu for the whole fetch/derive/apply cycle, so there is a single mutator.
type Poller struct {
	mu      sync.Mutex
	fetcher ports.Fetcher
	store   *store.Store
	engine  *derive.Engine
	sink    ports.Sink
	policy  ports.Policy
	obs     ports.Observability

	start   time.Time
	clock   time.Time
	ticks   uint64
	derived map[string]bool
	stats   statsTracker

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type PollerOption func(*Poller)

// WithStartTime pins the synthetic clock origin.
func WithStartTime(t time.Time) PollerOption {
	return func(p *Poller) {
		p.start = t
	}
}

func NewPoller(f ports.Fetcher, st *store.Store, eng *derive.Engine, snk ports.Sink, pol ports.Policy, obs ports.Observability, opts ...PollerOption) (*Poller, error) {
	if f == nil {
		return nil, errors.New("fetcher is required")
	}
	if st == nil {
		return nil, errors.New("store is required")
	}
	if eng == nil {
		return nil, errors.New("engine is required")
	}
	if snk == nil {
		return nil, errors.New("sink is required")
	}
	if obs == nil {
		return nil, errors.New("observability is required")
	}
	if pol.Interval <= 0 {
		return nil, fmt.Errorf("policy.interval must be > 0, got %s", pol.Interval)
	}
	if pol.FetchTimeout <= 0 {
		pol.FetchTimeout = pol.Interval
	}

	p := &Poller{
		fetcher: f,
		store:   st,
		engine:  eng,
		sink:    snk,
		policy:  pol,
		obs:     obs,
		derived: make(map[string]bool),
	}
	for _, c := range eng.Counters() {
		p.derived[c.DeltaKey] = true
		if c.RateKey != "" {
			p.derived[c.RateKey] = true
		}
	}
	for _, o := range opts {
		o(p)
	}
	if p.start.IsZero() {
		p.start = time.Now()
	}
	p.clock = p.start
	return p, nil
}

// Tick performs one poll cycle. A failed fetch leaves every window, counter and the
// clock untouched and is returned after being logged. A fetch aborted because ctx
// was cancelled is returned without being recorded.
func (p *Poller) Tick(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	started := time.Now()
	fctx, cancel := context.WithTimeout(ctx, p.policy.FetchTimeout)
	result, err := p.fetcher.Fetch(fctx)
	cancel()
	elapsed := time.Since(started)

	if err != nil && ctx.Err() != nil {
		// Stopped mid-fetch: not a poll outcome.
		return ctx.Err()
	}
	p.obs.ObserveLatency("statsdash_poll_latency_seconds", elapsed.Seconds())

	if err != nil {
		p.stats.recordPoll(false, elapsed, err)
		p.obs.IncCounter("statsdash_poll_failures_total", 1)
		p.obs.LogError("poll_failed", err, ports.Field{Key: "base_url", Value: p.fetcher.BaseURL()})
		return err
	}
	p.stats.recordPoll(true, elapsed, nil)
	p.obs.IncCounter("statsdash_polls_total", 1)

	ts := p.clock
	p.clock = p.clock.Add(p.policy.Interval)
	p.ticks++

	deltas := p.engine.Observe(result)
	update := p.store.Apply(p.ticks, func(tx *store.Tx) {
		for _, d := range deltas {
			tx.Append(d.Counter.DeltaKey, ts, d.Value)
			if d.Counter.RateKey == "" {
				continue
			}
			rate := p.engine.Rate(tx.Values(d.Counter.DeltaKey))
			tx.SetText(d.Counter.RateKey, strconv.FormatFloat(rate, 'f', 2, 64))
			p.obs.SetRate(d.Counter.RateKey, rate)
		}
		for _, key := range result.Keys() {
			if p.derived[key] {
				continue
			}
			switch p.store.Kind(key) {
			case store.KindChart:
				if v, ok := result.Number(key); ok {
					tx.Append(key, ts, v)
				}
			case store.KindText:
				if v, ok := result.Scalar(key); ok {
					tx.SetText(key, v)
				}
			}
		}
	})
	p.obs.SetGauge("statsdash_window_samples", float64(p.store.Len()))

	if update.Empty() {
		return nil
	}
	if err := p.sink.Push(update); err != nil {
		p.obs.IncCounter("statsdash_sink_failures_total", 1)
		p.obs.LogError("sink_push_failed", err,
			ports.Field{Key: "sink", Value: p.sink.Name()},
			ports.Field{Key: "tick", Value: update.Tick})
	}
	return nil
}

// Run ticks immediately, then re-arms the timer after every tick regardless of its
// outcome until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		_ = p.Tick(ctx)
		timer.Reset(p.policy.Interval)
	}
}

// Start launches Run on its own goroutine. Stop cancels it and waits for the current
// tick to finish.
func (p *Poller) Start(ctx context.Context) error {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.cancel != nil {
		return errors.New("poller already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		p.Run(runCtx)
	}(p.done)

	p.obs.LogInfo("poller_started",
		ports.Field{Key: "interval", Value: p.policy.Interval.String()},
		ports.Field{Key: "window_size", Value: p.store.Capacity()},
		ports.Field{Key: "base_url", Value: p.fetcher.BaseURL()})
	return nil
}

func (p *Poller) Stop() {
	p.runMu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) Stats() domain.PollStats {
	return p.stats.snapshot()
}

// Ticks returns the number of successful ticks so far.
func (p *Poller) Ticks() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticks
}

func (p *Poller) Interval() time.Duration { return p.policy.Interval }
