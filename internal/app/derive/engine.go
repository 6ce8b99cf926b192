package derive

import (
	"time"

	"github.com/netcriptus/raiden-services/internal/domain"
)

// CounterState remembers the last total reported for a monotonic counter.
type CounterState struct {
	LastTotal float64
	Seen      bool
}

// Delta is the per-interval change of one counter for one tick.
type Delta struct {
	Counter domain.Counter
	Total   float64
	Value   float64
}

// Engine turns cumulative counters into interval deltas and smoothed rates.
// It is not safe for concurrent use; the poller serialises access.
type Engine struct {
	interval time.Duration
	counters []domain.Counter
	state    map[string]*CounterState
}

func NewEngine(interval time.Duration, counters []domain.Counter) *Engine {
	return &Engine{
		interval: interval,
		counters: append([]domain.Counter(nil), counters...),
		state:    make(map[string]*CounterState, len(counters)),
	}
}

func (e *Engine) Counters() []domain.Counter {
	return append([]domain.Counter(nil), e.counters...)
}

// Observe computes deltas for every configured counter present in r. Counters missing
// from r, or carrying a non-numeric value, are skipped and keep their state.
func (e *Engine) Observe(r domain.PollResult) []Delta {
	out := make([]Delta, 0, len(e.counters))
	for _, c := range e.counters {
		total, ok := r.Number(c.Key)
		if !ok {
			continue
		}
		out = append(out, Delta{
			Counter: c,
			Total:   total,
			Value:   e.Update(c.Key, total),
		})
	}
	return out
}

// Update records total for key and returns the delta against the previous total. The
// first observation establishes the baseline and yields 0. A lower total (counter reset)
// produces a negative delta and still becomes the new baseline.
func (e *Engine) Update(key string, total float64) float64 {
	st, ok := e.state[key]
	if !ok {
		e.state[key] = &CounterState{LastTotal: total, Seen: true}
		return 0
	}
	delta := total - st.LastTotal
	st.LastTotal = total
	return delta
}

// State returns a copy of the counter state for key.
func (e *Engine) State(key string) (CounterState, bool) {
	st, ok := e.state[key]
	if !ok {
		return CounterState{}, false
	}
	return *st, true
}

func (e *Engine) Rate(deltas []float64) float64 {
	return Rate(deltas, e.interval)
}

// Rate is the mean of the strictly positive deltas divided by the interval in seconds.
// Zero and negative deltas are left out of both sum and count.
func Rate(deltas []float64, interval time.Duration) float64 {
	if interval <= 0 {
		return 0
	}
	var (
		sum   float64
		count int
	)
	for _, d := range deltas {
		if d > 0 {
			sum += d
			count++
		}
	}
	if count == 0 {
		count = 1
	}
	return sum / float64(count) / interval.Seconds()
}
