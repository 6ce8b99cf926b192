package store

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/netcriptus/raiden-services/internal/domain"
)

// Kind tells which registry a metric key belongs to.
type Kind int

const (
	KindUnknown Kind = iota
	KindChart
	KindText
)

// Store owns every Series. Chart-backed keys get a rolling window, text-backed keys only
// keep their latest rendered value, and anything else is ignored.
type Store struct {
	mu       sync.RWMutex
	capacity int
	series   map[string]*Series
	order    []string
	text     map[string]bool
	texts    map[string]string
}

// Snapshot is a read-only copy of the store.
type Snapshot struct {
	WindowSize int                        `json:"window_size"`
	Series     map[string][]domain.Sample `json:"series"`
	Texts      map[string]string          `json:"texts"`
	ChartKeys  []string                   `json:"chart_keys"`
	TextKeys   []string                   `json:"text_keys"`
}

func New(capacity int, chartKeys, textKeys []string) (*Store, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("window size must be > 0, got %d", capacity)
	}
	s := &Store{
		capacity: capacity,
		series:   make(map[string]*Series, len(chartKeys)),
		text:     make(map[string]bool, len(textKeys)),
		texts:    make(map[string]string, len(textKeys)),
	}
	for _, k := range chartKeys {
		if k == "" {
			return nil, fmt.Errorf("chart key must not be empty")
		}
		if _, dup := s.series[k]; dup {
			continue
		}
		s.series[k] = NewSeries(k, capacity)
		s.order = append(s.order, k)
	}
	for _, k := range textKeys {
		if k == "" {
			return nil, fmt.Errorf("text key must not be empty")
		}
		if _, clash := s.series[k]; clash {
			return nil, fmt.Errorf("key %q registered as both chart and text", k)
		}
		s.text[k] = true
	}
	return s, nil
}

func (s *Store) Capacity() int { return s.capacity }

func (s *Store) Kind(key string) Kind {
	if _, ok := s.series[key]; ok {
		return KindChart
	}
	if s.text[key] {
		return KindText
	}
	return KindUnknown
}

// Apply runs fn as one transaction under the write lock and returns the Update it built.
// Readers never observe a partially applied tick.
func (s *Store) Apply(tick uint64, fn func(tx *Tx)) domain.Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{s: s, update: domain.Update{Tick: tick}}
	fn(tx)
	return tx.update
}

// Series returns a copy of the window for key.
func (s *Store) Series(key string) ([]domain.Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series, ok := s.series[key]
	if !ok {
		return nil, false
	}
	return series.Samples(), true
}

// Text returns the latest text value for key.
func (s *Store) Text(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.texts[key]
	return v, ok
}

// Len returns the total number of samples held across all windows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, series := range s.series {
		n += series.Len()
	}
	return n
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		WindowSize: s.capacity,
		Series:     make(map[string][]domain.Sample, len(s.series)),
		Texts:      make(map[string]string, len(s.texts)),
		ChartKeys:  append([]string(nil), s.order...),
	}
	for k, series := range s.series {
		snap.Series[k] = series.Samples()
	}
	for k, v := range s.texts {
		snap.Texts[k] = v
	}
	for k := range s.text {
		snap.TextKeys = append(snap.TextKeys, k)
	}
	sort.Strings(snap.TextKeys)
	return snap
}

// Tx is the mutation handle passed to Apply.
type Tx struct {
	s      *Store
	update domain.Update
}

// Append routes value to the registry key belongs to and reports whether anything changed.
func (tx *Tx) Append(key string, ts time.Time, value float64) bool {
	switch tx.s.Kind(key) {
	case KindChart:
		sample := domain.Sample{Timestamp: ts, Value: value}
		tx.s.series[key].Append(sample)
		tx.update.Points = append(tx.update.Points, domain.Point{Key: key, Sample: sample})
		return true
	case KindText:
		return tx.SetText(key, strconv.FormatFloat(value, 'f', -1, 64))
	default:
		return false
	}
}

// SetText updates the display of a text-backed key. Other keys are ignored.
func (tx *Tx) SetText(key, value string) bool {
	if tx.s.Kind(key) != KindText {
		return false
	}
	tx.s.texts[key] = value
	tx.update.Texts = append(tx.update.Texts, domain.Text{Key: key, Value: value})
	return true
}

// Values returns the current window values for a chart key, including appends made
// earlier in this transaction.
func (tx *Tx) Values(key string) []float64 {
	series, ok := tx.s.series[key]
	if !ok {
		return nil
	}
	return series.Values()
}
