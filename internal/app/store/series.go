package store

import "github.com/netcriptus/raiden-services/internal/domain"

// Series is a bounded window of samples that preserves FIFO ordering. Appending to a full
// series evicts the oldest sample first.
type Series struct {
	key  string
	data []domain.Sample
	cap  int
}

func NewSeries(key string, capacity int) *Series {
	if capacity <= 0 {
		capacity = 1
	}
	return &Series{
		key:  key,
		data: make([]domain.Sample, 0, capacity),
		cap:  capacity,
	}
}

func (s *Series) Key() string { return s.key }

func (s *Series) Cap() int { return s.cap }

func (s *Series) Len() int { return len(s.data) }

// Append adds sample at the tail and reports whether the oldest sample was evicted.
func (s *Series) Append(sample domain.Sample) bool {
	evicted := false
	if len(s.data) >= s.cap {
		copy(s.data, s.data[1:])
		s.data = s.data[:len(s.data)-1]
		evicted = true
	}
	s.data = append(s.data, sample)
	return evicted
}

// Samples returns a copy of the window, oldest first.
func (s *Series) Samples() []domain.Sample {
	out := make([]domain.Sample, len(s.data))
	copy(out, s.data)
	return out
}

// Values returns the sample values, oldest first.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.data))
	for i, sample := range s.data {
		out[i] = sample.Value
	}
	return out
}
