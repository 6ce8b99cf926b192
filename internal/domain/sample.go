package domain

import "time"

// Sample is one charted observation of a metric.
type Sample struct {
	Timestamp time.Time `json:"ts"`
	Value     float64   `json:"value"`
}

// Point is a Sample tagged with the metric key it belongs to.
type Point struct {
	Key string `json:"key"`
	Sample
}

// Text is the latest scalar shown for a text-backed key.
type Text struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Update is everything a single successful tick produced. Sinks receive it as one unit.
type Update struct {
	Tick   uint64  `json:"tick"`
	Points []Point `json:"points"`
	Texts  []Text  `json:"texts"`
}

// Empty reports whether the update carries nothing to render.
func (u Update) Empty() bool {
	return len(u.Points) == 0 && len(u.Texts) == 0
}

// Counter describes a monotonic counter and the keys its derived values are published under.
type Counter struct {
	Key      string `yaml:"key" json:"key"`
	DeltaKey string `yaml:"delta_key" json:"delta_key"`
	RateKey  string `yaml:"rate_key" json:"rate_key"`
}

// PollStats summarises poller health.
type PollStats struct {
	TotalPolls      int64         `json:"total_polls"`
	SuccessfulPolls int64         `json:"successful_polls"`
	FailedPolls     int64         `json:"failed_polls"`
	LastDuration    time.Duration `json:"last_duration_ns"`
	LastError       string        `json:"last_error,omitempty"`
	LastSuccess     time.Time     `json:"last_success,omitempty"`
}
