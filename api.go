package statsdash

import (
	"io"

	base "github.com/netcriptus/raiden-services/pkg/statsdash"
)

// Re-exported errors for convenience.
var (
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
	ErrChannelSinkFull   = base.ErrChannelSinkFull
)

// Type aliases so consumers can import github.com/netcriptus/raiden-services directly.
type (
	Config          = base.Config
	Policy          = base.Policy
	StatsConfig     = base.StatsConfig
	KeysConfig      = base.KeysConfig
	Counter         = base.Counter
	WebConfig       = base.WebConfig
	LogConfig       = base.LogConfig
	TimescaleConfig = base.TimescaleConfig
	NATSConfig      = base.NATSConfig
	Flow            = base.Flow
	FlowOption      = base.FlowOption
	StreamInOption  = base.StreamInOption
	StreamOutOption = base.StreamOutOption
	Runtime         = base.Runtime
	RuntimeOption   = base.RuntimeOption
	Update          = base.Update
	Point           = base.Point
	Sample          = base.Sample
	Text            = base.Text
	PollStats       = base.PollStats
	PollResult      = base.PollResult
	Snapshot        = base.Snapshot
	UpdateSink      = base.UpdateSink
	Fetcher         = base.Fetcher
	Sink            = base.Sink
	Observability   = base.Observability
	Field           = base.Field
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func DefaultConfig() *Config {
	return base.DefaultConfig()
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func StreamInFetcher(f Fetcher) StreamInOption {
	return base.StreamInFetcher(f)
}

func StreamInBaseURL(u string) StreamInOption {
	return base.StreamInBaseURL(u)
}

func StreamInObservability(obs Observability) StreamInOption {
	return base.StreamInObservability(obs)
}

func StreamOutSink(s Sink) StreamOutOption {
	return base.StreamOutSink(s)
}

func StreamOutObservability(obs Observability) StreamOutOption {
	return base.StreamOutObservability(obs)
}

func StreamOutCallback(name string, fn UpdateSink) StreamOutOption {
	return base.StreamOutCallback(name, fn)
}

func StreamOutHeadless() StreamOutOption {
	return base.StreamOutHeadless()
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithFetcher(f Fetcher) RuntimeOption {
	return base.WithFetcher(f)
}

func WithSink(s Sink) RuntimeOption {
	return base.WithSink(s)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithBaseURL(u string) RuntimeOption {
	return base.WithBaseURL(u)
}

func WithLogWriter(w io.Writer) RuntimeOption {
	return base.WithLogWriter(w)
}

func WithoutWeb() RuntimeOption {
	return base.WithoutWeb()
}

// Sink adapters.
func NewCallbackSink(name string, fn UpdateSink) Sink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (Sink, <-chan Update, func()) {
	return base.NewChannelSink(name, buffer)
}
