package statsdash

import (
	"github.com/netcriptus/raiden-services/internal/adapters/statshttp"
	"github.com/netcriptus/raiden-services/internal/app/config"
	"github.com/netcriptus/raiden-services/internal/domain"
	"github.com/netcriptus/raiden-services/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy controls the poll interval, fetch timeout and window size.
	Policy = ports.Policy
	// StatsConfig points the poller at a node's stats endpoint.
	StatsConfig = statshttp.Config
	// KeysConfig registers chart, text and counter keys.
	KeysConfig = config.KeysConfig
	// Counter describes a monotonic counter and its derived keys.
	Counter = domain.Counter
	// WebConfig configures the dashboard HTTP server.
	WebConfig = config.WebConfig
	// LogConfig sets the log level.
	LogConfig = config.LogConfig
	// TimescaleConfig configures the optional archive sink.
	TimescaleConfig = config.TimescaleConfig
	// NATSConfig configures the optional message bus sink.
	NATSConfig = config.NATSConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return config.Default()
}
