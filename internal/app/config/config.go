package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/netcriptus/raiden-services/internal/adapters/statshttp"
	"github.com/netcriptus/raiden-services/internal/domain"
	"github.com/netcriptus/raiden-services/internal/ports"
)

type Config struct {
	Policy    ports.Policy     `yaml:"policy"`
	Stats     statshttp.Config `yaml:"stats"`
	Keys      KeysConfig       `yaml:"keys"`
	Web       WebConfig        `yaml:"web"`
	Log       LogConfig        `yaml:"log"`
	Timescale TimescaleConfig  `yaml:"timescale"`
	NATS      NATSConfig       `yaml:"nats"`
}

// KeysConfig registers which metric keys are charted, which are shown as text, and which
// are monotonic counters to derive deltas and rates from.
type KeysConfig struct {
	Chart    []string         `yaml:"chart"`
	Text     []string         `yaml:"text"`
	Counters []domain.Counter `yaml:"counters"`
}

type WebConfig struct {
	Addr         string `yaml:"addr"`
	ClientBuffer int    `yaml:"client_buffer"`
	Disabled     bool   `yaml:"disabled"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TimescaleConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Normalize applies defaults and validates a programmatically built Config.
func (c *Config) Normalize() error {
	c.applyDefaults()
	return c.validate()
}

func (c *Config) applyDefaults() {
	if c.Policy.Interval == 0 {
		c.Policy.Interval = 3 * time.Second
	}
	if c.Policy.FetchTimeout == 0 {
		c.Policy.FetchTimeout = c.Policy.Interval
	}
	if c.Policy.WindowSize == 0 {
		c.Policy.WindowSize = 20
	}
	if len(c.Keys.Chart) == 0 && len(c.Keys.Text) == 0 && len(c.Keys.Counters) == 0 {
		c.Keys.Chart = []string{"online_nodes"}
		c.Keys.Text = []string{"total_successful_routes"}
		c.Keys.Counters = []domain.Counter{{
			Key:      "total_successful_routes",
			DeltaKey: "new_successful_routes",
			RateKey:  "tps",
		}}
	}
	for _, ctr := range c.Keys.Counters {
		if ctr.DeltaKey != "" {
			c.Keys.Chart = appendUnique(c.Keys.Chart, ctr.DeltaKey)
		}
		if ctr.RateKey != "" {
			c.Keys.Text = appendUnique(c.Keys.Text, ctr.RateKey)
		}
	}
	if c.Web.Addr == "" {
		c.Web.Addr = ":8080"
	}
	if c.Web.ClientBuffer == 0 {
		c.Web.ClientBuffer = 16
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Timescale.Table == "" {
		c.Timescale.Table = "dashboard_samples"
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = "statsdash"
	}

	c.Stats.ApplyDefaults()
}

func (c *Config) validate() error {
	if c.Policy.Interval <= 0 {
		return fmt.Errorf("policy.interval must be > 0")
	}
	if c.Policy.FetchTimeout < 0 {
		return fmt.Errorf("policy.fetch_timeout must not be negative")
	}
	if c.Policy.WindowSize <= 0 {
		return fmt.Errorf("policy.window_size must be > 0")
	}
	if err := c.Stats.Validate(); err != nil {
		return fmt.Errorf("stats config: %w", err)
	}
	text := make(map[string]bool, len(c.Keys.Text))
	for _, k := range c.Keys.Text {
		if k == "" {
			return fmt.Errorf("keys.text contains an empty key")
		}
		text[k] = true
	}
	for _, k := range c.Keys.Chart {
		if k == "" {
			return fmt.Errorf("keys.chart contains an empty key")
		}
		if text[k] {
			return fmt.Errorf("key %q is listed as both chart and text", k)
		}
	}
	seen := map[string]map[string]bool{"key": {}, "delta_key": {}, "rate_key": {}}
	for i, ctr := range c.Keys.Counters {
		if ctr.Key == "" {
			return fmt.Errorf("keys.counters[%d].key is required", i)
		}
		if ctr.DeltaKey == "" {
			return fmt.Errorf("keys.counters[%d].delta_key is required", i)
		}
		if ctr.DeltaKey == ctr.Key {
			return fmt.Errorf("keys.counters[%d]: delta_key must differ from key", i)
		}
		for field, v := range map[string]string{"key": ctr.Key, "delta_key": ctr.DeltaKey, "rate_key": ctr.RateKey} {
			if v == "" {
				continue
			}
			if seen[field][v] {
				return fmt.Errorf("keys.counters[%d].%s %q is used by another counter", i, field, v)
			}
			seen[field][v] = true
		}
	}
	if !c.Web.Disabled && c.Web.Addr == "" {
		return fmt.Errorf("web.addr is required")
	}
	if c.Web.ClientBuffer < 0 {
		return fmt.Errorf("web.client_buffer must not be negative")
	}
	return nil
}

func appendUnique(keys []string, k string) []string {
	for _, existing := range keys {
		if existing == k {
			return keys
		}
	}
	return append(keys, k)
}
