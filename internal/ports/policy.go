package ports

import "time"

type Policy struct {
	Interval     time.Duration `yaml:"interval"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	WindowSize   int           `yaml:"window_size"`
}
