package statshttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/netcriptus/raiden-services/internal/domain"
	"github.com/netcriptus/raiden-services/internal/ports"
)

const DefaultPath = "/api/v1/_debug/stats"

var (
	// ErrNoBaseURL is returned when a fetch is attempted before a base URL is set.
	ErrNoBaseURL = errors.New("stats: base url is empty")
	// ErrInvalidBaseURL is returned when the base URL cannot address an HTTP endpoint.
	ErrInvalidBaseURL = errors.New("stats: invalid base url")
)

// Config captures where the stats endpoint lives.
type Config struct {
	BaseURL string `yaml:"base_url"`
	Path    string `yaml:"path"`
}

func (c *Config) ApplyDefaults() {
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if !strings.HasPrefix(c.Path, "/") {
		c.Path = "/" + c.Path
	}
}

// Validate only checks the fixed part. The base URL may be empty or broken at startup
// since it is editable at runtime.
func (c *Config) Validate() error {
	if c.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

// Fetcher performs one GET against <base-url><path> per call.
type Fetcher struct {
	mu         sync.RWMutex
	baseURL    string
	path       string
	httpClient *http.Client
}

func NewFetcher(cfg Config, opts ...FetcherOption) *Fetcher {
	cfg.ApplyDefaults()
	f := &Fetcher{
		baseURL: strings.TrimSpace(cfg.BaseURL),
		path:    cfg.Path,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Fetcher) BaseURL() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.baseURL
}

func (f *Fetcher) SetBaseURL(u string) {
	f.mu.Lock()
	f.baseURL = strings.TrimSpace(u)
	f.mu.Unlock()
}

// Endpoint resolves the full URL for the current base URL.
func (f *Fetcher) Endpoint() (string, error) {
	base := f.BaseURL()
	if base == "" {
		return "", ErrNoBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidBaseURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidBaseURL)
	}
	return strings.TrimRight(base, "/") + f.path, nil
}

func (f *Fetcher) Fetch(ctx context.Context) (domain.PollResult, error) {
	endpoint, err := f.Endpoint()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get stats, expected status code 200, got %d", resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var result domain.PollResult
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	if result == nil {
		return nil, errors.New("decode stats: expected a JSON object, got null")
	}
	return result, nil
}

// FetcherOption configures optional Fetcher settings.
type FetcherOption func(f *Fetcher)

// WithHTTPClient sets the http client used for stats requests.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient = client
	}
}

var _ ports.Fetcher = (*Fetcher)(nil)
