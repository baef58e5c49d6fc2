package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/problem-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/problem-search/pkg/resilience"
)

const maxPageBytes = 16 << 20

// FetcherConfig controls outbound HTTP behaviour.
type FetcherConfig struct {
	UserAgent      string
	RequestTimeout time.Duration
	MaxAttempts    int
	RetryDelay     time.Duration
}

// Fetcher downloads listing pages. Each platform gets its own circuit
// breaker so one failing site does not slow the others down.
type Fetcher struct {
	client   *http.Client
	cfg      FetcherConfig
	metrics  *metrics.Metrics
	mu       sync.Mutex
	breakers map[string]*resilience.CircuitBreaker
	logger   *slog.Logger
}

// NewFetcher returns a Fetcher. m may be nil.
func NewFetcher(cfg FetcherConfig, m *metrics.Metrics) *Fetcher {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	return &Fetcher{
		client:   &http.Client{Timeout: cfg.RequestTimeout},
		cfg:      cfg,
		metrics:  m,
		breakers: make(map[string]*resilience.CircuitBreaker),
		logger:   slog.Default().With("component", "scraper-fetcher"),
	}
}

// Fetch GETs pageURL for platform with retry. 4xx answers fail immediately;
// transport errors and 5xx answers are retried.
func (f *Fetcher) Fetch(ctx context.Context, platform, pageURL string) ([]byte, error) {
	cb := f.breaker(platform)
	var body []byte
	err := resilience.Retry(ctx, "fetch "+platform, resilience.RetryConfig{
		MaxAttempts:  f.cfg.MaxAttempts,
		InitialDelay: f.cfg.RetryDelay,
	}, func() error {
		return cb.Execute(func() error {
			b, err := f.get(ctx, pageURL)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrUpstream, pageURL, err)
	}
	f.logger.Debug("page fetched", "platform", platform, "url", pageURL, "bytes", len(body))
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, resilience.Permanent(err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, resilience.Permanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
}

func (f *Fetcher) breaker(platform string) *resilience.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := f.breakers[platform]; ok {
		return cb
	}
	cfg := resilience.CircuitBreakerConfig{FailureThreshold: 5, ResetTimeout: 30 * time.Second}
	if f.metrics != nil {
		gauge := f.metrics.CircuitBreakerState
		cfg.OnStateChange = func(name string, s resilience.State) {
			gauge.WithLabelValues(name).Set(float64(s))
		}
	}
	cb := resilience.NewCircuitBreaker(platform, cfg)
	f.breakers[platform] = cb
	return cb
}
