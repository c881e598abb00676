package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/Veraticus/docmatch/internal/common"
	"github.com/Veraticus/docmatch/internal/model"
)

// ClientConfig configures the remote certainty model client.
type ClientConfig struct {
	Endpoint          string
	Timeout           time.Duration
	RetryDelay        time.Duration
	MaxRetryDelay     time.Duration
	CacheTTL          time.Duration
	RequestsPerSecond float64
	Breaker           BreakerConfig
	MaxAttempts       int
	Burst             int
}

// Client calls a remote certainty model over HTTP.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *Breaker
	cache      *scoreCache
	endpoint   string
	retryOpts  common.RetryOptions
}

type scoreRequest struct {
	Documents [model.DocumentCount]model.Document `json:"documents"`
}

type scoreResponse struct {
	Certainty *float64 `json:"certainty"`
}

// NewClient creates a client for the model at cfg.Endpoint.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: scorer endpoint", common.ErrMissingConfig)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = 5 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}

	return &Client{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: NewBreaker(cfg.Breaker),
		cache:   newScoreCache(cfg.CacheTTL),
		retryOpts: common.RetryOptions{
			MaxAttempts:  cfg.MaxAttempts,
			InitialDelay: cfg.RetryDelay,
			MaxDelay:     cfg.MaxRetryDelay,
			Multiplier:   2.0,
		},
	}, nil
}

// Score implements Scorer.
func (c *Client) Score(ctx context.Context, a, b model.Document) (float64, error) {
	key := cacheKey(a, b)
	if certainty, ok := c.cache.get(key); ok {
		slog.Debug("Using cached certainty", "a", a.ID, "b", b.ID)
		return certainty, nil
	}

	var certainty float64
	err := common.WithRetry(ctx, func() error {
		return c.breaker.Do(func() error {
			var callErr error
			certainty, callErr = c.call(ctx, a, b)
			return callErr
		})
	}, c.retryOpts)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrScorerUnavailable, err)
	}

	c.cache.set(key, certainty)
	return certainty, nil
}

func (c *Client) call(ctx context.Context, a, b model.Document) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	body, err := json.Marshal(scoreRequest{Documents: [model.DocumentCount]model.Document{a, b}})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0, err
		}
		return 0, &common.RetryableError{Err: fmt.Errorf("request failed: %w", err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &common.RetryableError{Err: fmt.Errorf("failed to read response: %w", err), Retryable: true}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return 0, common.ErrRateLimit
	case resp.StatusCode >= http.StatusInternalServerError:
		return 0, &common.RetryableError{
			Err:       fmt.Errorf("model server error %d: %s", resp.StatusCode, string(respBody)),
			Retryable: true,
		}
	case resp.StatusCode != http.StatusOK:
		return 0, &common.RetryableError{
			Err:       fmt.Errorf("model request rejected %d: %s", resp.StatusCode, string(respBody)),
			Retryable: false,
		}
	}

	var parsed scoreResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Certainty == nil {
		return 0, errors.New("response has no certainty")
	}
	if *parsed.Certainty < 0 || *parsed.Certainty > 1 {
		return 0, fmt.Errorf("certainty %v outside [0,1]", *parsed.Certainty)
	}

	return *parsed.Certainty, nil
}

// BreakerState returns the state of the client's circuit breaker.
func (c *Client) BreakerState() BreakerState {
	return c.breaker.State()
}

// Close releases the client's background resources.
func (c *Client) Close() error {
	c.cache.Close()
	return nil
}
