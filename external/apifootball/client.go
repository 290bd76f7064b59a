// Package apifootball is the typed client for the API-Football v3 provider.
// Every operation returns decoded payloads or a typed *Error; responses are
// cached per endpoint and concurrent identical requests are collapsed.
package apifootball

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/pitchsider/match-context/internal/platform/cache"
	"github.com/pitchsider/match-context/internal/platform/logging"
	"github.com/pitchsider/match-context/internal/platform/resilience"
)

const (
	defaultBaseURL   = "https://v3.football.api-sports.io"
	defaultTimeout   = 20 * time.Second
	defaultCacheTTL  = 15 * time.Minute
	maxResponseBytes = 6 << 20
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	CacheTTL       time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	retryBackoff   time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	cache          *cache.Store
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	retryBackoff := cfg.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = 500 * time.Millisecond
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		retryBackoff:   retryBackoff,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
		cache:          cache.NewStore(cacheTTL),
	}
}

// envelope is the provider's uniform response wrapper. The errors field is a
// map on request errors and an empty list otherwise.
type envelope struct {
	Errors   any `json:"errors"`
	Results  int `json:"results"`
	Response any `json:"response"`
}

// getResponse fetches one endpoint through cache, singleflight, breaker, and
// retry. The returned value is the decoded response field.
func (c *Client) getResponse(ctx context.Context, endpoint string, query url.Values) (any, error) {
	key := endpoint + "?" + query.Encode()

	cached, err := c.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		value, err, _ := c.flight.Do(key, func() (any, error) {
			return c.fetch(ctx, endpoint, query)
		})
		return value, err
	})
	if err != nil {
		return nil, err
	}
	return cached, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, query url.Values) (any, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "apifootball circuit breaker rejected request",
				"endpoint", endpoint, "state", c.breaker.State())
			return nil, newError(ErrorCircuitOpen, endpoint, 0, "provider temporarily unavailable", err)
		}
	}

	raw, err := c.executeRequest(ctx, endpoint, query)
	if c.circuitEnabled {
		if err != nil && IsTransient(err) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return nil, newError(ErrorPermanent, endpoint, 0, "decode provider payload", err)
	}

	if msg := providerErrorMessage(env.Errors); msg != "" {
		kind := ErrorPermanent
		if isRateLimitMessage(msg) {
			kind = ErrorTransient
		}
		return nil, newError(kind, endpoint, 0, msg, nil)
	}

	return env.Response, nil
}

func (c *Client) executeRequest(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + endpoint
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(time.Duration(attempt) * c.retryBackoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, newError(ErrorTransient, endpoint, 0, "request cancelled", ctx.Err())
			case <-timer.C:
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, newError(ErrorPermanent, endpoint, 0, "build request", err)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("x-apisports-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = newError(ErrorTransient, endpoint, 0, c.sanitize(err.Error()), nil)
			continue
		}

		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = newError(ErrorTransient, endpoint, resp.StatusCode, "read response body", readErr)
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return raw, nil
		case isRetryableStatus(resp.StatusCode):
			lastErr = newError(ErrorTransient, endpoint, resp.StatusCode, abbreviateBody(raw), nil)
		default:
			return nil, newError(ErrorPermanent, endpoint, resp.StatusCode, abbreviateBody(raw), nil)
		}
	}

	if lastErr == nil {
		lastErr = newError(ErrorTransient, endpoint, 0, "provider request failed", nil)
	}
	c.logger.WarnContext(ctx, "apifootball request failed",
		"endpoint", endpoint, "error", lastErr)
	return nil, lastErr
}

// sanitize removes the API key from error text before it reaches a log line.
func (c *Client) sanitize(value string) string {
	value = strings.TrimSpace(value)
	if c.apiKey != "" {
		value = strings.ReplaceAll(value, c.apiKey, "REDACTED")
	}
	return value
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// providerErrorMessage flattens the envelope's errors field, which the
// provider serializes as either an empty list or a map of messages.
func providerErrorMessage(errs any) string {
	switch v := errs.(type) {
	case map[string]any:
		parts := make([]string, 0, len(v))
		for key, value := range v {
			parts = append(parts, fmt.Sprintf("%s: %v", key, value))
		}
		return strings.Join(parts, "; ")
	case []any:
		if len(v) == 0 {
			return ""
		}
		parts := make([]string, 0, len(v))
		for _, value := range v {
			parts = append(parts, fmt.Sprintf("%v", value))
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}

func isRateLimitMessage(msg string) bool {
	lowered := strings.ToLower(msg)
	return strings.Contains(lowered, "rate") || strings.Contains(lowered, "request limit")
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
