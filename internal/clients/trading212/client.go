// Package trading212 provides a client for the Trading212 public API
package trading212

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/investflow/internal/apperr"
	"github.com/bobmcallan/investflow/internal/common"
	"github.com/bobmcallan/investflow/internal/interfaces"
	"github.com/bobmcallan/investflow/internal/models"
)

const (
	DefaultLiveURL    = "https://live.trading212.com/api/v0"
	DefaultDemoURL    = "https://demo.trading212.com/api/v0"
	DefaultTimeout    = 30 * time.Second
	DefaultRateLimit  = 1 // requests per second
	DefaultMaxRetries = 2
	DefaultBackoff    = 500 * time.Millisecond

	portfolioPath = "/equity/portfolio"
	maxBackoff    = 30 * time.Second
	maxBodyBytes  = 10 << 20
)

// Client implements the PositionFeed interface
type Client struct {
	liveURL    string
	demoURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	validate   *validator.Validate
	logger     *common.Logger
}

var _ interfaces.PositionFeed = (*Client)(nil)

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURLs sets the live and demo base URLs
func WithBaseURLs(live, demo string) ClientOption {
	return func(c *Client) {
		if live != "" {
			c.liveURL = live
		}
		if demo != "" {
			c.demoURL = demo
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRetry sets how many times a rate-limited or failed-to-connect request
// is retried, and the initial backoff, which doubles per attempt.
func WithRetry(maxRetries int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

// NewClient creates a new Trading212 client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		liveURL: DefaultLiveURL,
		demoURL: DefaultDemoURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		validate:   common.NewValidator(),
		logger:     common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is a non-success response from the Trading212 API
type APIError struct {
	StatusCode int
	Status     string
	Body       string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Trading212 API error: %s (status: %d): %s", e.Status, e.StatusCode, e.Body)
}

// classify maps a response status to the application error taxonomy.
func classify(apiErr *APIError) *apperr.Error {
	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		return apperr.Wrap(apperr.ErrInvalidAPIKey, apiErr)
	case http.StatusForbidden:
		return apperr.Wrap(apperr.ErrForbidden, apiErr)
	case http.StatusTooManyRequests:
		return apperr.Wrap(apperr.ErrRateLimited, apiErr)
	default:
		e := apperr.UpstreamStatus(apiErr.StatusCode, http.StatusText(apiErr.StatusCode))
		e.Internal = apiErr
		return e
	}
}

// FetchPositions retrieves all open positions for the account behind
// credential. Rate-limited and connection failures are retried with
// exponential backoff; every other failure is returned at once.
func (c *Client) FetchPositions(ctx context.Context, credential string, sandbox bool) ([]models.RawPosition, error) {
	if credential == "" {
		return nil, apperr.Validation("API key is required.")
	}

	baseURL := c.liveURL
	if sandbox {
		baseURL = c.demoURL
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoffFor(attempt, lastErr)
			c.logger.Warn().Err(lastErr).Int("attempt", attempt).Dur("wait", wait).Msg("Retrying Trading212 request")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, apperr.Wrap(apperr.ErrTransport, ctx.Err())
			}
		}

		positions, err := c.fetch(ctx, baseURL, credential)
		if err == nil {
			return positions, nil
		}
		lastErr = err
		if !apperr.Retryable(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) backoffFor(attempt int, lastErr error) time.Duration {
	wait := c.backoff << (attempt - 1)
	var apiErr *APIError
	if errors.As(lastErr, &apiErr) && apiErr.RetryAfter > wait {
		wait = apiErr.RetryAfter
	}
	if wait > maxBackoff {
		wait = maxBackoff
	}
	return wait
}

// fetch performs one rate-limited GET of the portfolio endpoint
func (c *Client) fetch(ctx context.Context, baseURL, credential string) ([]models.RawPosition, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperr.Wrap(apperr.ErrTransport, fmt.Errorf("rate limit wait: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+portfolioPath, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", credential)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", req.URL.String()).Msg("Trading212 API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrTransport, fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrTransport, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       truncate(string(body), 512),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
		return nil, classify(apiErr)
	}

	var positions []models.RawPosition
	if err := json.Unmarshal(body, &positions); err != nil {
		return nil, apperr.Wrap(apperr.ErrBadPayload, fmt.Errorf("failed to decode response: %w", err))
	}
	if positions == nil {
		return nil, apperr.Wrap(apperr.ErrBadPayload, errors.New("response is not a list of positions"))
	}
	for i := range positions {
		if err := c.validate.Struct(positions[i]); err != nil {
			return nil, apperr.Wrap(apperr.ErrBadPayload, fmt.Errorf("position %d: %s", i, common.DescribeValidation(err)))
		}
	}

	c.logger.Info().Int("positions", len(positions)).Dur("elapsed", time.Since(start)).Msg("Trading212 positions fetched")
	return positions, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
