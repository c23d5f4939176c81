package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"cinepick/internal/logging"
	"cinepick/internal/metrics"
)

// ErrBreakerOpen is returned while the circuit breaker rejects calls.
var ErrBreakerOpen = errors.New("tmdb circuit breaker open")

// Catalog defines the TMDB operations used by the recommendation pipeline.
type Catalog interface {
	SearchMovies(ctx context.Context, query string) (*MoviePage, error)
	SearchPerson(ctx context.Context, name string) (*PersonPage, error)
	PersonMovieCredits(ctx context.Context, personID int64) (*Credits, error)
	MovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error)
	MovieVideos(ctx context.Context, movieID int64) (*VideoList, error)
	DiscoverMovies(ctx context.Context, opts DiscoverOptions) (*MoviePage, error)
}

// Timeouts holds the per-endpoint deadlines.
type Timeouts struct {
	Search   time.Duration
	Discover time.Duration
	Person   time.Duration
	Details  time.Duration
	Videos   time.Duration
}

// DefaultTimeouts returns the standard per-endpoint deadlines.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Search:   2 * time.Second,
		Discover: 2 * time.Second,
		Person:   3 * time.Second,
		Details:  3 * time.Second,
		Videos:   800 * time.Millisecond,
	}
}

// BreakerSettings configures the circuit breaker.
type BreakerSettings struct {
	FailureThreshold uint32
	Cooldown         time.Duration
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	timeouts   Timeouts
	limiter    *rate.Limiter
	breaker    BreakerSettings
	cb         *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
}

var _ Catalog = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeouts overrides the per-endpoint deadlines. Zero values keep the default.
func WithTimeouts(t Timeouts) Option {
	return func(c *Client) {
		if t.Search > 0 {
			c.timeouts.Search = t.Search
		}
		if t.Discover > 0 {
			c.timeouts.Discover = t.Discover
		}
		if t.Person > 0 {
			c.timeouts.Person = t.Person
		}
		if t.Details > 0 {
			c.timeouts.Details = t.Details
		}
		if t.Videos > 0 {
			c.timeouts.Videos = t.Videos
		}
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithBreaker configures the circuit breaker.
func WithBreaker(settings BreakerSettings) Option {
	return func(c *Client) {
		if settings.FailureThreshold > 0 {
			c.breaker.FailureThreshold = settings.FailureThreshold
		}
		if settings.Cooldown > 0 {
			c.breaker.Cooldown = settings.Cooldown
		}
	}
}

// WithLogger attaches a logger for breaker transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "tmdb")
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		timeouts:   DefaultTimeouts(),
		limiter:    rate.NewLimiter(rate.Limit(20), 10),
		breaker:    BreakerSettings{FailureThreshold: 5, Cooldown: 30 * time.Second},
		logger:     logging.NewComponentLogger(nil, "tmdb"),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "tmdb",
		MaxRequests: 1,
		Timeout:     client.breaker.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= client.breaker.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var se *StatusError
			return errors.As(err, &se) && se.StatusCode < http.StatusInternalServerError && se.StatusCode != http.StatusTooManyRequests
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(float64(to))
			logging.WarnWithContext(client.logger, "tmdb circuit breaker changed state", "tmdb_breaker_state",
				logging.String("from", from.String()),
				logging.String("to", to.String()),
				logging.String(logging.FieldErrorHint, "check TMDB availability and API key"),
				logging.String(logging.FieldImpact, "catalog requests fail fast while open"),
			)
		},
	})
	return client, nil
}

// StatusError reports a non-200 TMDB response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Latency    time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb %s returned %d (latency=%v)", e.Endpoint, e.StatusCode, e.Latency)
}

// get performs one GET against path with the endpoint's deadline, the shared
// limiter, and the breaker, decoding the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, timeout time.Duration, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	outcome := "ok"
	defer func() {
		metrics.RecordTMDBRequest(endpoint, outcome, time.Since(start))
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		outcome = "rate_limited"
		return fmt.Errorf("tmdb %s rate limit wait: %w", endpoint, err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpointURL, err := url.Parse(c.baseURL + path)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	endpointURL.RawQuery = params.Encode()

	body, err := c.cb.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		requestStart := time.Now()
		resp, err := c.httpClient.Do(req)
		latency := time.Since(requestStart)
		if err != nil {
			return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Latency: latency}
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read tmdb response: %w", err)
		}
		return data, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "breaker_open"
			return fmt.Errorf("tmdb %s: %w", endpoint, ErrBreakerOpen)
		}
		outcome = "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		outcome = "decode_error"
		return fmt.Errorf("decode tmdb %s response: %w", endpoint, err)
	}
	return nil
}
