// Package client provides the HTTP client for the paginated customer API,
// with per-page retry, backoff and an optional Redis page cache.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/customer-pipeline/pkg/cache"
	"github.com/Sternrassler/customer-pipeline/pkg/customer"
	"github.com/Sternrassler/customer-pipeline/pkg/pagination"
	"github.com/rs/zerolog"
)

// UsersPath is the endpoint serving customer pages.
const UsersPath = "/users"

// PageResponse is the decoded body of one users page. Only the fields
// pagination depends on are read; page, per_page and total are ignored.
type PageResponse struct {
	// TotalPages is nil when the body carries no usable integral count
	TotalPages *int
	Data       []customer.RawRecord
}

// pageBody is the wire shape of a users page.
type pageBody struct {
	TotalPages json.RawMessage      `json:"total_pages"`
	Data       []customer.RawRecord `json:"data"`
}

// Client fetches customer pages from the upstream API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	config     Config
	cache      *cache.Manager
	sleep      sleepFunc
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the API, e.g. "https://reqres.in/api"
	BaseURL string

	// APIKey is sent as x-api-key when set
	APIKey string

	// User-Agent header
	UserAgent string

	// Timeout bounds a single HTTP request
	Timeout time.Duration

	// Retry policy applied to every page
	Retry RetryConfig

	// Cache is optional; nil disables page caching
	Cache *cache.Manager

	// Logger receives all client log output
	Logger zerolog.Logger
}

// DefaultConfig returns a default configuration for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "customer-pipeline/0.1.0",
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
		Logger:    zerolog.Nop(),
	}
}

// New creates a new customer API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url must be an absolute http(s) url (got %q)", cfg.BaseURL)
	}

	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be >= 1 (got %d)", cfg.Retry.MaxAttempts)
	}

	if cfg.Retry.InitialBackoff <= 0 {
		return nil, fmt.Errorf("initial backoff must be > 0 (got %v)", cfg.Retry.InitialBackoff)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		config:  cfg,
		cache:   cfg.Cache,
		sleep:   sleepContext,
		logger:  cfg.Logger.With().Str("component", "customer-client").Logger(),
	}, nil
}

// FetchAll walks every page from 1 and returns all raw records in page
// order. A page that fails after all retries ends the walk; the failure is
// logged and the records fetched so far are returned.
func (c *Client) FetchAll(ctx context.Context) []customer.RawRecord {
	return pagination.Collect[customer.RawRecord](ctx, pagination.FetchFunc[customer.RawRecord](
		func(ctx context.Context, page int) (pagination.Page[customer.RawRecord], error) {
			resp, err := c.FetchPage(ctx, page)
			if err != nil {
				return pagination.Page[customer.RawRecord]{}, err
			}
			return pagination.Page[customer.RawRecord]{Data: resp.Data, TotalPages: resp.TotalPages}, nil
		},
	), c.logger)
}

// FetchPage fetches one page, retrying rate limits, HTTP errors and
// transport failures with exponential backoff.
func (c *Client) FetchPage(ctx context.Context, page int) (*PageResponse, error) {
	logger := c.logger.With().Int("page", page).Logger()
	key := cache.CacheKey{
		Endpoint:    UsersPath,
		QueryParams: url.Values{"page": []string{strconv.Itoa(page)}},
	}

	if resp, ok := c.fromCache(ctx, key, logger); ok {
		return resp, nil
	}

	var (
		body    []byte
		headers http.Header
	)

	err := retryWithBackoff(ctx, c.config.Retry, c.sleep, logger, func(attempt int) error {
		var reqErr error
		body, headers, reqErr = c.doRequest(ctx, page, attempt, logger)
		return reqErr
	})
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}

	resp, err := decodePage(body)
	if err != nil {
		apiErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		logger.Error().Err(err).Msg("Failed to decode page body")
		return nil, fmt.Errorf("fetch page %d: %w", page, &APIError{
			StatusCode: http.StatusOK,
			ErrorClass: ErrorClassDecode,
			Message:    "decode page body",
			Err:        err,
		})
	}

	pagesFetchedTotal.WithLabelValues("api").Inc()

	if c.cache != nil {
		entry := cache.NewEntry(body, headers, c.cache.DefaultTTL())
		if err := c.cache.Set(ctx, key, entry); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache page")
		} else {
			logger.Debug().Dur("ttl", entry.TTL()).Msg("Cached page")
		}
	}

	return resp, nil
}

// doRequest performs one GET for page and returns the body of a 200 response.
// Every other outcome is returned as an *APIError.
func (c *Client) doRequest(ctx context.Context, page, attempt int, logger zerolog.Logger) ([]byte, http.Header, error) {
	startTime := time.Now()
	defer func() {
		apiRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	endpoint := fmt.Sprintf("%s%s?page=%d", c.baseURL, UsersPath, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("x-api-key", c.config.APIKey)
	}

	logger.Debug().
		Str("url", endpoint).
		Int("attempt", attempt).
		Msg("Executing customer API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		apiRequestsTotal.WithLabelValues("network_error").Inc()
		logger.Error().
			Err(err).
			Int("attempt", attempt).
			Msg("Request error")
		return nil, nil, &APIError{
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	apiRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		errClass := classify(resp.StatusCode)
		apiErrorsTotal.WithLabelValues(string(errClass)).Inc()
		_, _ = io.Copy(io.Discard, resp.Body)

		event := logger.Error()
		msg := "Request failed"
		if errClass == ErrorClassRateLimit {
			event = logger.Warn()
			msg = "Rate limited"
		}
		event.
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Int("attempt", attempt).
			Msg(msg)

		return nil, nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		logger.Error().
			Err(err).
			Int("attempt", attempt).
			Msg("Failed to read response body")
		return nil, nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}

	logger.Info().
		Int("status", resp.StatusCode).
		Int("attempt", attempt).
		Msg("Fetched page successfully")

	return body, resp.Header.Clone(), nil
}

// fromCache returns the cached page for key, if any. Cache failures are
// logged and treated as a miss.
func (c *Client) fromCache(ctx context.Context, key cache.CacheKey, logger zerolog.Logger) (*PageResponse, bool) {
	if c.cache == nil {
		return nil, false
	}

	entry, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn().Err(err).Msg("Cache get error")
		}
		return nil, false
	}

	resp, err := decodePage(entry.Data)
	if err != nil {
		logger.Warn().Err(err).Msg("Discarding undecodable cache entry")
		_ = c.cache.Delete(ctx, key)
		return nil, false
	}

	pagesFetchedTotal.WithLabelValues("cache").Inc()
	logger.Debug().Time("cached_at", entry.CachedAt).Msg("Page served from cache")
	return resp, true
}

// decodePage parses a page body. Numbers inside records are kept as
// json.Number so integral ids can be told apart from fractional ones.
func decodePage(body []byte) (*PageResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var pb pageBody
	if err := dec.Decode(&pb); err != nil {
		return nil, err
	}
	return &PageResponse{
		TotalPages: parseTotalPages(pb.TotalPages),
		Data:       pb.Data,
	}, nil
}

// parseTotalPages accepts integral numbers, including forms like 1.0.
// Anything else (absent, null, a string, 2.5) reads as no count.
func parseTotalPages(raw json.RawMessage) *int {
	if len(raw) == 0 || raw[0] == '"' {
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil || n == "" {
		return nil
	}

	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return nil
	}
	total := int(f)
	return &total
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
