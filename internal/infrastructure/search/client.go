package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

// Config holds configuration for the search API client
type Config struct {
	BaseURL  string
	APIKey   string
	EngineID string
	// RequestsPerMinute throttles outbound queries
	RequestsPerMinute int
	Timeout           time.Duration
}

const (
	maxResultsPerQuery = 10
	maxAttempts        = 3
	defaultTimeout     = 15 * time.Second
	defaultPerMinute   = 100
)

// Client queries the Google Custom Search JSON API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	engineID    string
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// searchResponse is the subset of the Custom Search response the engine reads
type searchResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Snippet     string `json:"snippet"`
		DisplayLink string `json:"displayLink"`
	} `json:"items"`
}

// NewClient creates a new search API client
func NewClient(cfg Config) *Client {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = defaultPerMinute
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      cfg.APIKey,
		engineID:    cfg.EngineID,
		baseURL:     cfg.BaseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), 10),
	}
}

// SetDebug enables or disables verbose logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns the wait before retrying after the given attempt
var exponentialBackoff = func(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt-1)) * 500 * time.Millisecond
}

// Search runs one query and returns at most n hits (capped at 10).
// An empty result set is not an error.
func (c *Client) Search(ctx context.Context, query string, n int) ([]domain.SearchHit, error) {
	if c.apiKey == "" || c.engineID == "" {
		return nil, domain.ErrSearchNotConfigured
	}
	if n <= 0 || n > maxResultsPerQuery {
		n = maxResultsPerQuery
	}

	params := url.Values{}
	params.Add("key", c.apiKey)
	params.Add("cx", c.engineID)
	params.Add("q", query)
	params.Add("num", strconv.Itoa(n))
	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	log.Printf("[SEARCH] Query: %q (num=%d)", query, n)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := wait(ctx, exponentialBackoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			log.Printf("[SEARCH] Rate limiter error: %v", err)
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		hits, retry, err := c.do(ctx, reqURL)
		if err == nil {
			log.Printf("[SEARCH] Found %d results for %q", len(hits), query)
			return hits, nil
		}

		log.Printf("[SEARCH] Request error (attempt %d): %v", attempt, err)
		lastErr = err
		if !retry {
			break
		}
	}

	return nil, lastErr
}

// do executes one request. retry reports whether the failure is transient.
func (c *Client) do(ctx context.Context, reqURL string) ([]domain.SearchHit, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("%w: %v", domain.ErrSearchAPIFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("%w: reading body: %v", domain.ErrSearchAPIFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		if c.debug {
			log.Printf("[SEARCH] API error - Status: %d, Body: %s", resp.StatusCode, string(body))
		}
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, fmt.Errorf("%w: status %d", domain.ErrSearchAPIFailure, resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, false, fmt.Errorf("%w: failed to decode response: %v", domain.ErrSearchAPIFailure, err)
	}

	hits := make([]domain.SearchHit, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		hits = append(hits, domain.SearchHit{
			Title:       item.Title,
			Link:        item.Link,
			Snippet:     item.Snippet,
			DisplayLink: item.DisplayLink,
		})
	}
	return hits, false, nil
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
