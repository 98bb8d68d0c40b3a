package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

// Config holds configuration for the product page scraper
type Config struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	MaxImages    int
	MaxRawText   int
	UserAgents   []string
	// RequestsPerSecond throttles outbound fetches; zero disables throttling
	RequestsPerSecond float64
}

// Default scraper settings
const (
	defaultTimeout    = 15 * time.Second
	defaultMaxImages  = 10
	defaultMaxRawText = 5000
	maxBodyBytes      = 5 << 20
)

// Fallback reasons reported on the record's scrapingError
const (
	reasonBlocked = "Website is blocking automated access (403 Forbidden). Using limited data from other sources."
	reasonTimeout = "Request timeout - website took too long to respond."
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// retryDelay returns how long to wait before the given retry (1-based).
// Tests replace it to avoid sleeping.
var retryDelay = func(base time.Duration, retry int) time.Duration {
	return base * time.Duration(retry)
}

// SpecNormalizer maps raw specification labels to canonical attribute names
type SpecNormalizer interface {
	NormalizeSpecifications(raw map[string]string) map[string]string
}

// Scraper fetches product pages and extracts a ProductRecord from them
type Scraper struct {
	httpClient  *http.Client
	cfg         Config
	normalizer  SpecNormalizer
	rateLimiter *rate.Limiter
	debug       bool
}

// New creates a new scraper. normalizer may be nil, in which case
// specification labels are kept as they appear on the page.
func New(cfg Config, normalizer SpecNormalizer) *Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = defaultMaxImages
	}
	if cfg.MaxRawText <= 0 {
		cfg.MaxRawText = defaultMaxRawText
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = []string{defaultUserAgent}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 5)
	}

	return &Scraper{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return errors.New("stopped after 5 redirects")
				}
				return nil
			},
		},
		cfg:         cfg,
		normalizer:  normalizer,
		rateLimiter: limiter,
	}
}

// SetDebug enables or disables verbose logging
func (s *Scraper) SetDebug(debug bool) {
	s.debug = debug
}

// statusError is a non-2xx response from the product page
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status code %d", e.code)
}

// Scrape fetches and parses a product page. It never fails: when every
// attempt is exhausted it returns a degraded result with a fallback record.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) domain.SourceResult {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, retryDelay(s.cfg.RetryBackoff, attempt)); err != nil {
				lastErr = err
				break
			}
		}

		log.Printf("[SCRAPER] Attempting to scrape: %s (attempt %d/%d)", pageURL, attempt+1, s.cfg.MaxRetries+1)

		body, err := s.fetch(ctx, pageURL, s.cfg.UserAgents[attempt%len(s.cfg.UserAgents)])
		if err == nil {
			rec, perr := s.Parse(body, pageURL)
			if perr != nil {
				lastErr = perr
				break
			}
			log.Printf("[SCRAPER] Scraped %s: %d specifications, %d images", pageURL, len(rec.Specifications), len(rec.Images))
			return domain.SourceResult{Record: rec}
		}

		lastErr = err
		log.Printf("[SCRAPER] Error scraping %s: %v", pageURL, err)
		if !retryable(err) || ctx.Err() != nil {
			break
		}
	}

	reason := fallbackReason(lastErr)
	log.Printf("[SCRAPER] Returning limited data for %s: %s", pageURL, reason)
	return domain.SourceResult{
		Record:   FallbackRecord(pageURL, reason),
		Degraded: true,
		Reason:   reason,
	}
}

func (s *Scraper) fetch(ctx context.Context, pageURL, userAgent string) ([]byte, error) {
	if s.rateLimiter != nil {
		if err := s.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "max-age=0")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if s.debug {
		log.Printf("[SCRAPER] Fetched %d bytes from %s", len(body), pageURL)
	}
	return body, nil
}

// retryable reports whether another attempt may succeed: blocked
// responses get a different user agent, network failures a second try
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusForbidden
	}
	if isTimeout(err) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func fallbackReason(err error) string {
	if err == nil {
		return domain.ErrScrapeFailed.Error()
	}
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusForbidden {
		return reasonBlocked
	}
	if isTimeout(err) {
		return reasonTimeout
	}
	return fmt.Sprintf("Failed to access website: %v", err)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
