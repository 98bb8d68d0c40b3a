package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrScrapeBlocked is returned when a website refuses automated access (HTTP 403)
	ErrScrapeBlocked = errors.New("website is blocking automated access")

	// ErrScrapeFailed is returned when a product page cannot be fetched
	ErrScrapeFailed = errors.New("failed to access website")

	// ErrSearchAPIFailure is returned when the search API request fails
	ErrSearchAPIFailure = errors.New("search API request failed")

	// ErrSearchNotConfigured is returned when no search credentials are set
	ErrSearchNotConfigured = errors.New("search API not configured")

	// ErrParseFailure is returned when a vendor document cannot be parsed
	ErrParseFailure = errors.New("failed to parse document")

	// ErrUnsupportedFile is returned for uploads with an unsupported MIME type
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrVisionFailure is returned when screenshot analysis fails
	ErrVisionFailure = errors.New("image analysis failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidTaxonomy is returned when a taxonomy file fails validation
	ErrInvalidTaxonomy = errors.New("invalid taxonomy")

	// ErrReportNotFound is returned when a cached report id is unknown or expired
	ErrReportNotFound = errors.New("report not found")
)
