package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// PageScraper fetches a product page. It never fails: blocked or unreachable
// pages come back as a degraded SourceResult carrying a fallback record.
type PageScraper interface {
	Scrape(ctx context.Context, url string) SourceResult
}

// SearchClient defines the interface for a web search API
type SearchClient interface {
	Search(ctx context.Context, query string, n int) ([]SearchHit, error)
}

// DocumentParser extracts raw content from uploaded vendor documents
type DocumentParser interface {
	ParsePDF(ctx context.Context, data []byte) (*PDFDocument, error)
	ParseExcel(ctx context.Context, data []byte) (*Workbook, error)
}

// VisionClient extracts a best-effort attribute guess from a product screenshot
type VisionClient interface {
	ExtractFromImage(ctx context.Context, data []byte, mimeType string) (AttributeGuess, error)
}
