package domain

import "time"

// SourceTag identifies which data source produced a ProductRecord
type SourceTag string

const (
	SourceWebsite       SourceTag = "Website"
	SourceVendorPDF     SourceTag = "VendorPDF"
	SourceVendorExcel   SourceTag = "VendorExcel"
	SourceScreenshot    SourceTag = "Screenshot"
	SourceSearchSnippet SourceTag = "SearchSnippet"
)

// Precedence ranks a source for merging. Higher wins.
// Vendor documents > website > search snippets > screenshot OCR.
func (t SourceTag) Precedence() int {
	switch t {
	case SourceVendorPDF, SourceVendorExcel:
		return 4
	case SourceWebsite:
		return 3
	case SourceSearchSnippet:
		return 2
	case SourceScreenshot:
		return 1
	default:
		return 0
	}
}

// Confidence is the trust level attached to a merged value
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Confidence returns the confidence assigned to values coming from this source
func (t SourceTag) Confidence() Confidence {
	switch t {
	case SourceVendorPDF, SourceVendorExcel, SourceWebsite:
		return ConfidenceHigh
	case SourceSearchSnippet:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ProductRecord is the product data produced by one source extractor.
// Specification keys are always canonical (normalized) attribute names.
type ProductRecord struct {
	Title          string            `json:"title"`
	Price          string            `json:"price"`
	Description    string            `json:"description"`
	URL            string            `json:"url"`
	Specifications map[string]string `json:"specifications"`
	Images         []string          `json:"images"`
	RawText        string            `json:"rawText"`
	Source         SourceTag         `json:"sourceTag"`
	MetaTags       map[string]string `json:"metaTags,omitempty"`
	ScrapingError  string            `json:"scrapingError,omitempty"`
	IsLimitedData  bool              `json:"isLimitedData,omitempty"`
	FetchedAt      time.Time         `json:"fetchedAt"`
}

// SourceResult is what every source fetcher returns instead of an error.
// Degraded results still carry a best-effort Record.
type SourceResult struct {
	Record   *ProductRecord `json:"record,omitempty"`
	Degraded bool           `json:"degraded"`
	Reason   string         `json:"reason,omitempty"`
}

// SpecValue is a single merged attribute value with provenance
type SpecValue struct {
	Value      string     `json:"value"`
	Source     SourceTag  `json:"source"`
	Confidence Confidence `json:"confidence"`
}

// MergedProduct is the combination of all ProductRecords for one product
type MergedProduct struct {
	Title          string               `json:"title"`
	Price          string               `json:"price"`
	Description    string               `json:"description"`
	URL            string               `json:"url"`
	Specifications map[string]SpecValue `json:"specifications"`
	Images         []string             `json:"images"`
	RawText        string               `json:"rawText"`
	Sources        []SourceTag          `json:"sources"`
	ScrapingError  string               `json:"scrapingError,omitempty"`
	Error          string               `json:"error,omitempty"`
}

// SpecString returns the plain value for a canonical key, or "" when absent
func (m *MergedProduct) SpecString(key string) string {
	if m == nil || m.Specifications == nil {
		return ""
	}
	return m.Specifications[key].Value
}

// SearchHit is a single search-engine result
type SearchHit struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
}
