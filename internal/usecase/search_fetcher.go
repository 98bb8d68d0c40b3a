package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

// SearchFetcherConfig holds configuration for the search-based source
type SearchFetcherConfig struct {
	NumResults           int
	MinSnippetAttributes int
	ResultScrapeLimit    int
	ResultScrapeTimeout  time.Duration
	ExcludedDomains      []string
	EnableDebugLogging   bool
}

// Default search fetcher settings
const (
	defaultSearchResults        = 5
	defaultMinSnippetAttributes = 5
	defaultResultScrapeLimit    = 2
	defaultResultScrapeTimeout  = 8 * time.Second
)

// marketplaceRank orders known marketplaces after the vendor's own site
var marketplaceRank = map[string]int{
	"amazon":   1,
	"flipkart": 2,
}

// SearchFetcher produces a SearchSnippet record from search-engine results
type SearchFetcher struct {
	client    domain.SearchClient
	scraper   domain.PageScraper
	extractor *AttributeExtractor
	cfg       SearchFetcherConfig
	excluded  []string
}

// NewSearchFetcher creates a new search fetcher. scraper may be nil, in
// which case result pages are never fetched.
func NewSearchFetcher(client domain.SearchClient, scraper domain.PageScraper, extractor *AttributeExtractor, cfg SearchFetcherConfig) *SearchFetcher {
	if cfg.NumResults <= 0 {
		cfg.NumResults = defaultSearchResults
	}
	if cfg.MinSnippetAttributes <= 0 {
		cfg.MinSnippetAttributes = defaultMinSnippetAttributes
	}
	if cfg.ResultScrapeLimit <= 0 {
		cfg.ResultScrapeLimit = defaultResultScrapeLimit
	}
	if cfg.ResultScrapeTimeout <= 0 {
		cfg.ResultScrapeTimeout = defaultResultScrapeTimeout
	}
	if extractor == nil {
		extractor = NewAttributeExtractor(cfg.EnableDebugLogging)
	}

	excluded := make([]string, 0, len(cfg.ExcludedDomains))
	for _, d := range cfg.ExcludedDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			excluded = append(excluded, d)
		}
	}

	return &SearchFetcher{
		client:    client,
		scraper:   scraper,
		extractor: extractor,
		cfg:       cfg,
		excluded:  excluded,
	}
}

// BuildQuery returns the search query for a product and vendor
func BuildQuery(productName, vendorName string) string {
	return strings.Join(strings.Fields(productName+" "+vendorName+" specifications features price"), " ")
}

// SearchVendor runs the product query and returns only relevant hits,
// the vendor's own site first, then marketplaces, then everything else
func (f *SearchFetcher) SearchVendor(ctx context.Context, vendorName, productName string) ([]domain.SearchHit, error) {
	if f.client == nil {
		return nil, domain.ErrSearchNotConfigured
	}
	if strings.TrimSpace(productName) == "" {
		return nil, fmt.Errorf("%w: product name is required", domain.ErrInvalidRequest)
	}

	query := BuildQuery(productName, vendorName)
	hits, err := f.client.Search(ctx, query, f.cfg.NumResults)
	if err != nil {
		return nil, err
	}

	kept := f.filterHits(hits, productName)
	vendorLabel := domainLabel(vendorName)
	sort.SliceStable(kept, func(i, j int) bool {
		return hitRank(kept[i].Link, vendorLabel) < hitRank(kept[j].Link, vendorLabel)
	})

	if f.cfg.EnableDebugLogging {
		log.Printf("[SEARCH] %q: %d results, kept %d", query, len(hits), len(kept))
		for i, h := range kept {
			log.Printf("[SEARCH]   %d. %s - %s", i+1, h.DisplayLink, h.Title)
		}
	}

	return kept, nil
}

// Fetch searches for the product and extracts attributes from the hits.
// Result pages are scraped only when the snippets alone yield fewer than
// the configured minimum attributes. Failures degrade, they never abort.
func (f *SearchFetcher) Fetch(ctx context.Context, vendorName, productName string) ([]domain.SearchHit, domain.SourceResult) {
	hits, err := f.SearchVendor(ctx, vendorName, productName)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, domain.ErrSearchNotConfigured) {
			reason = "search not configured"
		}
		if f.cfg.EnableDebugLogging {
			log.Printf("[SEARCH] degraded: %v", err)
		}
		return []domain.SearchHit{}, domain.SourceResult{Degraded: true, Reason: reason}
	}
	if len(hits) == 0 {
		return hits, domain.SourceResult{Degraded: true, Reason: "no relevant search results"}
	}

	specs := make(map[string]string)
	snippets := make([]string, 0, len(hits))
	for _, h := range hits {
		text := strings.TrimSpace(h.Title + ". " + h.Snippet)
		snippets = append(snippets, text)
		mergeMissing(specs, f.extractor.Extract(text, ExtractContext{Title: productName}))
	}

	if len(specs) < f.cfg.MinSnippetAttributes && f.scraper != nil {
		f.scrapeTopResults(ctx, hits, productName, specs)
	}

	rec := &domain.ProductRecord{
		Specifications: specs,
		Images:         []string{},
		RawText:        strings.Join(snippets, "\n"),
		Source:         domain.SourceSearchSnippet,
		FetchedAt:      time.Now(),
	}
	return hits, domain.SourceResult{Record: rec}
}

// scrapeTopResults fetches the first few result pages under one shared deadline
func (f *SearchFetcher) scrapeTopResults(ctx context.Context, hits []domain.SearchHit, productName string, specs map[string]string) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.ResultScrapeTimeout)
	defer cancel()

	limit := f.cfg.ResultScrapeLimit
	if limit > len(hits) {
		limit = len(hits)
	}

	for _, h := range hits[:limit] {
		if ctx.Err() != nil {
			return
		}
		res := f.scraper.Scrape(ctx, h.Link)
		if res.Degraded || res.Record == nil {
			if f.cfg.EnableDebugLogging {
				log.Printf("[SEARCH] result scrape skipped for %s: %s", h.Link, res.Reason)
			}
			continue
		}
		mergeMissing(specs, res.Record.Specifications)
		mergeMissing(specs, f.extractor.Extract(res.Record.RawText, ExtractContext{Title: productName}))
	}
}

// filterHits drops excluded domains and hits that do not mention the product.
// A hit is relevant when at least two of the product name's first three
// words appear in its title or snippet (one word for one-word names).
func (f *SearchFetcher) filterHits(hits []domain.SearchHit, productName string) []domain.SearchHit {
	words := strings.Fields(strings.ToLower(productName))
	if len(words) > 3 {
		words = words[:3]
	}
	need := 2
	if len(words) < need {
		need = len(words)
	}

	kept := make([]domain.SearchHit, 0, len(hits))
	for _, h := range hits {
		if f.isExcluded(h.Link) {
			if f.cfg.EnableDebugLogging {
				log.Printf("[SEARCH] excluded %s", h.Link)
			}
			continue
		}

		title := strings.ToLower(h.Title)
		snippet := strings.ToLower(h.Snippet)
		matches := 0
		for _, w := range words {
			if strings.Contains(title, w) || strings.Contains(snippet, w) {
				matches++
			}
		}
		if matches >= need {
			kept = append(kept, h)
		}
	}
	return kept
}

func (f *SearchFetcher) isExcluded(link string) bool {
	host := hostOf(link)
	for _, d := range f.excluded {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// hitRank is 0 for the vendor's own domain, then marketplaces, then the rest
func hitRank(link, vendorLabel string) int {
	label := registrableLabel(hostOf(link))
	if vendorLabel != "" && label == vendorLabel {
		return 0
	}
	if r, ok := marketplaceRank[label]; ok {
		return r
	}
	return len(marketplaceRank) + 1
}

func hostOf(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// registrableLabel returns the leftmost label of the registrable domain,
// e.g. "shop.acme.co.in" -> "acme"
func registrableLabel(host string) string {
	if host == "" {
		return ""
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		etld1 = host
	}
	return strings.SplitN(etld1, ".", 2)[0]
}

// domainLabel squashes a vendor name into the form it takes in a domain
func domainLabel(vendorName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(vendorName) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// mergeMissing copies entries whose key is not yet present in dst
func mergeMissing(dst, src map[string]string) {
	for k, v := range src {
		if _, exists := dst[k]; !exists && v != "" {
			dst[k] = v
		}
	}
}
