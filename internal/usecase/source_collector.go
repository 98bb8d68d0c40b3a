package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

// Collection is everything gathered for one analysis before merging
type Collection struct {
	Primary      domain.SourceResult
	VendorFiles  []domain.ParsedFile
	SkippedFiles []domain.SkippedFile
	Search       domain.SourceResult
	SearchHits   []domain.SearchHit
	Warnings     []string

	// vendorRecords holds one record per parsed vendor file, upload order
	vendorRecords []*domain.ProductRecord
}

// Records returns every produced record in slot order: primary source,
// vendor files in upload order, then search
func (c *Collection) Records() []*domain.ProductRecord {
	records := make([]*domain.ProductRecord, 0, len(c.vendorRecords)+2)
	if c.Primary.Record != nil {
		records = append(records, c.Primary.Record)
	}
	records = append(records, c.vendorRecords...)
	if c.Search.Record != nil {
		records = append(records, c.Search.Record)
	}
	return records
}

// VendorRecords returns the records derived from parsed vendor files, upload order
func (c *Collection) VendorRecords() []*domain.ProductRecord {
	return c.vendorRecords
}

// SourceCollector runs every source fetcher for a request. Each fetcher is
// isolated: a failure degrades that source and never cancels its siblings.
type SourceCollector struct {
	scraper            domain.PageScraper
	vision             domain.VisionClient
	vendorFiles        *VendorFileAnalyzer
	screenshots        *ScreenshotNormalizer
	search             *SearchFetcher
	extractor          *AttributeExtractor
	enableDebugLogging bool
}

// NewSourceCollector creates a new source collector. vision and search may
// be nil, which degrades screenshot mode and the search source.
func NewSourceCollector(
	scraper domain.PageScraper,
	vision domain.VisionClient,
	vendorFiles *VendorFileAnalyzer,
	screenshots *ScreenshotNormalizer,
	search *SearchFetcher,
	extractor *AttributeExtractor,
	enableDebugLogging bool,
) *SourceCollector {
	if extractor == nil {
		extractor = NewAttributeExtractor(enableDebugLogging)
	}
	if screenshots == nil {
		screenshots = NewScreenshotNormalizer(nil, enableDebugLogging)
	}
	return &SourceCollector{
		scraper:            scraper,
		vision:             vision,
		vendorFiles:        vendorFiles,
		screenshots:        screenshots,
		search:             search,
		extractor:          extractor,
		enableDebugLogging: enableDebugLogging,
	}
}

// Collect fetches the primary source and parses vendor files concurrently,
// then searches using the best product name found
func (c *SourceCollector) Collect(ctx context.Context, req *domain.AnalysisRequest) *Collection {
	col := &Collection{
		VendorFiles:  []domain.ParsedFile{},
		SkippedFiles: []domain.SkippedFile{},
		SearchHits:   []domain.SearchHit{},
		Warnings:     []string{},
	}

	type fileSlot struct {
		parsed  *domain.ParsedFile
		record  *domain.ProductRecord
		skipped *domain.SkippedFile
	}
	slots := make([]fileSlot, len(req.Files))

	// every goroutine writes only its own slot and never returns an error
	var g errgroup.Group

	g.Go(func() error {
		defer recoverFetch("primary source", func(reason string) {
			col.Primary = domain.SourceResult{Degraded: true, Reason: reason}
		})
		col.Primary = c.fetchPrimary(ctx, req)
		return nil
	})

	for i, file := range req.Files {
		if ClassifyFile(file) == domain.FileKindImage {
			if !req.ScreenshotMode {
				slots[i].skipped = &domain.SkippedFile{Filename: file.Filename, Reason: "image files are only used in screenshot mode"}
			}
			continue
		}
		g.Go(func() error {
			defer recoverFetch(file.Filename, func(reason string) {
				slots[i] = fileSlot{skipped: &domain.SkippedFile{Filename: file.Filename, Reason: reason}}
			})
			if c.vendorFiles == nil {
				slots[i].skipped = &domain.SkippedFile{Filename: file.Filename, Reason: "document parsing not configured"}
				return nil
			}
			parsed, rec, err := c.vendorFiles.Analyze(ctx, file)
			if err != nil {
				log.Printf("[COLLECT] Skipping %s: %v", file.Filename, err)
				slots[i].skipped = &domain.SkippedFile{Filename: file.Filename, Reason: err.Error()}
				return nil
			}
			c.enrich(rec)
			slots[i].parsed, slots[i].record = parsed, rec
			return nil
		})
	}

	_ = g.Wait()

	for _, s := range slots {
		switch {
		case s.parsed != nil:
			col.VendorFiles = append(col.VendorFiles, *s.parsed)
			col.vendorRecords = append(col.vendorRecords, s.record)
		case s.skipped != nil:
			col.SkippedFiles = append(col.SkippedFiles, *s.skipped)
		}
	}

	if col.Primary.Degraded && col.Primary.Reason != "" {
		col.Warnings = append(col.Warnings, col.Primary.Reason)
	}

	col.SearchHits, col.Search = c.fetchSearch(ctx, req.VendorName, col.productName())

	if c.enableDebugLogging {
		log.Printf("[COLLECT] primary degraded=%t, %d vendor files (%d skipped), %d search hits",
			col.Primary.Degraded, len(col.VendorFiles), len(col.SkippedFiles), len(col.SearchHits))
	}

	return col
}

// recoverFetch turns a panic inside one fetcher into a degraded outcome for
// that fetcher only
func recoverFetch(name string, degrade func(reason string)) {
	if r := recover(); r != nil {
		log.Printf("[COLLECT] %s failed: %v", name, r)
		degrade(fmt.Sprintf("%s failed: %v", name, r))
	}
}

func (c *SourceCollector) fetchPrimary(ctx context.Context, req *domain.AnalysisRequest) domain.SourceResult {
	if req.ScreenshotMode {
		return c.fetchScreenshot(ctx, req)
	}
	if c.scraper == nil {
		return domain.SourceResult{Degraded: true, Reason: "website scraping not configured"}
	}

	res := c.scraper.Scrape(ctx, req.ProductURL)
	if res.Record != nil {
		c.enrich(res.Record)
	}
	return res
}

func (c *SourceCollector) fetchScreenshot(ctx context.Context, req *domain.AnalysisRequest) domain.SourceResult {
	var image *domain.UploadedFile
	for i := range req.Files {
		if ClassifyFile(req.Files[i]) == domain.FileKindImage {
			image = &req.Files[i]
			break
		}
	}
	if image == nil {
		return domain.SourceResult{Degraded: true, Reason: "screenshot mode requires an image file upload"}
	}

	if c.vision == nil {
		return screenshotFallback("screenshot analysis not configured")
	}

	guess, err := c.vision.ExtractFromImage(ctx, image.Data, image.MimeType)
	if err != nil {
		log.Printf("[COLLECT] Screenshot analysis failed for %s: %v", image.Filename, err)
		return screenshotFallback(fmt.Sprintf("screenshot analysis failed: %v", err))
	}

	rec := c.screenshots.Normalize(guess)
	c.enrich(rec)
	return domain.SourceResult{Record: rec, Degraded: rec.IsLimitedData, Reason: rec.ScrapingError}
}

func screenshotFallback(reason string) domain.SourceResult {
	return domain.SourceResult{
		Record: &domain.ProductRecord{
			Specifications: map[string]string{},
			Images:         []string{},
			Source:         domain.SourceScreenshot,
			ScrapingError:  reason,
			IsLimitedData:  true,
			FetchedAt:      time.Now(),
		},
		Degraded: true,
		Reason:   reason,
	}
}

func (c *SourceCollector) fetchSearch(ctx context.Context, vendorName, productName string) ([]domain.SearchHit, domain.SourceResult) {
	if c.search == nil {
		return []domain.SearchHit{}, domain.SourceResult{Degraded: true, Reason: "search not configured"}
	}
	if productName == "" {
		return []domain.SearchHit{}, domain.SourceResult{Degraded: true, Reason: "no product name to search for"}
	}
	return c.search.Fetch(ctx, vendorName, productName)
}

// enrich fills specification gaps with pattern-extracted attributes from
// the record's own text; existing keys are never overwritten. Fallback
// records are left as they are.
func (c *SourceCollector) enrich(rec *domain.ProductRecord) {
	if rec == nil || rec.IsLimitedData {
		return
	}
	if rec.Specifications == nil {
		rec.Specifications = make(map[string]string)
	}
	text := strings.TrimSpace(rec.Description + "\n" + rec.RawText)
	mergeMissing(rec.Specifications, c.extractor.Extract(text, ExtractContext{Title: rec.Title}))
}

// productName picks the title used for the search query: the primary
// source first, then the first vendor file that names the product
func (c *Collection) productName() string {
	if c.Primary.Record != nil && strings.TrimSpace(c.Primary.Record.Title) != "" {
		return strings.TrimSpace(c.Primary.Record.Title)
	}
	for _, r := range c.vendorRecords {
		if strings.TrimSpace(r.Title) != "" {
			return strings.TrimSpace(r.Title)
		}
	}
	return ""
}
