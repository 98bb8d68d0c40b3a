package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

// mockVisionClient is a mock implementation of domain.VisionClient
type mockVisionClient struct {
	guess    domain.AttributeGuess
	err      error
	mimeType string
}

func (m *mockVisionClient) ExtractFromImage(ctx context.Context, data []byte, mimeType string) (domain.AttributeGuess, error) {
	m.mimeType = mimeType
	if m.err != nil {
		return nil, m.err
	}
	return m.guess, nil
}

const productURL = "https://acme.com/steel-bottle"

func newTestCollector(scraper domain.PageScraper, vision domain.VisionClient, parser domain.DocumentParser, search domain.SearchClient) *SourceCollector {
	var files *VendorFileAnalyzer
	if parser != nil {
		files = NewVendorFileAnalyzer(parser, nil, false)
	}
	var fetcher *SearchFetcher
	if search != nil {
		fetcher = NewSearchFetcher(search, nil, nil, SearchFetcherConfig{})
	}
	return NewSourceCollector(scraper, vision, files, nil, fetcher, nil, false)
}

func TestSourceCollector_LinkMode(t *testing.T) {
	scraper := &mockPageScraper{results: map[string]domain.SourceResult{
		productURL: {Record: &domain.ProductRecord{
			Title:          "Acme Steel Water Bottle",
			Description:    "Leak-proof lid, BPA free.",
			Specifications: map[string]string{"Material": "Steel"},
			Images:         []string{"https://acme.com/img/1.jpg"},
			Source:         domain.SourceWebsite,
		}},
	}}
	parser := &mockDocumentParser{pdf: &domain.PDFDocument{Text: samplePDFText, NumPages: 1}}
	search := &mockSearchClient{hits: []domain.SearchHit{
		{Title: "Acme Steel Water Bottle 750ml", Link: "https://www.amazon.in/dp/B01", Snippet: "Capacity 750 ml"},
	}}
	c := newTestCollector(scraper, nil, parser, search)

	col := c.Collect(context.Background(), &domain.AnalysisRequest{
		ProductURL: productURL,
		VendorName: "Acme",
		Files: []domain.UploadedFile{
			{Filename: "catalogue.pdf", MimeType: "application/pdf", Data: []byte("%PDF")},
			{Filename: "photo.png", MimeType: "image/png", Data: []byte{0x89}},
		},
	})

	if col.Primary.Degraded || col.Primary.Record == nil {
		t.Fatalf("unexpected primary result: %+v", col.Primary)
	}
	specs := col.Primary.Record.Specifications
	if specs["Material"] != "Steel" {
		t.Errorf("Material = %q, scraped value must not be overwritten", specs["Material"])
	}
	if specs["Leak Proof"] != "Yes" || specs["BPA Free"] != "Yes" {
		t.Errorf("Specifications = %v, want extracted attributes added", specs)
	}

	if len(col.VendorFiles) != 1 || col.VendorFiles[0].Filename != "catalogue.pdf" {
		t.Errorf("VendorFiles = %+v", col.VendorFiles)
	}
	if len(col.SkippedFiles) != 1 || col.SkippedFiles[0].Filename != "photo.png" {
		t.Fatalf("SkippedFiles = %+v, want the image", col.SkippedFiles)
	}
	if !strings.Contains(col.SkippedFiles[0].Reason, "screenshot mode") {
		t.Errorf("Reason = %q", col.SkippedFiles[0].Reason)
	}

	if len(search.queries) != 1 || search.queries[0] != BuildQuery("Acme Steel Water Bottle", "Acme") {
		t.Errorf("queries = %v, want the scraped title", search.queries)
	}
	if len(col.SearchHits) != 1 {
		t.Errorf("len(SearchHits) = %d, want 1", len(col.SearchHits))
	}

	records := col.Records()
	wantSources := []domain.SourceTag{domain.SourceWebsite, domain.SourceVendorPDF, domain.SourceSearchSnippet}
	if len(records) != len(wantSources) {
		t.Fatalf("got %d records, want %d", len(records), len(wantSources))
	}
	for i, want := range wantSources {
		if records[i].Source != want {
			t.Errorf("records[%d].Source = %q, want %q", i, records[i].Source, want)
		}
	}
	if len(col.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", col.Warnings)
	}
}

func TestSourceCollector_SearchFallsBackToVendorTitle(t *testing.T) {
	scraper := &mockPageScraper{results: map[string]domain.SourceResult{
		productURL: {
			Record: &domain.ProductRecord{
				Specifications: map[string]string{},
				Source:         domain.SourceWebsite,
				ScrapingError:  "blocked (403)",
				IsLimitedData:  true,
			},
			Degraded: true,
			Reason:   "blocked (403)",
		},
	}}
	parser := &mockDocumentParser{workbook: sampleWorkbook()}
	search := &mockSearchClient{}
	c := newTestCollector(scraper, nil, parser, search)

	col := c.Collect(context.Background(), &domain.AnalysisRequest{
		ProductURL: productURL,
		VendorName: "Acme",
		Files:      []domain.UploadedFile{{Filename: "prices.xlsx", Data: []byte("PK")}},
	})

	if len(col.Primary.Record.Specifications) != 0 {
		t.Errorf("fallback record was enriched: %v", col.Primary.Record.Specifications)
	}
	if len(col.Warnings) != 1 || col.Warnings[0] != "blocked (403)" {
		t.Errorf("Warnings = %v", col.Warnings)
	}
	if len(search.queries) != 1 || search.queries[0] != BuildQuery("Steel Bottle", "Acme") {
		t.Errorf("queries = %v, want the vendor file title", search.queries)
	}
	if !col.Search.Degraded || col.Search.Reason != "no relevant search results" {
		t.Errorf("Search = %+v", col.Search)
	}
}

func TestSourceCollector_ScreenshotMode(t *testing.T) {
	ctx := context.Background()
	image := domain.UploadedFile{Filename: "shot.jpg", MimeType: "image/jpeg", Data: []byte{0xff, 0xd8}}

	t.Run("vision guess becomes the primary record", func(t *testing.T) {
		scraper := &mockPageScraper{}
		vision := &mockVisionClient{guess: domain.AttributeGuess{
			"productName": "Blue Tumbler",
			"material":    "Stainless Steel",
		}}
		c := newTestCollector(scraper, vision, nil, nil)

		col := c.Collect(ctx, &domain.AnalysisRequest{VendorName: "Acme", ScreenshotMode: true, Files: []domain.UploadedFile{image}})

		rec := col.Primary.Record
		if rec == nil || rec.Source != domain.SourceScreenshot {
			t.Fatalf("Primary = %+v, want a screenshot record", col.Primary)
		}
		if rec.Title != "Blue Tumbler" || rec.Specifications["Material"] != "Stainless Steel" {
			t.Errorf("record = %+v", rec)
		}
		if vision.mimeType != "image/jpeg" {
			t.Errorf("mime type = %q", vision.mimeType)
		}
		if scraper.calls() != 0 {
			t.Errorf("scraper called %d times in screenshot mode", scraper.calls())
		}
		if len(col.SkippedFiles) != 0 {
			t.Errorf("SkippedFiles = %+v, the screenshot must not be skipped", col.SkippedFiles)
		}
		if col.Search.Reason != "search not configured" {
			t.Errorf("Search.Reason = %q", col.Search.Reason)
		}
	})

	t.Run("vision failure degrades to a fallback record", func(t *testing.T) {
		vision := &mockVisionClient{err: errors.New("upstream 500")}
		c := newTestCollector(nil, vision, nil, nil)

		col := c.Collect(ctx, &domain.AnalysisRequest{VendorName: "Acme", ScreenshotMode: true, Files: []domain.UploadedFile{image}})

		if !col.Primary.Degraded || col.Primary.Record == nil || !col.Primary.Record.IsLimitedData {
			t.Fatalf("Primary = %+v, want degraded fallback", col.Primary)
		}
		if len(col.Warnings) != 1 || !strings.HasPrefix(col.Warnings[0], "screenshot analysis failed") {
			t.Errorf("Warnings = %v", col.Warnings)
		}
	})

	t.Run("missing image", func(t *testing.T) {
		c := newTestCollector(nil, &mockVisionClient{}, nil, nil)

		col := c.Collect(ctx, &domain.AnalysisRequest{VendorName: "Acme", ScreenshotMode: true})

		if !col.Primary.Degraded || col.Primary.Record != nil {
			t.Errorf("Primary = %+v, want degraded without record", col.Primary)
		}
		if len(col.Records()) != 0 {
			t.Errorf("Records() = %v, want none", col.Records())
		}
	})
}

func TestSourceCollector_SkippedFiles(t *testing.T) {
	ctx := context.Background()
	files := []domain.UploadedFile{
		{Filename: "broken.pdf", MimeType: "application/pdf"},
		{Filename: "notes.docx", MimeType: "application/msword"},
	}

	t.Run("parse failures are skipped with a reason", func(t *testing.T) {
		parser := &mockDocumentParser{err: errors.New("malformed xref")}
		c := newTestCollector(&mockPageScraper{}, nil, parser, nil)

		col := c.Collect(ctx, &domain.AnalysisRequest{ProductURL: productURL, VendorName: "Acme", Files: files})

		if len(col.VendorFiles) != 0 {
			t.Errorf("VendorFiles = %+v, want none", col.VendorFiles)
		}
		if len(col.SkippedFiles) != 2 {
			t.Fatalf("SkippedFiles = %+v, want 2", col.SkippedFiles)
		}
		if col.SkippedFiles[0].Filename != "broken.pdf" || !strings.Contains(col.SkippedFiles[0].Reason, "malformed xref") {
			t.Errorf("SkippedFiles[0] = %+v", col.SkippedFiles[0])
		}
		if col.SkippedFiles[1].Filename != "notes.docx" || !strings.Contains(col.SkippedFiles[1].Reason, domain.ErrUnsupportedFile.Error()) {
			t.Errorf("SkippedFiles[1] = %+v", col.SkippedFiles[1])
		}
	})

	t.Run("no document parser", func(t *testing.T) {
		c := newTestCollector(&mockPageScraper{}, nil, nil, nil)

		col := c.Collect(ctx, &domain.AnalysisRequest{ProductURL: productURL, VendorName: "Acme", Files: files[:1]})

		if len(col.SkippedFiles) != 1 || col.SkippedFiles[0].Reason != "document parsing not configured" {
			t.Errorf("SkippedFiles = %+v", col.SkippedFiles)
		}
	})
}

type panickingScraper struct{}

func (panickingScraper) Scrape(ctx context.Context, url string) domain.SourceResult {
	panic("selector exploded")
}

func TestSourceCollector_PanicDegradesOneSource(t *testing.T) {
	parser := &mockDocumentParser{workbook: sampleWorkbook()}
	c := newTestCollector(panickingScraper{}, nil, parser, nil)

	col := c.Collect(context.Background(), &domain.AnalysisRequest{
		ProductURL: productURL,
		VendorName: "Acme",
		Files:      []domain.UploadedFile{{Filename: "prices.csv", MimeType: "text/csv"}},
	})

	if !col.Primary.Degraded || !strings.Contains(col.Primary.Reason, "selector exploded") {
		t.Errorf("Primary = %+v, want degraded with the panic reason", col.Primary)
	}
	if len(col.VendorFiles) != 1 {
		t.Errorf("VendorFiles = %+v, sibling fetch must survive", col.VendorFiles)
	}
}
