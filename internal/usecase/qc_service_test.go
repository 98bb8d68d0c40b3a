package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

// mockCache is a mock implementation of domain.CacheRepository that
// stores values as JSON, like the in-memory cache does
type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  time.Duration
	err  error
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return json.RawMessage(v), nil
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	m.ttl = ttl
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// panickingClassifier simulates an unexpected failure deep in the pipeline
type panickingClassifier struct{}

func (panickingClassifier) Classify(in ClassificationInput) ClassificationResult {
	panic("taxonomy index out of range")
}

func newTestQCService(t *testing.T, scraper domain.PageScraper, parser domain.DocumentParser, classifier CategoryClassifier, cache domain.CacheRepository) *QCService {
	t.Helper()
	if classifier == nil {
		classifier = NewWeightedClassifier(defaultTaxonomy(t), false)
	}
	collector := newTestCollector(scraper, nil, parser, nil)
	return NewQCService(collector, classifier, cache, QCServiceConfig{ReportTTL: time.Hour})
}

func TestValidateRequest(t *testing.T) {
	image := domain.UploadedFile{Filename: "shot.png", MimeType: "image/png"}

	testCases := []struct {
		name    string
		req     *domain.AnalysisRequest
		wantErr string
	}{
		{name: "nil request", req: nil, wantErr: "request is required"},
		{name: "missing vendor", req: &domain.AnalysisRequest{ProductURL: productURL}, wantErr: "Vendor name is required"},
		{name: "missing url", req: &domain.AnalysisRequest{VendorName: "Acme"}, wantErr: "Product URL is required"},
		{name: "screenshot without image", req: &domain.AnalysisRequest{VendorName: "Acme", ScreenshotMode: true}, wantErr: "requires an image"},
		{name: "screenshot needs no url", req: &domain.AnalysisRequest{VendorName: "Acme", ScreenshotMode: true, Files: []domain.UploadedFile{image}}},
		{name: "link mode", req: &domain.AnalysisRequest{VendorName: "Acme", ProductURL: productURL}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRequest(tc.req)
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, domain.ErrInvalidRequest) || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %v, want ErrInvalidRequest containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestQCService_Analyze(t *testing.T) {
	ctx := context.Background()
	scraper := &mockPageScraper{results: map[string]domain.SourceResult{
		productURL: {Record: &domain.ProductRecord{
			Title:          "Acme Stainless Steel Water Bottle 1L",
			Price:          "₹499",
			Description:    "Double wall insulated bottle. Keeps drinks hot for 12 hours.",
			URL:            productURL,
			Specifications: map[string]string{"Material": "Steel"},
			Images:         []string{"https://acme.com/1.jpg"},
			Source:         domain.SourceWebsite,
		}},
	}}
	parser := &mockDocumentParser{pdf: &domain.PDFDocument{Text: samplePDFText, NumPages: 1}}
	cache := newMockCache()
	svc := newTestQCService(t, scraper, parser, nil, cache)

	result, err := svc.Analyze(ctx, &domain.AnalysisRequest{
		ProductURL: productURL,
		VendorName: "Acme",
		Files:      []domain.UploadedFile{{Filename: "catalogue.pdf", MimeType: "application/pdf"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ID == "" || result.Error != "" {
		t.Errorf("ID = %q, Error = %q", result.ID, result.Error)
	}
	if got := result.Merged.SpecString("Material"); got != "304 Stainless Steel" {
		t.Errorf("merged Material = %q, want the vendor PDF value", got)
	}
	if result.Merged.Price != "Rs. 450.00" {
		t.Errorf("merged Price = %q, want the vendor PDF price", result.Merged.Price)
	}
	if result.Category == nil || result.Category.Key != "home_living" {
		t.Fatalf("Category = %+v, want home_living", result.Category)
	}
	if result.Category.Validation == nil {
		t.Error("expected category validation")
	}
	if result.Evaluation.OverallRisk != domain.RiskLow || len(result.Evaluation.Conflicts) != 0 {
		t.Errorf("Evaluation = %+v", result.Evaluation)
	}
	if len(result.UploadedFiles) != 1 || result.CompletenessScore == nil || result.CompletenessScore.Rating != "Excellent" {
		t.Errorf("UploadedFiles = %d, CompletenessScore = %+v", len(result.UploadedFiles), result.CompletenessScore)
	}
	if result.Report == nil || len(result.Report.SourceComparison) == 0 {
		t.Errorf("expected a report with a source comparison, got %+v", result.Report)
	}
	if result.Warning != "" {
		t.Errorf("Warning = %q, want none", result.Warning)
	}
	if cache.ttl != time.Hour {
		t.Errorf("cached with ttl %v, want 1h", cache.ttl)
	}

	stored, err := svc.GetReport(ctx, result.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if stored.ID != result.ID || stored.Category.Key != "home_living" || stored.Merged.SpecString("Material") != "304 Stainless Steel" {
		t.Errorf("stored result does not round-trip: %+v", stored)
	}
}

func TestQCService_Analyze_Degraded(t *testing.T) {
	ctx := context.Background()
	blocked := &mockPageScraper{results: map[string]domain.SourceResult{
		productURL: {
			Record: &domain.ProductRecord{
				Title:          "Steel Bottle",
				Specifications: map[string]string{},
				Images:         []string{},
				Source:         domain.SourceWebsite,
				ScrapingError:  "Website is blocking automated access",
				IsLimitedData:  true,
			},
			Degraded: true,
			Reason:   "Website is blocking automated access",
		},
	}}
	svc := newTestQCService(t, blocked, nil, nil, nil)

	result, err := svc.Analyze(ctx, &domain.AnalysisRequest{ProductURL: productURL, VendorName: "Acme"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Warning != "Website is blocking automated access" {
		t.Errorf("Warning = %q", result.Warning)
	}
	if result.Merged.ScrapingError == "" {
		t.Error("expected merged scraping error")
	}
	if result.Evaluation.OverallRisk != domain.RiskCritical {
		t.Errorf("OverallRisk = %q, want critical for the missing price", result.Evaluation.OverallRisk)
	}
	if len(result.Report.SourceComparison) != 0 {
		t.Errorf("fallback record must not be compared: %+v", result.Report.SourceComparison)
	}

	if _, err := svc.GetReport(ctx, result.ID); !errors.Is(err, domain.ErrReportNotFound) {
		t.Errorf("GetReport without cache: error = %v, want ErrReportNotFound", err)
	}
}

func TestQCService_Analyze_RecoversPanics(t *testing.T) {
	scraper := &mockPageScraper{results: map[string]domain.SourceResult{
		productURL: {Record: &domain.ProductRecord{Title: "Bottle", Source: domain.SourceWebsite}},
	}}
	cache := newMockCache()
	svc := newTestQCService(t, scraper, nil, panickingClassifier{}, cache)

	result, err := svc.Analyze(context.Background(), &domain.AnalysisRequest{ProductURL: productURL, VendorName: "Acme"})
	if err != nil {
		t.Fatalf("panics must not surface as errors, got %v", err)
	}
	if !strings.Contains(result.Error, "taxonomy index out of range") {
		t.Errorf("Error = %q", result.Error)
	}
	if result.Warning == "" || result.Merged == nil || result.Merged.Error == "" {
		t.Errorf("fallback result incomplete: %+v", result)
	}
	if result.Merged.URL != productURL {
		t.Errorf("fallback URL = %q", result.Merged.URL)
	}
	if result.Evaluation == nil || result.Evaluation.OverallRisk != domain.RiskCritical || result.Report == nil {
		t.Errorf("fallback must still carry an evaluation and report: %+v", result.Evaluation)
	}
	if ok, _ := cache.Exists(context.Background(), reportCacheKey(result.ID)); !ok {
		t.Error("fallback result should be cached")
	}
}

func TestQCService_Analyze_InvalidRequest(t *testing.T) {
	svc := newTestQCService(t, &mockPageScraper{}, nil, nil, nil)
	_, err := svc.Analyze(context.Background(), &domain.AnalysisRequest{ProductURL: productURL})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("error = %v, want ErrInvalidRequest", err)
	}
}

func TestQCService_GetReport(t *testing.T) {
	ctx := context.Background()
	cache := newMockCache()
	svc := newTestQCService(t, &mockPageScraper{}, nil, nil, cache)

	if _, err := svc.GetReport(ctx, "  "); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("blank id: error = %v, want ErrInvalidRequest", err)
	}
	if _, err := svc.GetReport(ctx, "missing"); !errors.Is(err, domain.ErrReportNotFound) {
		t.Errorf("unknown id: error = %v, want ErrReportNotFound", err)
	}

	if err := cache.Set(ctx, reportCacheKey("abc"), map[string]interface{}{"id": "abc", "warning": "partial"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	got, err := svc.GetReport(ctx, "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "abc" || got.Warning != "partial" {
		t.Errorf("got %+v", got)
	}
}

func TestQCService_EvaluateRecord(t *testing.T) {
	svc := newTestQCService(t, nil, nil, nil, nil)

	eval := svc.EvaluateRecord(&domain.ProductRecord{
		Title:          "Steel Water Bottle",
		Specifications: map[string]string{"Material": "Steel"},
		RawText:        "MOQ 100 pcs",
		Source:         domain.SourceWebsite,
	}, nil)

	if len(eval.Conflicts) != 1 || eval.Conflicts[0].Severity != domain.SeverityCritical {
		t.Errorf("Conflicts = %+v, want only the missing price", eval.Conflicts)
	}
	if len(eval.Completeness.PerCategoryBucket) == 0 {
		t.Error("expected category bucket scores for a classified product")
	}
}
