package usecase

import (
	"reflect"
	"testing"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

func TestAggregate_Precedence(t *testing.T) {
	a := NewAggregator(false)

	testCases := []struct {
		name       string
		records    []*domain.ProductRecord
		wantValue  string
		wantSource domain.SourceTag
		wantConf   domain.Confidence
	}{
		{
			name: "vendor pdf beats website",
			records: []*domain.ProductRecord{
				{Source: domain.SourceWebsite, Specifications: map[string]string{"Material": "Steel"}},
				{Source: domain.SourceVendorPDF, Specifications: map[string]string{"Material": "304 Stainless Steel"}},
			},
			wantValue:  "304 Stainless Steel",
			wantSource: domain.SourceVendorPDF,
			wantConf:   domain.ConfidenceHigh,
		},
		{
			name: "vendor pdf beats a longer website value",
			records: []*domain.ProductRecord{
				{Source: domain.SourceWebsite, Specifications: map[string]string{"Material": "Brushed 304 Stainless Steel"}},
				{Source: domain.SourceVendorPDF, Specifications: map[string]string{"Material": "Steel"}},
			},
			wantValue:  "Steel",
			wantSource: domain.SourceVendorPDF,
			wantConf:   domain.ConfidenceHigh,
		},
		{
			name: "equal precedence prefers the longer value",
			records: []*domain.ProductRecord{
				{Source: domain.SourceVendorPDF, Specifications: map[string]string{"Material": "Steel"}},
				{Source: domain.SourceVendorExcel, Specifications: map[string]string{"Material": "304 Steel"}},
			},
			wantValue:  "304 Steel",
			wantSource: domain.SourceVendorExcel,
			wantConf:   domain.ConfidenceHigh,
		},
		{
			name: "search snippet beats screenshot",
			records: []*domain.ProductRecord{
				{Source: domain.SourceScreenshot, Specifications: map[string]string{"Material": "Plastic body"}},
				{Source: domain.SourceSearchSnippet, Specifications: map[string]string{"Material": "Tritan"}},
			},
			wantValue:  "Tritan",
			wantSource: domain.SourceSearchSnippet,
			wantConf:   domain.ConfidenceMedium,
		},
		{
			name: "lower precedence fills a gap",
			records: []*domain.ProductRecord{
				{Source: domain.SourceWebsite, Specifications: map[string]string{"Color": "Black"}},
				{Source: domain.SourceScreenshot, Specifications: map[string]string{"Material": "Glass"}},
			},
			wantValue:  "Glass",
			wantSource: domain.SourceScreenshot,
			wantConf:   domain.ConfidenceLow,
		},
		{
			name: "empty value never wins",
			records: []*domain.ProductRecord{
				{Source: domain.SourceVendorPDF, Specifications: map[string]string{"Material": "  "}},
				{Source: domain.SourceWebsite, Specifications: map[string]string{"Material": "Bamboo"}},
			},
			wantValue:  "Bamboo",
			wantSource: domain.SourceWebsite,
			wantConf:   domain.ConfidenceHigh,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			merged := a.Aggregate(tc.records)
			got, ok := merged.Specifications["Material"]
			if !ok {
				t.Fatalf("Material missing from %v", merged.Specifications)
			}
			if got.Value != tc.wantValue {
				t.Errorf("Value = %q, want %q", got.Value, tc.wantValue)
			}
			if got.Source != tc.wantSource {
				t.Errorf("Source = %q, want %q", got.Source, tc.wantSource)
			}
			if got.Confidence != tc.wantConf {
				t.Errorf("Confidence = %q, want %q", got.Confidence, tc.wantConf)
			}
		})
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	a := NewAggregator(false)

	web := &domain.ProductRecord{
		Source:         domain.SourceWebsite,
		Title:          "Steel Bottle",
		Price:          "$12",
		Specifications: map[string]string{"Material": "Steel", "Color": "Black"},
		Images:         []string{"a.jpg", "b.jpg"},
		RawText:        "web text",
	}
	pdf := &domain.ProductRecord{
		Source:         domain.SourceVendorPDF,
		Title:          "Insulated Steel Bottle 750ml",
		Specifications: map[string]string{"Material": "304 Stainless Steel"},
		Images:         []string{"b.jpg", "c.jpg"},
		RawText:        "pdf text",
	}
	snippet := &domain.ProductRecord{
		Source:         domain.SourceSearchSnippet,
		Price:          "$10",
		Specifications: map[string]string{"Capacity": "750ml"},
	}

	first := a.Aggregate([]*domain.ProductRecord{web, pdf, snippet})
	second := a.Aggregate([]*domain.ProductRecord{snippet, pdf, web})

	if !reflect.DeepEqual(first, second) {
		t.Errorf("merge depends on input order:\n%+v\n%+v", first, second)
	}

	if first.Title != "Insulated Steel Bottle 750ml" {
		t.Errorf("Title = %q, want the vendor title", first.Title)
	}
	if first.Price != "$12" {
		t.Errorf("Price = %q, want website price", first.Price)
	}
	if len(first.Specifications) != 3 {
		t.Errorf("len(Specifications) = %d, want 3", len(first.Specifications))
	}
	wantImages := []string{"b.jpg", "c.jpg", "a.jpg"}
	if !reflect.DeepEqual(first.Images, wantImages) {
		t.Errorf("Images = %v, want %v", first.Images, wantImages)
	}
	if first.RawText != "pdf text\n\nweb text" {
		t.Errorf("RawText = %q", first.RawText)
	}
	wantSources := []domain.SourceTag{domain.SourceVendorPDF, domain.SourceWebsite, domain.SourceSearchSnippet}
	if !reflect.DeepEqual(first.Sources, wantSources) {
		t.Errorf("Sources = %v, want %v", first.Sources, wantSources)
	}
}

func TestAggregate_FallbackAndEmpty(t *testing.T) {
	a := NewAggregator(false)

	t.Run("no records", func(t *testing.T) {
		merged := a.Aggregate(nil)
		if merged == nil {
			t.Fatal("expected non-nil merged product")
		}
		if len(merged.Specifications) != 0 || len(merged.Sources) != 0 {
			t.Errorf("expected empty merge, got %+v", merged)
		}
	})

	t.Run("nil records are skipped", func(t *testing.T) {
		merged := a.Aggregate([]*domain.ProductRecord{nil, {Source: domain.SourceWebsite, Title: "Mug"}, nil})
		if merged.Title != "Mug" || len(merged.Sources) != 1 {
			t.Errorf("got %+v", merged)
		}
	})

	t.Run("scraping error is carried", func(t *testing.T) {
		fallback := &domain.ProductRecord{
			Source:         domain.SourceWebsite,
			Title:          "Steel Bottle",
			Specifications: map[string]string{},
			ScrapingError:  "HTTP 403",
			IsLimitedData:  true,
		}
		merged := a.Aggregate([]*domain.ProductRecord{fallback})
		if merged.ScrapingError != "HTTP 403" {
			t.Errorf("ScrapingError = %q, want HTTP 403", merged.ScrapingError)
		}
		if len(merged.Specifications) != 0 {
			t.Errorf("expected empty specifications, got %v", merged.Specifications)
		}
	})
}
