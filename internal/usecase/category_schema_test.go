package usecase

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

func TestCategorySchema_RequiredAttributes(t *testing.T) {
	s := NewCategorySchema(false)
	tax := defaultTaxonomy(t)

	t.Run("returns declared buckets", func(t *testing.T) {
		got := s.RequiredAttributes(tax.Get("home_living"))
		want := []string{"capacity", "material", "moq", "price"}
		if !reflect.DeepEqual(got.Critical, want) {
			t.Errorf("Critical = %v, want %v", got.Critical, want)
		}
		if len(got.Recommended) != 12 {
			t.Errorf("len(Recommended) = %d, want 12", len(got.Recommended))
		}
	})

	t.Run("returned slices do not alias the taxonomy", func(t *testing.T) {
		cat := tax.Get("bags")
		got := s.RequiredAttributes(cat)
		got.Critical[0] = "changed"
		if cat.CriticalAttributes[0] == "changed" {
			t.Error("RequiredAttributes leaked the taxonomy slice")
		}
	})

	t.Run("nil category yields empty buckets", func(t *testing.T) {
		got := s.RequiredAttributes(nil)
		if len(got.Critical) != 0 || len(got.Recommended) != 0 {
			t.Errorf("got %+v, want empty buckets", got)
		}
	})
}

func TestCategorySchema_ExtractCategoryAttributes(t *testing.T) {
	s := NewCategorySchema(false)
	tax := defaultTaxonomy(t)

	testCases := []struct {
		name     string
		category string
		text     string
		want     map[string]string
	}{
		{
			name:     "drinkware patterns",
			category: "home_living",
			text:     "Capacity: 500 ml. Double wall insulated, leak proof lid, dishwasher safe.",
			want: map[string]string{
				"capacity":        "Capacity: 500 ml",
				"insulation":      "Double wall",
				"leak_proof":      "Yes",
				"dishwasher_safe": "Yes",
			},
		},
		{
			name:     "literal pattern is capitalised",
			category: "office_accessories",
			text:     "A5 ruled notebook with 120 pages",
			want: map[string]string{
				"pages":  "120 pages",
				"ruling": "Ruled",
			},
		},
		{
			name:     "apparel gsm and fit",
			category: "apparel",
			text:     "180 GSM slim fit tee for men",
			want: map[string]string{
				"gsm":    "180 GSM",
				"fit":    "slim fit",
				"gender": "Men",
			},
		},
		{
			name:     "nothing matches",
			category: "gourmet",
			text:     "A plain description",
			want:     map[string]string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.ExtractCategoryAttributes(tc.text, tax.Get(tc.category))
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ExtractCategoryAttributes() = %v, want %v", got, tc.want)
			}
		})
	}

	t.Run("literal with multi-byte first letter", func(t *testing.T) {
		category := &domain.CategoryDefinition{
			Key: "drinkware",
			ExtractionPatterns: []domain.AttributePattern{
				{Attribute: "finish", Kind: domain.PatternLiteral, Literals: []string{"émaillé"}},
			},
		}
		got := s.ExtractCategoryAttributes("Mug en acier émaillé, 350 ml", category)
		if got["finish"] != "Émaillé" {
			t.Errorf("finish = %q, want %q", got["finish"], "Émaillé")
		}
		if !utf8.ValidString(got["finish"]) {
			t.Errorf("finish %q is not valid UTF-8", got["finish"])
		}
	})

	t.Run("nil category", func(t *testing.T) {
		got := s.ExtractCategoryAttributes("anything", nil)
		if len(got) != 0 {
			t.Errorf("expected empty map, got %v", got)
		}
	})
}

func TestCategorySchema_Validate(t *testing.T) {
	s := NewCategorySchema(false)

	category := &domain.CategoryDefinition{
		Key:                   "drinkware",
		CriticalAttributes:    []string{"capacity", "material", "moq", "price", "dimensions"},
		RecommendedAttributes: []string{"lead_time", "warranty", "color_options", "insulation", "leak_proof"},
	}

	t.Run("weights critical 70 and recommended 30", func(t *testing.T) {
		corpus := BuildCorpus(map[string]string{
			"Capacity":  "500ml",
			"Material":  "Steel",
			"MOQ":       "100",
			"Lead Time": "2 weeks",
			"Warranty":  "1 year",
		})

		got := s.Validate(corpus, category)
		if got.CompletenessPercent != 54 {
			t.Errorf("CompletenessPercent = %d, want 54", got.CompletenessPercent)
		}
		if got.Critical.Found != 3 || got.Critical.Total != 5 || got.Critical.Percentage != 60 {
			t.Errorf("Critical = %+v, want 3/5 (60%%)", got.Critical)
		}
		if got.Recommended.Found != 2 || got.Recommended.Percentage != 40 {
			t.Errorf("Recommended = %+v, want 2/5 (40%%)", got.Recommended)
		}
		wantMissing := []string{"price", "dimensions"}
		if !reflect.DeepEqual(got.Missing.Critical, wantMissing) {
			t.Errorf("Missing.Critical = %v, want %v", got.Missing.Critical, wantMissing)
		}
		if got.Category != "drinkware" {
			t.Errorf("Category = %q, want drinkware", got.Category)
		}
	})

	t.Run("underscore names match spaced or raw", func(t *testing.T) {
		got := s.Validate(`{"leak_proof":true,"color options":"red"}`, category)
		if got.Recommended.Found != 2 {
			t.Errorf("Recommended.Found = %d, want 2", got.Recommended.Found)
		}
	})

	t.Run("corpus is matched case-insensitively", func(t *testing.T) {
		got := s.Validate("CAPACITY MATERIAL MOQ PRICE DIMENSIONS", category)
		if got.Critical.Found != 5 {
			t.Errorf("Critical.Found = %d, want 5", got.Critical.Found)
		}
		if got.CompletenessPercent != 70 {
			t.Errorf("CompletenessPercent = %d, want 70", got.CompletenessPercent)
		}
	})

	t.Run("empty bucket counts as satisfied", func(t *testing.T) {
		onlyCritical := &domain.CategoryDefinition{Key: "x", CriticalAttributes: []string{"price"}}
		got := s.Validate("price", onlyCritical)
		if got.CompletenessPercent != 100 {
			t.Errorf("CompletenessPercent = %d, want 100", got.CompletenessPercent)
		}
		if got.Recommended.Percentage != 100 {
			t.Errorf("Recommended.Percentage = %d, want 100", got.Recommended.Percentage)
		}
	})

	t.Run("nil category is skipped", func(t *testing.T) {
		if got := s.Validate("anything", nil); got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("validate attribute map", func(t *testing.T) {
		got := s.ValidateAttributes(map[string]string{"price": "$4"}, category)
		if got.Critical.Found != 1 {
			t.Errorf("Critical.Found = %d, want 1", got.Critical.Found)
		}
	})
}

func TestBuildCorpus(t *testing.T) {
	got := BuildCorpus(map[string]string{"Material": "Steel"}, nil, []string{"MOQ"})
	if !strings.Contains(got, `"material":"steel"`) {
		t.Errorf("corpus %q missing lowercased map", got)
	}
	if !strings.Contains(got, `["moq"]`) {
		t.Errorf("corpus %q missing slice", got)
	}
}
