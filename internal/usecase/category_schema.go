package usecase

import (
	"encoding/json"
	"log"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

// Completeness weights for category validation
const (
	criticalBucketWeight    = 70.0
	recommendedBucketWeight = 30.0
)

// CategorySchema exposes a category's declared attributes for extraction and validation
type CategorySchema struct {
	enableDebugLogging bool
}

// NewCategorySchema creates a new category schema helper
func NewCategorySchema(enableDebugLogging bool) *CategorySchema {
	return &CategorySchema{enableDebugLogging: enableDebugLogging}
}

// RequiredAttributes returns the critical and recommended attribute names of a category
func (s *CategorySchema) RequiredAttributes(category *domain.CategoryDefinition) domain.RequiredAttributes {
	if category == nil {
		return domain.RequiredAttributes{Critical: []string{}, Recommended: []string{}}
	}
	return domain.RequiredAttributes{
		Critical:    append([]string{}, category.CriticalAttributes...),
		Recommended: append([]string{}, category.RecommendedAttributes...),
	}
}

// ExtractCategoryAttributes applies a category's declared patterns to text.
// Regex patterns yield the full match, flag patterns yield "Yes" and
// literal patterns yield the first literal found, capitalised.
func (s *CategorySchema) ExtractCategoryAttributes(text string, category *domain.CategoryDefinition) map[string]string {
	attrs := make(map[string]string)
	if category == nil || text == "" {
		return attrs
	}

	lower := strings.ToLower(text)
	for _, p := range category.ExtractionPatterns {
		if _, done := attrs[p.Attribute]; done {
			continue
		}

		switch p.Kind {
		case domain.PatternRegex:
			if m := p.Regex.FindString(text); m != "" {
				attrs[p.Attribute] = strings.TrimSpace(m)
			}
		case domain.PatternFlag:
			if p.Regex.MatchString(text) {
				attrs[p.Attribute] = "Yes"
			}
		case domain.PatternLiteral:
			for _, lit := range p.Literals {
				if lit != "" && strings.Contains(lower, strings.ToLower(lit)) {
					attrs[p.Attribute] = capitalizeFirst(lit)
					break
				}
			}
		}
	}

	if s.enableDebugLogging {
		log.Printf("[SCHEMA] %s: extracted %d category attributes", category.Key, len(attrs))
	}

	return attrs
}

// BuildCorpus serialises all given values into one lowercased JSON text
// used for loose attribute presence checks
func BuildCorpus(parts ...interface{}) string {
	var b strings.Builder
	for _, p := range parts {
		if p == nil {
			continue
		}
		data, err := json.Marshal(p)
		if err != nil {
			continue
		}
		b.Write(data)
		b.WriteByte('\n')
	}
	return strings.ToLower(b.String())
}

// Validate checks which of a category's attributes appear anywhere in corpus.
// An attribute counts as found when its name, or its name with underscores
// replaced by spaces, is a substring of the corpus. Returns nil for a nil category.
func (s *CategorySchema) Validate(corpus string, category *domain.CategoryDefinition) *domain.CategoryValidation {
	if category == nil {
		return nil
	}

	corpus = strings.ToLower(corpus)
	critical, missingCritical := tallyBucket(corpus, category.CriticalAttributes)
	recommended, missingRecommended := tallyBucket(corpus, category.RecommendedAttributes)

	score := bucketFraction(critical)*criticalBucketWeight + bucketFraction(recommended)*recommendedBucketWeight

	v := &domain.CategoryValidation{
		Category: category.Key,
		Missing: domain.RequiredAttributes{
			Critical:    missingCritical,
			Recommended: missingRecommended,
		},
		Critical:            critical,
		Recommended:         recommended,
		CompletenessPercent: int(math.Round(score)),
	}

	if s.enableDebugLogging {
		log.Printf("[SCHEMA] %s: critical %d/%d, recommended %d/%d, completeness %d%%",
			category.Key, critical.Found, critical.Total, recommended.Found, recommended.Total, v.CompletenessPercent)
	}

	return v
}

// ValidateAttributes validates an extracted attribute map against a category
func (s *CategorySchema) ValidateAttributes(extracted map[string]string, category *domain.CategoryDefinition) *domain.CategoryValidation {
	return s.Validate(BuildCorpus(extracted), category)
}

func tallyBucket(corpus string, attrs []string) (domain.BucketScore, []string) {
	score := domain.BucketScore{Total: len(attrs)}
	missing := []string{}

	for _, attr := range attrs {
		name := strings.ToLower(attr)
		spaced := strings.ReplaceAll(name, "_", " ")
		if strings.Contains(corpus, spaced) || strings.Contains(corpus, name) {
			score.Found++
		} else {
			missing = append(missing, attr)
		}
	}

	score.Percentage = int(math.Round(bucketFraction(score) * 100))
	return score, missing
}

// bucketFraction treats an empty bucket as fully satisfied
func bucketFraction(b domain.BucketScore) float64 {
	if b.Total == 0 {
		return 1
	}
	return float64(b.Found) / float64(b.Total)
}

// capitalizeFirst upper-cases the leading rune, leaving the rest untouched
func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
