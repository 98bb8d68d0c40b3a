package usecase

import (
	"fmt"
	"log"
	"strings"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

// Classifier strategy names
const (
	StrategyWeighted    = "weighted"
	StrategySpecificity = "specificity"
)

// Keyword weights in tenths of a point, so ties compare exactly
const (
	titleWeightTenths       = 100 // 10 per title hit
	descriptionWeightTenths = 30  // 3 per description hit
	rawTextWeightTenths     = 1   // 0.1 per body-text hit
)

// ClassificationInput is the product text a classifier looks at
type ClassificationInput struct {
	Title       string
	Description string
	RawText     string
	URL         string
}

// ClassificationResult is the outcome of one classification.
// Category is nil when nothing matched.
type ClassificationResult struct {
	Category *domain.CategoryDefinition
	Score    float64
	Scores   map[string]float64
	Strategy string
}

// CategoryClassifier resolves product text to zero or one category
type CategoryClassifier interface {
	Classify(in ClassificationInput) ClassificationResult
}

// NewClassifier returns the classifier registered under strategy
func NewClassifier(strategy string, taxonomy *domain.Taxonomy, enableDebugLogging bool) (CategoryClassifier, error) {
	switch strategy {
	case StrategyWeighted, "":
		return NewWeightedClassifier(taxonomy, enableDebugLogging), nil
	case StrategySpecificity:
		return NewSpecificityClassifier(taxonomy, enableDebugLogging), nil
	default:
		return nil, fmt.Errorf("%w: unknown classifier strategy %q", domain.ErrInvalidRequest, strategy)
	}
}

// WeightedClassifier scores every category by word-boundary keyword hits,
// weighting title over description over body text. The strictly highest
// score wins and ties go to the category declared first.
type WeightedClassifier struct {
	taxonomy           *domain.Taxonomy
	enableDebugLogging bool
}

// NewWeightedClassifier creates the primary keyword-scoring classifier
func NewWeightedClassifier(taxonomy *domain.Taxonomy, enableDebugLogging bool) *WeightedClassifier {
	return &WeightedClassifier{
		taxonomy:           taxonomy,
		enableDebugLogging: enableDebugLogging,
	}
}

// Classify implements CategoryClassifier
func (c *WeightedClassifier) Classify(in ClassificationInput) ClassificationResult {
	result := ClassificationResult{
		Scores:   make(map[string]float64),
		Strategy: StrategyWeighted,
	}
	if c.taxonomy == nil {
		return result
	}

	bestTenths := 0
	for _, cat := range c.taxonomy.Categories {
		tenths := 0
		for _, p := range cat.KeywordPatterns {
			tenths += len(p.FindAllStringIndex(in.Title, -1)) * titleWeightTenths
			tenths += len(p.FindAllStringIndex(in.Description, -1)) * descriptionWeightTenths
			tenths += len(p.FindAllStringIndex(in.RawText, -1)) * rawTextWeightTenths
		}
		result.Scores[cat.Key] = float64(tenths) / 10

		// strict comparison keeps the earlier category on ties
		if tenths > bestTenths {
			bestTenths = tenths
			result.Category = cat
		}
	}
	result.Score = float64(bestTenths) / 10

	if c.enableDebugLogging {
		if result.Category != nil {
			log.Printf("[CLASSIFY] weighted: %s (score %.1f)", result.Category.Key, result.Score)
		} else {
			log.Printf("[CLASSIFY] weighted: no category matched")
		}
	}

	return result
}

// SpecificityClassifier walks categories from most to least specific and
// returns the first one with a keyword appearing anywhere in the combined
// title, description and URL. Superseded by WeightedClassifier and kept as
// a selectable strategy.
type SpecificityClassifier struct {
	taxonomy           *domain.Taxonomy
	enableDebugLogging bool
}

// NewSpecificityClassifier creates the first-match classifier
func NewSpecificityClassifier(taxonomy *domain.Taxonomy, enableDebugLogging bool) *SpecificityClassifier {
	return &SpecificityClassifier{
		taxonomy:           taxonomy,
		enableDebugLogging: enableDebugLogging,
	}
}

// Classify implements CategoryClassifier
func (c *SpecificityClassifier) Classify(in ClassificationInput) ClassificationResult {
	result := ClassificationResult{Strategy: StrategySpecificity}
	if c.taxonomy == nil {
		return result
	}

	text := strings.ToLower(in.Title + " " + in.Description + " " + in.URL)

	for _, key := range c.taxonomy.SpecificityOrder {
		cat := c.taxonomy.Get(key)
		if cat == nil {
			continue
		}
		for _, kw := range cat.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				result.Category = cat
				result.Score = 1
				if c.enableDebugLogging {
					log.Printf("[CLASSIFY] specificity: %s (matched keyword %q)", cat.Key, kw)
				}
				return result
			}
		}
	}

	if c.enableDebugLogging {
		log.Printf("[CLASSIFY] specificity: no category matched")
	}
	return result
}
