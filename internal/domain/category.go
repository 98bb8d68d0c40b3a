package domain

import "regexp"

// PatternKind selects how a category extraction pattern is applied
type PatternKind string

const (
	PatternRegex   PatternKind = "regex"   // first full regex match is the value
	PatternLiteral PatternKind = "literal" // first literal found (case-insensitive) is the value
	PatternFlag    PatternKind = "flag"    // any hit sets the value to "Yes"
)

// AttributePattern is one category-specific extraction rule
type AttributePattern struct {
	Attribute string
	Kind      PatternKind
	Regex     *regexp.Regexp
	Literals  []string
}

// CategoryDefinition is a static, read-only taxonomy entry.
// Loaded once at process start and never mutated.
type CategoryDefinition struct {
	Key                   string             `json:"key"`
	DisplayName           string             `json:"displayName"`
	Keywords              []string           `json:"keywords"`
	CriticalAttributes    []string           `json:"criticalAttributes"`
	RecommendedAttributes []string           `json:"recommendedAttributes"`
	ExtractionPatterns    []AttributePattern `json:"-"`

	// KeywordPatterns holds a word-boundary matcher per keyword, same order as Keywords
	KeywordPatterns []*regexp.Regexp `json:"-"`
}

// Taxonomy is the ordered, immutable set of categories.
// Declaration order is the tie-break order for classification.
type Taxonomy struct {
	Version          string
	Categories       []*CategoryDefinition
	SpecificityOrder []string
	byKey            map[string]*CategoryDefinition
}

// NewTaxonomy indexes categories by key
func NewTaxonomy(version string, categories []*CategoryDefinition, specificityOrder []string) *Taxonomy {
	byKey := make(map[string]*CategoryDefinition, len(categories))
	for _, c := range categories {
		byKey[c.Key] = c
	}
	return &Taxonomy{
		Version:          version,
		Categories:       categories,
		SpecificityOrder: specificityOrder,
		byKey:            byKey,
	}
}

// Get returns the category with the given key, or nil
func (t *Taxonomy) Get(key string) *CategoryDefinition {
	if t == nil {
		return nil
	}
	return t.byKey[key]
}

// RequiredAttributes lists the critical and recommended attributes of a category
type RequiredAttributes struct {
	Critical    []string `json:"critical"`
	Recommended []string `json:"recommended"`
}

// BucketScore is the found/total tally of one attribute bucket
type BucketScore struct {
	Found      int `json:"found"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// CategoryValidation is the result of validating product data against a category
type CategoryValidation struct {
	Category            string             `json:"category"`
	Missing             RequiredAttributes `json:"missing"`
	Critical            BucketScore        `json:"critical"`
	Recommended         BucketScore        `json:"recommended"`
	CompletenessPercent int                `json:"completenessPercent"`
}

// CategoryAnalysis is what the report carries about the detected category
type CategoryAnalysis struct {
	Key                string              `json:"key"`
	DisplayName        string              `json:"displayName"`
	Score              float64             `json:"score"`
	Strategy           string              `json:"strategy"`
	Attributes         map[string]string   `json:"attributes"`
	RequiredAttributes RequiredAttributes  `json:"requiredAttributes"`
	Validation         *CategoryValidation `json:"validation,omitempty"`
}
