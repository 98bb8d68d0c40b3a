package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

// file mirrors the YAML layout of a taxonomy file
type file struct {
	Version          string          `yaml:"version"`
	SpecificityOrder []string        `yaml:"specificity_order"`
	Categories       []categoryEntry `yaml:"categories"`
}

type categoryEntry struct {
	Key         string         `yaml:"key"`
	DisplayName string         `yaml:"display_name"`
	Keywords    []string       `yaml:"keywords"`
	Critical    []string       `yaml:"critical"`
	Recommended []string       `yaml:"recommended"`
	Patterns    []patternEntry `yaml:"patterns"`
}

type patternEntry struct {
	Attribute string   `yaml:"attribute"`
	Kind      string   `yaml:"kind"`
	Regex     string   `yaml:"regex"`
	Literals  []string `yaml:"literals"`
}

// Default returns the taxonomy compiled into the binary
func Default() (*domain.Taxonomy, error) {
	return Parse(defaultTaxonomy)
}

// Load reads a taxonomy file, or the embedded default when path is empty
func Load(path string) (*domain.Taxonomy, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates a taxonomy document
func Parse(data []byte) (*domain.Taxonomy, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTaxonomy, err)
	}

	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("%w: no categories defined", domain.ErrInvalidTaxonomy)
	}

	categories := make([]*domain.CategoryDefinition, 0, len(f.Categories))
	seen := make(map[string]bool, len(f.Categories))

	for _, entry := range f.Categories {
		if entry.Key == "" {
			return nil, fmt.Errorf("%w: category without key", domain.ErrInvalidTaxonomy)
		}
		if seen[entry.Key] {
			return nil, fmt.Errorf("%w: duplicate category %q", domain.ErrInvalidTaxonomy, entry.Key)
		}
		seen[entry.Key] = true

		def, err := buildCategory(entry)
		if err != nil {
			return nil, err
		}
		categories = append(categories, def)
	}

	order := f.SpecificityOrder
	if len(order) == 0 {
		for _, c := range categories {
			order = append(order, c.Key)
		}
	}
	for _, key := range order {
		if !seen[key] {
			return nil, fmt.Errorf("%w: specificity order names unknown category %q", domain.ErrInvalidTaxonomy, key)
		}
	}

	return domain.NewTaxonomy(f.Version, categories, order), nil
}

func buildCategory(entry categoryEntry) (*domain.CategoryDefinition, error) {
	if len(entry.Keywords) == 0 {
		return nil, fmt.Errorf("%w: category %q has no keywords", domain.ErrInvalidTaxonomy, entry.Key)
	}

	def := &domain.CategoryDefinition{
		Key:                   entry.Key,
		DisplayName:           entry.DisplayName,
		Keywords:              entry.Keywords,
		CriticalAttributes:    entry.Critical,
		RecommendedAttributes: entry.Recommended,
		KeywordPatterns:       make([]*regexp.Regexp, len(entry.Keywords)),
	}
	if def.DisplayName == "" {
		def.DisplayName = entry.Key
	}

	for i, kw := range entry.Keywords {
		def.KeywordPatterns[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
	}

	for _, p := range entry.Patterns {
		pattern, err := buildPattern(entry.Key, p)
		if err != nil {
			return nil, err
		}
		def.ExtractionPatterns = append(def.ExtractionPatterns, pattern)
	}

	return def, nil
}

func buildPattern(category string, p patternEntry) (domain.AttributePattern, error) {
	out := domain.AttributePattern{
		Attribute: p.Attribute,
		Kind:      domain.PatternKind(p.Kind),
	}
	if p.Attribute == "" {
		return out, fmt.Errorf("%w: %s: pattern without attribute", domain.ErrInvalidTaxonomy, category)
	}

	switch out.Kind {
	case domain.PatternRegex, domain.PatternFlag:
		if p.Regex == "" {
			return out, fmt.Errorf("%w: %s.%s: missing regex", domain.ErrInvalidTaxonomy, category, p.Attribute)
		}
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return out, fmt.Errorf("%w: %s.%s: %v", domain.ErrInvalidTaxonomy, category, p.Attribute, err)
		}
		out.Regex = re
	case domain.PatternLiteral:
		if len(p.Literals) == 0 {
			return out, fmt.Errorf("%w: %s.%s: literal pattern without literals", domain.ErrInvalidTaxonomy, category, p.Attribute)
		}
		out.Literals = p.Literals
	default:
		return out, fmt.Errorf("%w: %s.%s: unknown pattern kind %q", domain.ErrInvalidTaxonomy, category, p.Attribute, p.Kind)
	}

	return out, nil
}
