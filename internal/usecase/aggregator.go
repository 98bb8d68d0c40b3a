package usecase

import (
	"log"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

// Aggregator merges per-source product records into one MergedProduct
type Aggregator struct {
	enableDebugLogging bool
}

// NewAggregator creates a new aggregator
func NewAggregator(enableDebugLogging bool) *Aggregator {
	return &Aggregator{enableDebugLogging: enableDebugLogging}
}

// mergedField tracks who currently owns a merged value
type mergedField struct {
	value      string
	precedence int
}

// offer applies the merge rule: an empty slot takes the value, a higher
// precedence source never loses to a lower one, and between sources of
// equal precedence the longer value wins.
func (f *mergedField) offer(value string, precedence int) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	if f.value == "" {
		f.value, f.precedence = value, precedence
		return true
	}
	if precedence == f.precedence && utf8.RuneCountInString(value) > utf8.RuneCountInString(f.value) {
		f.value = value
		return true
	}
	return false
}

// Aggregate merges records deterministically by source precedence.
// Records are visited from highest to lowest precedence, keeping input
// order among equals, so the result does not depend on fetch arrival order.
// Nil records are skipped.
func (a *Aggregator) Aggregate(records []*domain.ProductRecord) *domain.MergedProduct {
	ordered := make([]*domain.ProductRecord, 0, len(records))
	for _, r := range records {
		if r != nil {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Source.Precedence() > ordered[j].Source.Precedence()
	})

	merged := &domain.MergedProduct{
		Specifications: make(map[string]domain.SpecValue),
		Images:         []string{},
		Sources:        []domain.SourceTag{},
	}

	var title, price, description, url mergedField
	specs := make(map[string]*mergedField)
	seenImages := make(map[string]bool)
	var rawParts []string

	for _, r := range ordered {
		prec := r.Source.Precedence()
		merged.Sources = append(merged.Sources, r.Source)

		title.offer(r.Title, prec)
		price.offer(r.Price, prec)
		description.offer(r.Description, prec)
		url.offer(r.URL, prec)

		for _, key := range sortedKeys(r.Specifications) {
			f, ok := specs[key]
			if !ok {
				f = &mergedField{}
				specs[key] = f
			}
			if f.offer(r.Specifications[key], prec) {
				merged.Specifications[key] = domain.SpecValue{
					Value:      f.value,
					Source:     r.Source,
					Confidence: r.Source.Confidence(),
				}
			}
		}

		for _, img := range r.Images {
			if img != "" && !seenImages[img] {
				seenImages[img] = true
				merged.Images = append(merged.Images, img)
			}
		}

		if raw := strings.TrimSpace(r.RawText); raw != "" {
			rawParts = append(rawParts, raw)
		}

		if r.ScrapingError != "" && merged.ScrapingError == "" {
			merged.ScrapingError = r.ScrapingError
		}
	}

	merged.Title = title.value
	merged.Price = price.value
	merged.Description = description.value
	merged.URL = url.value
	merged.RawText = strings.Join(rawParts, "\n\n")

	if a.enableDebugLogging {
		log.Printf("[AGGREGATE] merged %d records: %d specifications, %d images", len(ordered), len(merged.Specifications), len(merged.Images))
	}

	return merged
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
