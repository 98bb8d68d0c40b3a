package usecase

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

// screenshotFields maps vision response fields to raw specification labels
var screenshotFields = []struct {
	field string
	label string
}{
	{"moq", "MOQ"},
	{"material", "Material"},
	{"dimensions", "Dimensions"},
	{"weight", "Weight"},
	{"color", "Color"},
	{"sku", "SKU"},
	{"leadTime", "Lead Time"},
	{"brandingMethods", "Branding Methods"},
	{"printableArea", "Printable Area"},
	{"packaging", "Packaging"},
	{"certifications", "Certifications"},
}

// ScreenshotNormalizer converts a vision attribute guess into a Screenshot record
type ScreenshotNormalizer struct {
	normalizer         *KeyNormalizer
	enableDebugLogging bool
}

// NewScreenshotNormalizer creates a new screenshot normalizer
func NewScreenshotNormalizer(normalizer *KeyNormalizer, enableDebugLogging bool) *ScreenshotNormalizer {
	if normalizer == nil {
		normalizer = NewKeyNormalizer(enableDebugLogging)
	}
	return &ScreenshotNormalizer{
		normalizer:         normalizer,
		enableDebugLogging: enableDebugLogging,
	}
}

// Normalize builds a product record from the guess. Named fields win over
// the nested specifications object, which wins over key/value lines found
// in the extracted text.
func (s *ScreenshotNormalizer) Normalize(guess domain.AttributeGuess) *domain.ProductRecord {
	rec := &domain.ProductRecord{
		Specifications: map[string]string{},
		Images:         []string{},
		MetaTags:       map[string]string{},
		Source:         domain.SourceScreenshot,
		FetchedAt:      time.Now(),
	}
	if guess == nil {
		return rec
	}

	rec.Title = firstString(guess, "productName", "title")
	rec.Price = screenshotPrice(guess["price"])
	extractedText := stringify(guess["extractedText"])
	rec.Description = firstString(guess, "description")
	if rec.Description == "" {
		rec.Description = extractedText
	}
	rec.RawText = extractedText

	if brand := firstString(guess, "brand", "vendorName"); brand != "" {
		rec.MetaTags["brand"] = brand
	}
	if category := firstString(guess, "category"); category != "" {
		rec.MetaTags["category"] = category
	}

	named := make(map[string]string)
	for _, f := range screenshotFields {
		if v := stringify(guess[f.field]); v != "" {
			named[f.label] = v
		}
	}

	nested := make(map[string]string)
	if specs, ok := guess["specifications"].(map[string]interface{}); ok {
		for k, v := range specs {
			if sv := stringify(v); sv != "" {
				nested[k] = sv
			}
		}
	}

	for _, layer := range []map[string]string{
		s.normalizer.NormalizeSpecifications(named),
		s.normalizer.NormalizeSpecifications(nested),
		s.normalizer.ParseKeyValueLines(extractedText),
	} {
		for k, v := range layer {
			if _, exists := rec.Specifications[k]; !exists {
				rec.Specifications[k] = v
			}
		}
	}

	if errMsg := firstString(guess, "error"); errMsg != "" {
		rec.IsLimitedData = true
		rec.ScrapingError = errMsg
	}

	if s.enableDebugLogging {
		log.Printf("[SCREENSHOT] title=%q, %d specifications", rec.Title, len(rec.Specifications))
	}

	return rec
}

func firstString(guess domain.AttributeGuess, keys ...string) string {
	for _, k := range keys {
		if v := stringify(guess[k]); v != "" {
			return v
		}
	}
	return ""
}

// screenshotPrice accepts a plain value or a {value, currency} object
func screenshotPrice(v interface{}) string {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return stringify(v)
	}
	value := stringify(obj["value"])
	if value == "" {
		value = stringify(obj["amount"])
	}
	if value == "" {
		return ""
	}
	currency := stringify(obj["currency"])
	if currency == "" {
		currency = defaultCurrency
	}
	return currency + " " + value
}

// stringify flattens loosely typed JSON values into display text
func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(val)
		if strings.EqualFold(s, "null") {
			return ""
		}
		return s
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := stringify(val[k]); s != "" {
				parts = append(parts, k+": "+s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
