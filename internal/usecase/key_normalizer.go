package usecase

import (
	"log"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// JunkPatternsVersion identifies the deny-list revision. Bump it whenever an
// entry in junkPatterns is added, removed or changed.
const JunkPatternsVersion = "2024.3"

// maxKeyLength is the longest raw key still considered an attribute name
const maxKeyLength = 100

// junkPattern is one named entry of the attribute-key deny-list
type junkPattern struct {
	name    string
	pattern *regexp.Regexp
}

// junkPatterns are known scrape and OCR garbage shapes.
// They are checked against the raw key and again after cleaning.
var junkPatterns = []junkPattern{
	{"no-letters", regexp.MustCompile(`^[^\p{L}]*$`)},
	{"single-letter-fragments", regexp.MustCompile(`(?i)^(?:\p{L}[\s.\-]+){2,}\p{L}?$`)},
	{"leading-stray-numerals", regexp.MustCompile(`(?i)^\d+[\d\s.,\-]*\s\p{L}{1,2}$`)},
	{"repeated-character", regexp.MustCompile(`(?i)(?:aaaa|xxxx|----|____|\.\.\.\.|\*\*\*\*)`)},
	{"value-with-unit", regexp.MustCompile(`(?i)^[\d.,]+\s*(?:ml|l|ltr|g|gm|kg|cm|mm|m|in|inch|inches|oz|%)$`)},
	{"price-only", regexp.MustCompile(`(?i)^(?:rs\.?|inr|usd|\$|₹)\s*[\d,.]+$`)},
	{"ui-chrome", regexp.MustCompile(`(?i)^(?:click here|read more|show more|see more|show less|add to cart|buy now|share|wishlist|login|log in|sign in|view details|next|previous|home)$`)},
	{"script-literal", regexp.MustCompile(`(?i)^(?:undefined|null|nan|true|false|function|var)$`)},
	{"html-entity", regexp.MustCompile(`&(?:[a-z]+|#\d+);`)},
}

// Compiled regex patterns for key cleaning
var (
	keyURLPattern         = regexp.MustCompile(`(?i)https?://|www\.`)
	keyDisallowedPattern  = regexp.MustCompile(`[^\p{L}\p{N}_\s\-()%/]`)
	keyLeadingJunk        = regexp.MustCompile(`^[^\p{L}\p{N}_(]+`)
	keyTrailingJunk       = regexp.MustCompile(`[^\p{L}\p{N}_)%]+$`)
	keyLeadingNumerals    = regexp.MustCompile(`^\d[\d\s.,\-]*\s+(\p{L})`)
	keyPureNumericPattern = regexp.MustCompile(`^[\d\s.,/%\-()]+$`)
	keyValueLinePattern   = regexp.MustCompile(`^\s*([^:=\t]{2,100}?)\s*(?:[:=]|\t+)\s*(.+?)\s*$`)
)

// keySynonyms maps lowercased cleaned keys to one canonical display name
var keySynonyms = map[string]string{
	// Commercial terms
	"moq":                    "MOQ (Minimum Order Quantity)",
	"min order":              "MOQ (Minimum Order Quantity)",
	"min order qty":          "MOQ (Minimum Order Quantity)",
	"min order quantity":     "MOQ (Minimum Order Quantity)",
	"minimum order":          "MOQ (Minimum Order Quantity)",
	"minimum order qty":      "MOQ (Minimum Order Quantity)",
	"minimum order quantity": "MOQ (Minimum Order Quantity)",
	"minimum qty":            "MOQ (Minimum Order Quantity)",
	"minimum quantity":       "MOQ (Minimum Order Quantity)",
	"lead time":              "Lead Time",
	"lead-time":              "Lead Time",
	"delivery time":          "Lead Time",
	"production time":        "Lead Time",
	"turnaround time":        "Lead Time",
	"dispatch time":          "Lead Time",
	"price":                  "Price",
	"unit price":             "Price",
	"mrp":                    "Price",
	"selling price":          "Price",

	// Branding
	"branding":          "Branding Methods",
	"branding method":   "Branding Methods",
	"branding methods":  "Branding Methods",
	"branding options":  "Branding Methods",
	"printing method":   "Branding Methods",
	"print method":      "Branding Methods",
	"imprint method":    "Branding Methods",
	"logo printing":     "Branding Methods",
	"branding area":     "Branding Area",
	"print area":        "Branding Area",
	"printable area":    "Branding Area",
	"imprint area":      "Branding Area",

	// Physical attributes
	"material":           "Material",
	"materials":          "Material",
	"body material":      "Material",
	"material type":      "Material",
	"made of":            "Material",
	"composition":        "Material",
	"capacity":           "Capacity",
	"volume":             "Capacity",
	"capacity (ml)":      "Capacity",
	"dimensions":         "Dimensions",
	"dimension":          "Dimensions",
	"size":               "Dimensions",
	"product dimensions": "Dimensions",
	"product size":       "Dimensions",
	"item dimensions":    "Dimensions",
	"measurements":       "Dimensions",
	"weight":             "Weight",
	"item weight":        "Weight",
	"product weight":     "Weight",
	"gross weight":       "Weight",
	"net weight":         "Net Weight",
	"net wt":             "Net Weight",
	"color":              "Color",
	"colour":             "Color",
	"colors":             "Color",
	"colours":            "Color",
	"available colors":   "Color",
	"color options":      "Color",
	"colour options":     "Color",

	// Identity
	"brand":          "Brand",
	"brand name":     "Brand",
	"manufacturer":   "Brand",
	"sku":            "SKU",
	"product code":   "SKU",
	"item code":      "SKU",
	"model number":   "SKU",
	"model no":       "SKU",
	"article number": "SKU",

	// Other
	"warranty":          "Warranty",
	"warranty period":   "Warranty",
	"guarantee":         "Warranty",
	"packaging":         "Packaging",
	"packing":           "Packaging",
	"packaging type":    "Packaging",
	"packaging details": "Packaging",
	"country of origin": "Country of Origin",
	"origin":            "Country of Origin",
	"made in":           "Country of Origin",
	"certification":     "Certifications",
	"certifications":    "Certifications",
	"insulation":        "Insulation Type",
	"insulation type":   "Insulation Type",
	"heat retention":    "Hot Retention",
	"hot retention":     "Hot Retention",
	"cold retention":    "Cold Retention",
	"shelf life":        "Shelf Life",
	"gsm":               "GSM",
	"fabric weight":     "GSM",
}

// KeyNormalizer turns raw attribute names from tables, lists and OCR text
// into canonical keys
type KeyNormalizer struct {
	enableDebugLogging bool
}

// NewKeyNormalizer creates a new key normalizer
func NewKeyNormalizer(enableDebugLogging bool) *KeyNormalizer {
	return &KeyNormalizer{
		enableDebugLogging: enableDebugLogging,
	}
}

// Normalize cleans a raw attribute name into its canonical form.
// The boolean is false when the key should be discarded.
func (n *KeyNormalizer) Normalize(rawKey string) (string, bool) {
	key, reason := n.normalize(rawKey)
	if n.enableDebugLogging {
		if reason != "" {
			log.Printf("[NORMALIZE] Rejected %q: %s", rawKey, reason)
		} else {
			log.Printf("[NORMALIZE] %q → %q", rawKey, key)
		}
	}
	return key, reason == ""
}

func (n *KeyNormalizer) normalize(rawKey string) (string, string) {
	s := strings.TrimSpace(norm.NFKC.String(rawKey))
	if s == "" {
		return "", "empty"
	}
	if len([]rune(s)) > maxKeyLength {
		return "", "too long"
	}
	if keyURLPattern.MatchString(s) {
		return "", "url"
	}
	if name := matchJunk(s); name != "" {
		return "", "junk:" + name
	}

	// "Product Details: Material" -> "Material", but "Material:" stays "Material"
	s = strings.TrimRight(s, ":= \t")
	if idx := strings.LastIndexAny(s, ":="); idx >= 0 {
		s = s[idx+1:]
	}

	s = keyDisallowedPattern.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	s = keyLeadingJunk.ReplaceAllString(s, "")
	s = keyTrailingJunk.ReplaceAllString(s, "")
	// "12 Features" -> "Features"; "3D Print" keeps its digit
	s = keyLeadingNumerals.ReplaceAllString(s, "$1")

	if s == "" {
		return "", "empty after cleaning"
	}
	if keyPureNumericPattern.MatchString(s) {
		return "", "numeric"
	}
	if len([]rune(s)) < 3 {
		return "", "too short"
	}
	if name := matchJunk(s); name != "" {
		return "", "junk:" + name
	}

	if canonical, ok := keySynonyms[strings.ToLower(s)]; ok {
		return canonical, ""
	}

	return titleCaseKey(s), ""
}

// NormalizeSpecifications normalizes every key of a raw specification map.
// Rejected keys are dropped and the first raw key (in sorted order) wins
// when several collapse to the same canonical key.
func (n *KeyNormalizer) NormalizeSpecifications(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		value := strings.TrimSpace(raw[k])
		if value == "" {
			continue
		}
		canonical, ok := n.Normalize(k)
		if !ok {
			continue
		}
		if _, exists := out[canonical]; exists {
			continue
		}
		out[canonical] = value
	}

	return out
}

// ParseKeyValueLines pulls "key: value", "key = value" and "key<TAB>value"
// pairs out of free text, one pair per line, with normalized keys.
func (n *KeyNormalizer) ParseKeyValueLines(text string) map[string]string {
	out := make(map[string]string)

	for _, line := range strings.Split(text, "\n") {
		m := keyValueLinePattern.FindStringSubmatch(line)
		if m == nil || strings.HasPrefix(m[2], "//") {
			continue
		}
		canonical, ok := n.Normalize(m[1])
		if !ok {
			continue
		}
		if _, exists := out[canonical]; exists {
			continue
		}
		out[canonical] = m[2]
	}

	return out
}

func matchJunk(s string) string {
	for _, jp := range junkPatterns {
		if jp.pattern.MatchString(s) {
			return jp.name
		}
	}
	return ""
}

// titleCaseKey title-cases each token, keeping short all-caps abbreviations
func titleCaseKey(s string) string {
	caser := cases.Title(language.English)
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		if isAbbreviation(tok) {
			continue
		}
		tokens[i] = caser.String(strings.ToLower(tok))
	}
	return strings.Join(tokens, " ")
}

func isAbbreviation(tok string) bool {
	letters := 0
	for _, r := range tok {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		} else if !unicode.IsDigit(r) {
			return false
		}
	}
	n := len([]rune(tok))
	return letters > 0 && n >= 2 && n <= 4
}
