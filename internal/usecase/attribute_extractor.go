package usecase

import (
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ExtractContext carries optional side inputs for extraction
type ExtractContext struct {
	Title string
}

// vocabularyTerm is one entry of a fixed vocabulary, matched on word boundaries
type vocabularyTerm struct {
	term    string
	pattern *regexp.Regexp
}

func vocabulary(terms ...string) []vocabularyTerm {
	out := make([]vocabularyTerm, len(terms))
	for i, t := range terms {
		out[i] = vocabularyTerm{
			term:    t,
			pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(t) + `\b`),
		}
	}
	return out
}

// attributeRule declares how one attribute is pulled out of free text.
// Patterns are tried in order, then the vocabulary, and the first hit wins.
// Rules with keywords are flags: any keyword substring sets the value to "Yes".
type attributeRule struct {
	Name          string
	Patterns      []*regexp.Regexp
	Normalize     func(groups []string) string
	Vocabulary    []vocabularyTerm
	Keywords      []string
	TitleFallback bool
}

// flagValue is the value recorded for a satisfied boolean attribute
const flagValue = "Yes"

// Unit groups shared by several rules
const (
	volumeUnits = `(ml|millilit(?:er|re)s?|l|lit(?:er|re)s?|ltrs?|oz)`
	weightUnits = `(kg|kgs|kilograms?|g|gm|gms|grams?|lbs?|pounds?)`
	lengthUnits = `(cm|mm|inch(?:es)?|in|m)`
	dimsBody    = `(\d+(?:\.\d+)?)\s*(?:x|×|\*)\s*(\d+(?:\.\d+)?)(?:\s*(?:x|×|\*)\s*(\d+(?:\.\d+)?))?`

	// Without a capacity label a bare "l" must touch its number
	volumeWordUnits = `(ml|millilit(?:er|re)s?|lit(?:er|re)s?|ltrs?|oz)`
)

var materialVocabulary = vocabulary(
	"304 stainless steel", "316 stainless steel", "18/8 stainless steel", "stainless steel",
	"borosilicate glass", "tritan", "copper", "aluminium", "aluminum", "cast iron",
	"glass", "ceramic", "porcelain", "bamboo", "silicone", "polypropylene", "abs plastic",
	"pu leather", "genuine leather", "leather", "polyester", "nylon", "canvas",
	"cotton", "jute", "wood", "plastic",
)

var colorVocabulary = vocabulary(
	"rose gold", "navy blue", "sky blue", "matte black", "olive green",
	"black", "white", "red", "blue", "green", "yellow", "orange", "pink", "purple",
	"grey", "gray", "silver", "gold", "brown", "maroon", "beige", "teal",
)

// attributeRules is the ordered extraction table
var attributeRules = []attributeRule{
	{
		Name: "Capacity",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:capacity|volume)\s*[:\-]?\s*(\d+(?:\.\d+)?)\s*` + volumeUnits + `\b`),
			regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*` + volumeWordUnits + `\b`),
			regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)(l)\b`),
		},
		Normalize:     normalizeVolume,
		TitleFallback: true,
	},
	{
		Name: "Material",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bmaterials?\s*[:\-]\s*([^\n,.;|:]{3,40})`),
		},
		Normalize:  normalizeMaterialLabel,
		Vocabulary: materialVocabulary,
	},
	{
		Name: "Hot Retention",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:keeps?|retains?|stays?)\s+(?:\w+\s+){0,3}?hot\s+(?:for\s+)?(?:up\s+to\s+)?(\d+)\s*(?:hours?|hrs?)\b`),
			regexp.MustCompile(`(?i)\bhot\s+(?:for\s+)?(?:up\s+to\s+)?(\d+)\s*(?:hours?|hrs?)\b`),
			regexp.MustCompile(`(?i)\b(\d+)\s*(?:hours?|hrs?)\s+hot\b`),
		},
		Normalize: normalizeHours,
	},
	{
		Name: "Cold Retention",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:keeps?|retains?|stays?)\s+(?:\w+\s+){0,3}?cold\s+(?:for\s+)?(?:up\s+to\s+)?(\d+)\s*(?:hours?|hrs?)\b`),
			regexp.MustCompile(`(?i)\bcold\s+(?:for\s+)?(?:up\s+to\s+)?(\d+)\s*(?:hours?|hrs?)\b`),
			regexp.MustCompile(`(?i)\b(\d+)\s*(?:hours?|hrs?)\s+cold\b`),
		},
		Normalize: normalizeHours,
	},
	{
		Name: "Insulation Type",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(vacuum[\s-]*insulated)\b`),
			regexp.MustCompile(`(?i)\b(triple[\s-]*wall(?:ed)?|double[\s-]*wall(?:ed)?|single[\s-]*wall(?:ed)?)\b`),
			regexp.MustCompile(`(?i)\b(insulated)\b`),
		},
		Normalize: normalizeInsulation,
	},
	{
		Name: "Weight",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bweight\s*[:\-]?\s*(\d+(?:\.\d+)?)\s*` + weightUnits + `\b`),
			regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(kg|kgs|kilograms?|gms?|grams?|lbs?|pounds?)\b`),
		},
		Normalize: normalizeWeight,
	},
	{
		Name: "Dimensions",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:dimensions?|size)\s*[:\-]?\s*` + dimsBody + `\s*` + lengthUnits + `?`),
			regexp.MustCompile(`(?i)\b` + dimsBody + `\s*` + lengthUnits + `\b`),
		},
		Normalize: normalizeDimensions,
	},
	{
		Name:       "Color",
		Vocabulary: colorVocabulary,
	},
	{
		Name:     "Leak Proof",
		Keywords: []string{"leak proof", "leak-proof", "leakproof", "leak resistant", "spill proof", "spill-proof"},
	},
	{
		Name:     "BPA Free",
		Keywords: []string{"bpa free", "bpa-free", "no bpa", "free of bpa"},
	},
	{
		Name:     "Dishwasher Safe",
		Keywords: []string{"dishwasher safe", "dishwasher-safe", "dish washer safe"},
	},
	{
		Name: "Warranty",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(\d+)\s*-?\s*(years?|yrs?|months?)\s+(?:of\s+)?(?:limited\s+|manufacturer\s+)?warranty`),
			regexp.MustCompile(`(?i)\bwarranty\s*(?:period)?\s*(?:of|:|-)?\s*(\d+)\s*(years?|yrs?|months?)\b`),
		},
		Normalize: normalizeDuration,
	},
}

var attributeRulesByName = func() map[string]*attributeRule {
	m := make(map[string]*attributeRule, len(attributeRules))
	for i := range attributeRules {
		m[attributeRules[i].Name] = &attributeRules[i]
	}
	return m
}()

// AttributeExtractor applies the ordered rule table to free text
type AttributeExtractor struct {
	enableDebugLogging bool
}

// NewAttributeExtractor creates a new attribute extractor
func NewAttributeExtractor(enableDebugLogging bool) *AttributeExtractor {
	return &AttributeExtractor{
		enableDebugLogging: enableDebugLogging,
	}
}

// Extract returns every attribute found in text. Capacity falls back to
// ectx.Title only when the text itself has no capacity.
func (e *AttributeExtractor) Extract(text string, ectx ExtractContext) map[string]string {
	out := make(map[string]string)

	for i := range attributeRules {
		rule := &attributeRules[i]
		value, ok := rule.apply(text)
		if !ok && rule.TitleFallback && ectx.Title != "" {
			value, ok = rule.apply(ectx.Title)
		}
		if ok {
			out[rule.Name] = value
		}
	}

	if e.enableDebugLogging {
		log.Printf("[EXTRACT] %d attributes from %d chars of text", len(out), len(text))
	}

	return out
}

// ExtractAttribute applies a single named rule to text
func (e *AttributeExtractor) ExtractAttribute(name, text string) (string, bool) {
	rule, ok := attributeRulesByName[name]
	if !ok {
		return "", false
	}
	return rule.apply(text)
}

// AttributeNames lists the rule names in extraction order
func (e *AttributeExtractor) AttributeNames() []string {
	names := make([]string, len(attributeRules))
	for i, r := range attributeRules {
		names[i] = r.Name
	}
	return names
}

func (r *attributeRule) apply(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	if len(r.Keywords) > 0 {
		folded := strings.ToLower(text)
		for _, kw := range r.Keywords {
			if strings.Contains(folded, kw) {
				return flagValue, true
			}
		}
		return "", false
	}

	for _, p := range r.Patterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[0])
		if r.Normalize != nil {
			value = r.Normalize(m)
		} else if len(m) > 1 {
			value = strings.TrimSpace(m[1])
		}
		if value != "" {
			return value, true
		}
	}

	if term, ok := firstVocabularyTerm(r.Vocabulary, text); ok {
		return titleCaseWords(term), true
	}

	return "", false
}

func firstVocabularyTerm(terms []vocabularyTerm, text string) (string, bool) {
	for _, v := range terms {
		if v.pattern.MatchString(text) {
			return v.term, true
		}
	}
	return "", false
}

func titleCaseWords(s string) string {
	return cases.Title(language.English).String(strings.ToLower(s))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// normalizeVolume reports litres as millilitres: "1.5", "L" -> "1500ml"
func normalizeVolume(m []string) string {
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return ""
	}
	unit := strings.ToLower(m[2])
	switch {
	case unit == "oz":
		return formatNumber(v) + " oz"
	case strings.HasPrefix(unit, "m"):
		return formatNumber(v) + "ml"
	default:
		return formatNumber(math.Round(v*1000)) + "ml"
	}
}

func normalizeMaterialLabel(m []string) string {
	label := strings.TrimSpace(m[1])
	if term, ok := firstVocabularyTerm(materialVocabulary, label); ok {
		return titleCaseWords(term)
	}
	if len(strings.Fields(label)) <= 3 {
		return titleCaseWords(label)
	}
	return ""
}

func normalizeHours(m []string) string {
	if m[1] == "1" {
		return "1 hour"
	}
	return m[1] + " hours"
}

func normalizeInsulation(m []string) string {
	s := strings.ToLower(m[1])
	switch {
	case strings.HasPrefix(s, "vacuum"):
		return "Vacuum Insulated"
	case strings.HasPrefix(s, "triple"):
		return "Triple Wall"
	case strings.HasPrefix(s, "double"):
		return "Double Wall"
	case strings.HasPrefix(s, "single"):
		return "Single Wall"
	default:
		return "Insulated"
	}
}

// normalizeWeight yields "350g", "1.2kg" or "2 lb"
func normalizeWeight(m []string) string {
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return ""
	}
	unit := strings.ToLower(m[2])
	switch {
	case strings.HasPrefix(unit, "k"):
		return formatNumber(v) + "kg"
	case strings.HasPrefix(unit, "l"), strings.HasPrefix(unit, "p"):
		return formatNumber(v) + " lb"
	default:
		return formatNumber(v) + "g"
	}
}

// normalizeDimensions yields "L x W x H unit"
func normalizeDimensions(m []string) string {
	parts := []string{m[1], m[2]}
	if m[3] != "" {
		parts = append(parts, m[3])
	}
	out := strings.Join(parts, " x ")
	if unit := strings.ToLower(m[4]); unit != "" {
		if strings.HasPrefix(unit, "inch") {
			unit = "in"
		}
		out += " " + unit
	}
	return out
}

// normalizeDuration yields "1 year", "2 years", "6 months"
func normalizeDuration(m []string) string {
	n := m[1]
	unit := "year"
	if strings.HasPrefix(strings.ToLower(m[2]), "m") {
		unit = "month"
	}
	if n != "1" {
		unit += "s"
	}
	return n + " " + unit
}
