package usecase

import (
	"fmt"
	"log"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

// Missing attribute labels reported by the evaluator
const (
	MissingPrice      = "Price"
	MissingTitle      = "Product Title"
	MissingMOQ        = "MOQ (Minimum Order Quantity)"
	MissingLeadTime   = "Lead Time"
	MissingBranding   = "Branding Methods"
	MissingMaterial   = "Material Specifications"
	MissingDimensions = "Dimensions"
)

// ConflictTypeMissingData is the type of every rule-based missing-data conflict
const ConflictTypeMissingData = "missing_data"

// Per-source completeness keys
const (
	SourceKeyProductPage = "productPage"
	SourceKeyVendorFiles = "vendorFiles"
)

// placeholderValues are legacy "nothing found" markers that count as empty
var placeholderValues = map[string]bool{
	"not found":            true,
	"no title found":       true,
	"no description found": true,
	"not specified":        true,
	"unknown product":      true,
}

// ConflictEvaluator runs the fixed rule checks over a merged product
type ConflictEvaluator struct {
	enableDebugLogging bool
}

// NewConflictEvaluator creates a new conflict evaluator
func NewConflictEvaluator(enableDebugLogging bool) *ConflictEvaluator {
	return &ConflictEvaluator{enableDebugLogging: enableDebugLogging}
}

// Evaluate raises conflicts, lists missing attributes and scores completeness.
// validation may be nil when no category was detected; the per-category
// bucket scores are then left empty.
func (e *ConflictEvaluator) Evaluate(merged *domain.MergedProduct, vendorFiles []domain.ParsedFile, validation *domain.CategoryValidation) *domain.Evaluation {
	if merged == nil {
		merged = &domain.MergedProduct{}
	}
	rawText := strings.ToLower(merged.RawText)

	conflicts := []domain.Conflict{}
	missing := domain.RequiredAttributes{Critical: []string{}, Recommended: []string{}}

	if isBlank(merged.Price) {
		conflicts = append(conflicts, domain.Conflict{
			Type:           ConflictTypeMissingData,
			Severity:       domain.SeverityCritical,
			Description:    "Product price not found on product page",
			Sources:        []string{"Product Page"},
			Recommendation: "Obtain pricing from vendor files or contact vendor",
		})
		missing.Critical = append(missing.Critical, MissingPrice)
	}

	if isBlank(merged.Title) {
		conflicts = append(conflicts, domain.Conflict{
			Type:           ConflictTypeMissingData,
			Severity:       domain.SeverityCritical,
			Description:    "Product title/name not found",
			Sources:        []string{"Product Page"},
			Recommendation: "Verify product URL and scraping accuracy",
		})
		missing.Critical = append(missing.Critical, MissingTitle)
	}

	hasMOQ := merged.SpecString("MOQ (Minimum Order Quantity)") != "" || strings.Contains(rawText, "moq")
	for _, f := range vendorFiles {
		hasMOQ = hasMOQ || f.HasMOQ()
	}
	if !hasMOQ {
		missing.Critical = append(missing.Critical, MissingMOQ)
		conflicts = append(conflicts, domain.Conflict{
			Type:           ConflictTypeMissingData,
			Severity:       domain.SeverityHigh,
			Description:    "MOQ (Minimum Order Quantity) not specified in any source",
			Sources:        []string{"All Sources"},
			Recommendation: "Contact vendor for MOQ information",
		})
	}

	hasLeadTime := merged.SpecString("Lead Time") != "" ||
		strings.Contains(rawText, "lead time") || strings.Contains(rawText, "delivery time")
	hasBranding := merged.SpecString("Branding Methods") != "" ||
		strings.Contains(rawText, "customization") || strings.Contains(rawText, "branding")
	hasMaterial := specKeyContains(merged, "material")
	for _, f := range vendorFiles {
		hasLeadTime = hasLeadTime || f.HasLeadTime()
		hasBranding = hasBranding || f.HasBranding()
		hasMaterial = hasMaterial || f.HasMaterial()
	}
	hasDimensions := specKeyContains(merged, "dimension", "size")

	for _, check := range []struct {
		found bool
		label string
	}{
		{hasLeadTime, MissingLeadTime},
		{hasBranding, MissingBranding},
		{hasMaterial, MissingMaterial},
		{hasDimensions, MissingDimensions},
	} {
		if !check.found {
			missing.Recommended = append(missing.Recommended, check.label)
		}
	}

	pageScore := ProductPageScore(merged)
	filesScore := VendorFilesScore(vendorFiles)

	eval := &domain.Evaluation{
		Conflicts:         conflicts,
		MissingAttributes: missing,
		Completeness: domain.CompletenessScore{
			PerSource: map[string]int{
				SourceKeyProductPage: pageScore,
				SourceKeyVendorFiles: filesScore,
			},
			PerCategoryBucket: categoryBuckets(validation),
			Overall:           int(math.Round(float64(pageScore+filesScore) / 2)),
		},
		Recommendations: recommendations(conflicts, missing),
		OverallRisk:     OverallRisk(conflicts),
		BrandValidation: detectBrand(merged.Title),
	}

	if e.enableDebugLogging {
		log.Printf("[EVALUATE] %d conflicts, risk=%s, completeness page=%d files=%d overall=%d",
			len(conflicts), eval.OverallRisk, pageScore, filesScore, eval.Completeness.Overall)
	}

	return eval
}

// OverallRisk grades a conflict list: any critical conflict is critical,
// more than one high conflict is high, more than three conflicts is medium
func OverallRisk(conflicts []domain.Conflict) domain.Risk {
	var critical, high int
	for _, c := range conflicts {
		switch c.Severity {
		case domain.SeverityCritical:
			critical++
		case domain.SeverityHigh:
			high++
		}
	}

	switch {
	case critical > 0:
		return domain.RiskCritical
	case high > 1:
		return domain.RiskHigh
	case len(conflicts) > 3:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// ProductPageScore is the weighted checklist for the merged product page:
// title 25, price 25, description 15, any specifications 20, any images 15
func ProductPageScore(m *domain.MergedProduct) int {
	if m == nil {
		return 0
	}
	score := 0
	if !isBlank(m.Title) {
		score += 25
	}
	if !isBlank(m.Price) {
		score += 25
	}
	if !isBlank(m.Description) {
		score += 15
	}
	if len(m.Specifications) > 0 {
		score += 20
	}
	if len(m.Images) > 0 {
		score += 15
	}
	return score
}

// VendorFilesScore averages a 20-point-per-section checklist (products,
// pricing, specifications, MOQ, branding) across files; 0 without files
func VendorFilesScore(files []domain.ParsedFile) int {
	if len(files) == 0 {
		return 0
	}
	total := 0
	for _, f := range files {
		total += vendorFileScore(f)
	}
	return int(math.Round(float64(total) / float64(len(files))))
}

func vendorFileScore(f domain.ParsedFile) int {
	var sections []bool
	switch {
	case f.Excel != nil:
		sections = []bool{
			len(f.Excel.Products) > 0,
			len(f.Excel.Pricing) > 0,
			len(f.Excel.Specifications) > 0,
			len(f.Excel.MOQ) > 0,
			len(f.Excel.Branding) > 0,
		}
	case f.PDF != nil:
		sections = []bool{
			len(f.PDF.ProductCodes) > 0,
			len(f.PDF.Pricing) > 0,
			len(f.PDF.Specifications) > 0,
			f.PDF.MOQ != "",
			len(f.PDF.BrandingMethods) > 0,
		}
	}

	score := 0
	for _, ok := range sections {
		if ok {
			score += 20
		}
	}
	return score
}

// PageCompletenessScore is the flat checklist shown beside an analysis:
// title 20, price 15, description 15, specifications 20, images 10 and
// any vendor file 20
func PageCompletenessScore(m *domain.MergedProduct, files []domain.ParsedFile) *domain.PageCompleteness {
	if m == nil {
		m = &domain.MergedProduct{}
	}
	breakdown := map[string]int{
		"hasTitle":          pointsIf(!isBlank(m.Title), 20),
		"hasPrice":          pointsIf(!isBlank(m.Price), 15),
		"hasDescription":    pointsIf(!isBlank(m.Description), 15),
		"hasSpecifications": pointsIf(len(m.Specifications) > 0, 20),
		"hasImages":         pointsIf(len(m.Images) > 0, 10),
		"hasVendorFiles":    pointsIf(len(files) > 0, 20),
	}

	score := 0
	for _, v := range breakdown {
		score += v
	}

	return &domain.PageCompleteness{
		Score:      score,
		Percentage: score,
		Breakdown:  breakdown,
		Rating:     completenessRating(score),
	}
}

func completenessRating(score int) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Fair"
	default:
		return "Poor"
	}
}

func pointsIf(ok bool, points int) int {
	if ok {
		return points
	}
	return 0
}

func categoryBuckets(v *domain.CategoryValidation) map[string]int {
	if v == nil {
		return map[string]int{}
	}
	return map[string]int{
		"critical":    v.Critical.Percentage,
		"recommended": v.Recommended.Percentage,
		"overall":     v.CompletenessPercent,
	}
}

func recommendations(conflicts []domain.Conflict, missing domain.RequiredAttributes) []string {
	recs := []string{}
	if len(missing.Critical) > 0 {
		recs = append(recs, "URGENT: Obtain critical missing data: "+strings.Join(missing.Critical, ", "))
	}
	if len(conflicts) == 0 {
		recs = append(recs, "No major conflicts detected. Proceed with vendor onboarding.")
	} else {
		recs = append(recs, fmt.Sprintf("Resolve %d conflict(s) before proceeding", len(conflicts)))
	}
	if len(missing.Recommended) > 0 {
		recs = append(recs, "Consider adding: "+strings.Join(missing.Recommended, ", "))
	}
	return recs
}

// detectBrand guesses the brand from the first word of the title
func detectBrand(title string) domain.BrandValidation {
	bv := domain.BrandValidation{
		BrandName:  "Unknown",
		Confidence: "low",
		Notes:      "Rule-based brand detection from the product title",
	}
	if isBlank(title) {
		return bv
	}
	first := strings.Split(strings.TrimSpace(title), " ")[0]
	if utf8.RuneCountInString(first) > 2 {
		bv.BrandName = first
		bv.Confidence = "medium"
	}
	return bv
}

func specKeyContains(m *domain.MergedProduct, needles ...string) bool {
	for key := range m.Specifications {
		lower := strings.ToLower(key)
		for _, n := range needles {
			if strings.Contains(lower, n) {
				return true
			}
		}
	}
	return false
}

func isBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || placeholderValues[strings.ToLower(s)]
}
