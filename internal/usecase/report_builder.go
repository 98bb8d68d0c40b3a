package usecase

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

// Downstream flag thresholds
const (
	maxAmbiguitiesForCustomization = 3
	maxMissingInfoForOps           = 5
	maxAmbiguitiesBeforeReview     = 5
)

const notListed = "Not Listed"

// similarityThreshold is the token overlap above which two differing values
// are reported as similar rather than conflicting
const similarityThreshold = 0.5

// ReportInput is everything the report builder reads
type ReportInput struct {
	VendorName    string
	Merged        *domain.MergedProduct
	Category      *domain.CategoryAnalysis
	Evaluation    *domain.Evaluation
	WebRecord     *domain.ProductRecord
	VendorRecords []*domain.ProductRecord
}

// ReportBuilder shapes an evaluation into the display report
type ReportBuilder struct {
	enableDebugLogging bool
}

// NewReportBuilder creates a new report builder
func NewReportBuilder(enableDebugLogging bool) *ReportBuilder {
	return &ReportBuilder{enableDebugLogging: enableDebugLogging}
}

// Build assembles the QC report
func (b *ReportBuilder) Build(in ReportInput) *domain.QCReport {
	merged := in.Merged
	if merged == nil {
		merged = &domain.MergedProduct{}
	}
	eval := in.Evaluation
	if eval == nil {
		eval = &domain.Evaluation{}
	}

	issues := buildIssues(eval.Conflicts, in.Category)

	report := &domain.QCReport{
		ProductSummary:      b.summary(in.VendorName, merged, in.Category, eval),
		ExtractedAttributes: extractedAttributes(merged, in.Category, eval.BrandValidation),
		Issues:              issues,
		Completeness:        copyCompleteness(eval.Completeness),
		SourceComparison:    CompareSources(in.WebRecord, in.VendorRecords),
		DownstreamFlags:     downstreamFlags(issues),
		Timestamp:           time.Now(),
	}

	if b.enableDebugLogging {
		log.Printf("[REPORT] %d attributes, %d issues (%d critical), %d comparisons",
			len(report.ExtractedAttributes), issues.Total(), len(issues.Critical), len(report.SourceComparison))
	}

	return report
}

func (b *ReportBuilder) summary(vendorName string, m *domain.MergedProduct, cat *domain.CategoryAnalysis, eval *domain.Evaluation) domain.ProductSummary {
	s := domain.ProductSummary{
		ProductName:     m.Title,
		Brand:           eval.BrandValidation.BrandName,
		Category:        "Unknown",
		ProductType:     "Unknown",
		ConfidenceLevel: summaryConfidence(eval.OverallRisk),
	}
	if strings.TrimSpace(s.ProductName) == "" {
		s.ProductName = "Unknown Product"
	}
	if s.Brand == "" || s.Brand == "Unknown" {
		s.Brand = strings.TrimSpace(vendorName)
	}
	if s.Brand == "" {
		s.Brand = "Unknown Brand"
	}
	if cat != nil {
		s.Category = cat.DisplayName
	}
	if t := productType(m); t != "" {
		s.ProductType = t
	}
	return s
}

func summaryConfidence(risk domain.Risk) string {
	switch risk {
	case domain.RiskLow:
		return "High"
	case domain.RiskCritical:
		return "Low"
	default:
		return "Medium"
	}
}

func productType(m *domain.MergedProduct) string {
	if v := m.SpecString("Product Type"); v != "" {
		return v
	}
	return m.SpecString("Type")
}

// extractedAttributes lists the core attributes first, then the category
// attributes, then every merged specification not already listed
func extractedAttributes(m *domain.MergedProduct, cat *domain.CategoryAnalysis, brand domain.BrandValidation) []domain.ExtractedAttribute {
	attrs := []domain.ExtractedAttribute{}
	seen := make(map[string]bool)
	add := func(a domain.ExtractedAttribute) {
		if seen[strings.ToLower(a.Attribute)] {
			return
		}
		seen[strings.ToLower(a.Attribute)] = true
		attrs = append(attrs, a)
	}
	listed := func(attribute, value, source string, confidence domain.Confidence) domain.ExtractedAttribute {
		if strings.TrimSpace(value) == "" {
			return domain.ExtractedAttribute{Attribute: attribute, Value: notListed, Source: "-", Confidence: domain.ConfidenceLow}
		}
		return domain.ExtractedAttribute{Attribute: attribute, Value: value, Source: source, Confidence: confidence}
	}

	add(listed("Product Name", m.Title, "Product URL", domain.ConfidenceHigh))

	brandName := brand.BrandName
	if brandName == "Unknown" {
		brandName = ""
	}
	add(listed("Brand", brandName, "Product Title", domain.ConfidenceMedium))

	sku := m.Specifications["SKU"]
	if sku.Value == "" {
		sku = m.Specifications["Model"]
	}
	add(listed("Model/SKU", sku.Value, string(sku.Source), sku.Confidence))

	if cat != nil {
		add(listed("Category", cat.DisplayName, "Category Classifier", domain.ConfidenceHigh))
	} else {
		add(listed("Category", "", "", ""))
	}

	add(listed("Product Type", productType(m), "Product Page", domain.ConfidenceHigh))

	if cat != nil {
		for _, key := range sortedKeys(cat.Attributes) {
			value := cat.Attributes[key]
			if isBlank(value) {
				continue
			}
			add(domain.ExtractedAttribute{
				Attribute:  attributeLabel(key),
				Value:      value,
				Source:     "Category Patterns",
				Confidence: domain.ConfidenceHigh,
			})
		}
	}

	keys := make([]string, 0, len(m.Specifications))
	for k := range m.Specifications {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := m.Specifications[k]
		if isBlank(v.Value) {
			continue
		}
		add(domain.ExtractedAttribute{Attribute: k, Value: v.Value, Source: string(v.Source), Confidence: v.Confidence})
	}

	return attrs
}

// attributeLabel turns a taxonomy attribute name into a display label
func attributeLabel(name string) string {
	return titleCaseWords(strings.ReplaceAll(name, "_", " "))
}

// buildIssues buckets conflicts by severity and adds one missing-info entry
// per critical category attribute that was not found
func buildIssues(conflicts []domain.Conflict, cat *domain.CategoryAnalysis) domain.IssueBuckets {
	issues := domain.IssueBuckets{
		Critical:         []domain.Issue{},
		BuildAmbiguities: []domain.Issue{},
		MissingInfo:      []domain.Issue{},
	}

	for _, c := range conflicts {
		issue := domain.Issue{
			Title:       issueTitle(c),
			Description: c.Description,
			Action:      c.Recommendation,
		}
		if issue.Description == "" {
			issue.Description = "Please verify with vendor"
		}
		if issue.Action == "" {
			issue.Action = "Verify with vendor"
		}

		switch c.Severity {
		case domain.SeverityCritical, domain.SeverityHigh:
			issues.Critical = append(issues.Critical, issue)
		case domain.SeverityMedium:
			issues.BuildAmbiguities = append(issues.BuildAmbiguities, issue)
		default:
			issues.MissingInfo = append(issues.MissingInfo, issue)
		}
	}

	if cat != nil && cat.Validation != nil {
		for _, attr := range cat.Validation.Missing.Critical {
			label := attributeLabel(attr)
			issues.MissingInfo = append(issues.MissingInfo, domain.Issue{
				Title:       "Missing " + label,
				Description: fmt.Sprintf("Critical attribute %q not found in product page or vendor files", label),
				Action:      fmt.Sprintf("Request %s information from vendor", label),
			})
		}
	}

	return issues
}

func issueTitle(c domain.Conflict) string {
	if c.Type == ConflictTypeMissingData && len(c.Sources) > 0 {
		return "Missing data: " + strings.Join(c.Sources, ", ")
	}
	if c.Type != "" {
		return attributeLabel(c.Type)
	}
	return "Data conflict detected"
}

func downstreamFlags(issues domain.IssueBuckets) domain.DownstreamFlags {
	noCritical := len(issues.Critical) == 0
	return domain.DownstreamFlags{
		CustomizationEnabled: noCritical && len(issues.BuildAmbiguities) < maxAmbiguitiesForCustomization,
		SalesSafeToPitch:     noCritical,
		OpsReady:             noCritical && len(issues.MissingInfo) < maxMissingInfoForOps,
		RequiresManualReview: !noCritical || len(issues.BuildAmbiguities) > maxAmbiguitiesBeforeReview,
	}
}

func copyCompleteness(c domain.CompletenessScore) domain.CompletenessScore {
	out := domain.CompletenessScore{
		PerSource:         make(map[string]int, len(c.PerSource)),
		PerCategoryBucket: make(map[string]int, len(c.PerCategoryBucket)),
		Overall:           c.Overall,
	}
	for k, v := range c.PerSource {
		out.PerSource[k] = v
	}
	for k, v := range c.PerCategoryBucket {
		out.PerCategoryBucket[k] = v
	}
	return out
}

// CompareSources lines up the website record against the vendor document
// records, attribute by attribute. Vendor records are combined first-wins
// in upload order. Without a website record or vendor records the table is empty.
func CompareSources(web *domain.ProductRecord, vendor []*domain.ProductRecord) []domain.SourceComparison {
	rows := []domain.SourceComparison{}
	if web == nil || len(vendor) == 0 {
		return rows
	}

	webValues := recordValues(web)
	vendorValues := make(map[string]string)
	for _, r := range vendor {
		if r != nil {
			mergeMissing(vendorValues, recordValues(r))
		}
	}

	keys := make(map[string]bool, len(webValues)+len(vendorValues))
	for k := range webValues {
		keys[k] = true
	}
	for k := range vendorValues {
		keys[k] = true
	}
	ordered := make([]string, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool {
		ri, rj := comparisonRank(ordered[i]), comparisonRank(ordered[j])
		if ri != rj {
			return ri < rj
		}
		return ordered[i] < ordered[j]
	})

	for _, k := range ordered {
		w, v := webValues[k], vendorValues[k]
		row := domain.SourceComparison{
			Attribute: k,
			WebValue:  w,
			PDFValue:  v,
			Status:    CompareValues(w, v),
		}
		if row.WebValue == "" {
			row.WebValue = notListed
		}
		if row.PDFValue == "" {
			row.PDFValue = notListed
		}
		rows = append(rows, row)
	}
	return rows
}

// comparisonRank keeps the headline attributes at the top of the table
func comparisonRank(attr string) int {
	switch attr {
	case "Product Name":
		return 0
	case "Price":
		return 1
	default:
		return 2
	}
}

func recordValues(r *domain.ProductRecord) map[string]string {
	out := make(map[string]string, len(r.Specifications)+2)
	if !isBlank(r.Title) {
		out["Product Name"] = strings.TrimSpace(r.Title)
	}
	if !isBlank(r.Price) {
		out["Price"] = strings.TrimSpace(r.Price)
	}
	for k, v := range r.Specifications {
		if !isBlank(v) {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

// CompareValues classifies a website value against a vendor document value
func CompareValues(web, vendor string) domain.ComparisonStatus {
	w, v := comparableText(web), comparableText(vendor)
	switch {
	case w == "" && v == "":
		return domain.ComparisonMatch
	case w == "":
		return domain.ComparisonOnlyPDF
	case v == "":
		return domain.ComparisonOnlyWeb
	case w == v:
		return domain.ComparisonMatch
	case strings.Contains(v, w):
		return domain.ComparisonPDFMoreDetail
	case strings.Contains(w, v):
		return domain.ComparisonWebMoreDetail
	case tokenOverlap(w, v) >= similarityThreshold:
		return domain.ComparisonSimilar
	default:
		return domain.ComparisonConflict
	}
}

// comparableText lowercases and reduces a value to letters, digits and single spaces
func comparableText(s string) string {
	if isBlank(s) || strings.EqualFold(strings.TrimSpace(s), notListed) {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenOverlap is the Jaccard index of the two values' word sets
func tokenOverlap(a, b string) float64 {
	setA := make(map[string]bool)
	for _, t := range strings.Fields(a) {
		setA[t] = true
	}
	setB := make(map[string]bool)
	for _, t := range strings.Fields(b) {
		setB[t] = true
	}

	shared := 0
	for t := range setA {
		if setB[t] {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
