package domain

import "time"

// Severity of a conflict
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Risk is the overall risk level of an analysis
type Risk string

const (
	RiskCritical Risk = "critical"
	RiskHigh     Risk = "high"
	RiskMedium   Risk = "medium"
	RiskLow      Risk = "low"
)

// Conflict is a rule-based finding raised for one analysis run
type Conflict struct {
	Type           string   `json:"type"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Sources        []string `json:"sources"`
	Recommendation string   `json:"recommendation"`
}

// CompletenessScore is a derived 0..100 heuristic per source and per category bucket
type CompletenessScore struct {
	PerSource         map[string]int `json:"perSource"`
	PerCategoryBucket map[string]int `json:"perCategoryBucket"`
	Overall           int            `json:"overall"`
}

// PageCompleteness is the single-number checklist score shown with an analysis
type PageCompleteness struct {
	Score      int            `json:"score"`
	Percentage int            `json:"percentage"`
	Breakdown  map[string]int `json:"breakdown"`
	Rating     string         `json:"rating"`
}

// BrandValidation is the rule-based brand guess
type BrandValidation struct {
	BrandName  string `json:"brandName"`
	Confidence string `json:"confidence"`
	Verified   bool   `json:"verified"`
	Notes      string `json:"notes"`
}

// Evaluation is the output of the conflict/completeness evaluator
type Evaluation struct {
	Conflicts         []Conflict         `json:"conflicts"`
	MissingAttributes RequiredAttributes `json:"missingAttributes"`
	Completeness      CompletenessScore  `json:"completeness"`
	Recommendations   []string           `json:"recommendations"`
	OverallRisk       Risk               `json:"overallRisk"`
	BrandValidation   BrandValidation    `json:"brandValidation"`
}

// AnalysisRequest is one QC analysis invocation
type AnalysisRequest struct {
	ProductURL     string         `json:"productUrl"`
	VendorName     string         `json:"vendorName"`
	ScreenshotMode bool           `json:"useScreenshotMode"`
	Files          []UploadedFile `json:"files"`
}

// ExtractedAttribute is one row of the report's attribute table
type ExtractedAttribute struct {
	Attribute  string     `json:"attribute"`
	Value      string     `json:"value"`
	Source     string     `json:"source"`
	Confidence Confidence `json:"confidence"`
}

// ComparisonStatus classifies a web-vs-vendor attribute pair
type ComparisonStatus string

const (
	ComparisonMatch         ComparisonStatus = "match"
	ComparisonSimilar       ComparisonStatus = "similar"
	ComparisonPDFMoreDetail ComparisonStatus = "pdf-more-detail"
	ComparisonWebMoreDetail ComparisonStatus = "web-more-detail"
	ComparisonOnlyWeb       ComparisonStatus = "only-web"
	ComparisonOnlyPDF       ComparisonStatus = "only-pdf"
	ComparisonConflict      ComparisonStatus = "conflict"
)

// SourceComparison compares one attribute between the website and a vendor document
type SourceComparison struct {
	Attribute string           `json:"attribute"`
	WebValue  string           `json:"webValue"`
	PDFValue  string           `json:"pdfValue"`
	Status    ComparisonStatus `json:"status"`
}

// Issue is a display-ready conflict or missing-attribute entry
type Issue struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Action      string `json:"action"`
}

// IssueBuckets groups issues for display
type IssueBuckets struct {
	Critical         []Issue `json:"critical"`
	BuildAmbiguities []Issue `json:"buildAmbiguities"`
	MissingInfo      []Issue `json:"missingInfo"`
}

// Total returns the number of issues across all buckets
func (b IssueBuckets) Total() int {
	return len(b.Critical) + len(b.BuildAmbiguities) + len(b.MissingInfo)
}

// DownstreamFlags are operational flags for workflow routing
type DownstreamFlags struct {
	CustomizationEnabled bool `json:"customizationEnabled"`
	SalesSafeToPitch     bool `json:"salesSafeToPitch"`
	OpsReady             bool `json:"opsReady"`
	RequiresManualReview bool `json:"requiresManualReview"`
}

// ProductSummary heads the report
type ProductSummary struct {
	ProductName     string `json:"productName"`
	Brand           string `json:"brand"`
	Category        string `json:"category"`
	ProductType     string `json:"productType"`
	ConfidenceLevel string `json:"confidenceLevel"`
}

// QCReport is the display schema of an analysis
type QCReport struct {
	ProductSummary      ProductSummary       `json:"productSummary"`
	ExtractedAttributes []ExtractedAttribute `json:"extractedAttributes"`
	Issues              IssueBuckets         `json:"issues"`
	Completeness        CompletenessScore    `json:"completeness"`
	SourceComparison    []SourceComparison   `json:"sourceComparison"`
	DownstreamFlags     DownstreamFlags      `json:"downstreamFlags"`
	Timestamp           time.Time            `json:"timestamp"`
}

// AnalysisResult is the full output of one QC analysis
type AnalysisResult struct {
	ID                  string            `json:"id"`
	ProductPage         *ProductRecord    `json:"productPage"`
	Merged              *MergedProduct    `json:"merged"`
	VendorSearchResults []SearchHit       `json:"vendorSearchResults"`
	UploadedFiles       []ParsedFile      `json:"uploadedFiles"`
	SkippedFiles        []SkippedFile     `json:"skippedFiles,omitempty"`
	Category            *CategoryAnalysis `json:"category"`
	Evaluation          *Evaluation       `json:"conflicts"`
	CompletenessScore   *PageCompleteness `json:"completenessScore"`
	Report              *QCReport         `json:"report"`
	Warning             string            `json:"warning,omitempty"`
	Error               string            `json:"error,omitempty"`
	Timestamp           time.Time         `json:"timestamp"`
}
