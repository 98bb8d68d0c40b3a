package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

// QCServiceConfig holds configuration for the QC analysis service
type QCServiceConfig struct {
	ReportTTL          time.Duration
	EnableDebugLogging bool
}

const defaultReportTTL = 24 * time.Hour

// QCService runs a full QC analysis: collect sources, merge, classify,
// evaluate and build the report
type QCService struct {
	collector  *SourceCollector
	aggregator *Aggregator
	classifier CategoryClassifier
	schema     *CategorySchema
	evaluator  *ConflictEvaluator
	reports    *ReportBuilder
	cache      domain.CacheRepository

	reportTTL          time.Duration
	enableDebugLogging bool
}

// NewQCService creates a new QC service. cache may be nil, in which case
// finished analyses are not kept and GetReport always misses.
func NewQCService(
	collector *SourceCollector,
	classifier CategoryClassifier,
	cache domain.CacheRepository,
	config QCServiceConfig,
) *QCService {
	ttl := config.ReportTTL
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	debug := config.EnableDebugLogging

	return &QCService{
		collector:          collector,
		aggregator:         NewAggregator(debug),
		classifier:         classifier,
		schema:             NewCategorySchema(debug),
		evaluator:          NewConflictEvaluator(debug),
		reports:            NewReportBuilder(debug),
		cache:              cache,
		reportTTL:          ttl,
		enableDebugLogging: debug,
	}
}

// ValidateRequest checks the fields every analysis needs
func ValidateRequest(req *domain.AnalysisRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is required", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.VendorName) == "" {
		return fmt.Errorf("%w: Vendor name is required", domain.ErrInvalidRequest)
	}
	if req.ScreenshotMode {
		for _, f := range req.Files {
			if ClassifyFile(f) == domain.FileKindImage {
				return nil
			}
		}
		return fmt.Errorf("%w: Screenshot mode requires an image file upload", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(req.ProductURL) == "" {
		return fmt.Errorf("%w: Product URL is required (or enable screenshot mode)", domain.ErrInvalidRequest)
	}
	return nil
}

// Analyze runs one QC analysis. Only request validation fails; any
// failure past that point yields a fallback result with Error set.
func (s *QCService) Analyze(ctx context.Context, req *domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	log.Printf("[QC] Starting analysis for vendor %q (screenshot=%t, %d files)", req.VendorName, req.ScreenshotMode, len(req.Files))

	result := s.runSafely(ctx, req)

	if s.cache != nil {
		if err := s.cache.Set(ctx, reportCacheKey(result.ID), result, s.reportTTL); err != nil {
			log.Printf("[QC] Failed to cache analysis %s: %v", result.ID, err)
		}
	}

	log.Printf("[QC] Analysis %s complete in %v: risk=%s, %d conflicts",
		result.ID, time.Since(start).Round(time.Millisecond), result.Evaluation.OverallRisk, len(result.Evaluation.Conflicts))

	return result, nil
}

// runSafely converts a panic anywhere in the pipeline into a fallback result
func (s *QCService) runSafely(ctx context.Context, req *domain.AnalysisRequest) (result *domain.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[QC] Analysis failed: %v", r)
			result = s.fallbackResult(req, fmt.Sprintf("analysis failed: %v", r))
		}
	}()
	return s.run(ctx, req)
}

func (s *QCService) run(ctx context.Context, req *domain.AnalysisRequest) *domain.AnalysisResult {
	col := s.collector.Collect(ctx, req)

	merged := s.aggregator.Aggregate(col.Records())
	if merged.URL == "" {
		merged.URL = strings.TrimSpace(req.ProductURL)
	}

	category := s.Categorize(merged, col.VendorFiles)
	var validation *domain.CategoryValidation
	if category != nil {
		validation = category.Validation
	}

	eval := s.evaluator.Evaluate(merged, col.VendorFiles, validation)

	var webRecord *domain.ProductRecord
	if r := col.Primary.Record; r != nil && r.Source == domain.SourceWebsite && !r.IsLimitedData {
		webRecord = r
	}
	report := s.reports.Build(ReportInput{
		VendorName:    req.VendorName,
		Merged:        merged,
		Category:      category,
		Evaluation:    eval,
		WebRecord:     webRecord,
		VendorRecords: col.VendorRecords(),
	})

	return &domain.AnalysisResult{
		ID:                  uuid.NewString(),
		ProductPage:         col.Primary.Record,
		Merged:              merged,
		VendorSearchResults: col.SearchHits,
		UploadedFiles:       col.VendorFiles,
		SkippedFiles:        col.SkippedFiles,
		Category:            category,
		Evaluation:          eval,
		CompletenessScore:   PageCompletenessScore(merged, col.VendorFiles),
		Report:              report,
		Warning:             strings.Join(col.Warnings, "; "),
		Timestamp:           time.Now(),
	}
}

// Categorize classifies the merged product and validates it against the
// detected category. Returns nil when no category matched.
func (s *QCService) Categorize(merged *domain.MergedProduct, vendorFiles []domain.ParsedFile) *domain.CategoryAnalysis {
	if s.classifier == nil || merged == nil {
		return nil
	}

	res := s.classifier.Classify(ClassificationInput{
		Title:       merged.Title,
		Description: merged.Description,
		RawText:     merged.RawText,
		URL:         merged.URL,
	})
	if res.Category == nil {
		if s.enableDebugLogging {
			log.Printf("[QC] No category matched %q", merged.Title)
		}
		return nil
	}

	text := strings.Join([]string{merged.Title, merged.Description, merged.RawText}, "\n")
	attrs := s.schema.ExtractCategoryAttributes(text, res.Category)

	return &domain.CategoryAnalysis{
		Key:                res.Category.Key,
		DisplayName:        res.Category.DisplayName,
		Score:              res.Score,
		Strategy:           res.Strategy,
		Attributes:         attrs,
		RequiredAttributes: s.schema.RequiredAttributes(res.Category),
		Validation:         s.schema.Validate(BuildCorpus(merged, vendorFiles, attrs), res.Category),
	}
}

// EvaluateRecord runs the conflict evaluator over a single product record
func (s *QCService) EvaluateRecord(record *domain.ProductRecord, vendorFiles []domain.ParsedFile) *domain.Evaluation {
	merged := s.aggregator.Aggregate([]*domain.ProductRecord{record})
	var validation *domain.CategoryValidation
	if category := s.Categorize(merged, vendorFiles); category != nil {
		validation = category.Validation
	}
	return s.evaluator.Evaluate(merged, vendorFiles, validation)
}

// GetReport returns a previously computed analysis
func (s *QCService) GetReport(ctx context.Context, id string) (*domain.AnalysisResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: report id is required", domain.ErrInvalidRequest)
	}
	if s.cache == nil {
		return nil, domain.ErrReportNotFound
	}

	value, err := s.cache.Get(ctx, reportCacheKey(id))
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, domain.ErrReportNotFound
		}
		return nil, err
	}

	return decodeResult(value)
}

// decodeResult accepts the stored value in any of the shapes a cache may hand back
func decodeResult(value interface{}) (*domain.AnalysisResult, error) {
	switch v := value.(type) {
	case *domain.AnalysisResult:
		return v, nil
	case json.RawMessage:
		return unmarshalResult(v)
	case []byte:
		return unmarshalResult(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReportNotFound, err)
		}
		return unmarshalResult(data)
	}
}

func unmarshalResult(data []byte) (*domain.AnalysisResult, error) {
	var result domain.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrReportNotFound, err)
	}
	return &result, nil
}

func (s *QCService) fallbackResult(req *domain.AnalysisRequest, reason string) *domain.AnalysisResult {
	merged := &domain.MergedProduct{
		URL:            strings.TrimSpace(req.ProductURL),
		Specifications: map[string]domain.SpecValue{},
		Images:         []string{},
		Sources:        []domain.SourceTag{},
		Error:          reason,
	}
	eval := s.evaluator.Evaluate(merged, nil, nil)

	return &domain.AnalysisResult{
		ID:                  uuid.NewString(),
		Merged:              merged,
		VendorSearchResults: []domain.SearchHit{},
		UploadedFiles:       []domain.ParsedFile{},
		Evaluation:          eval,
		CompletenessScore:   PageCompletenessScore(merged, nil),
		Report: s.reports.Build(ReportInput{
			VendorName: req.VendorName,
			Merged:     merged,
			Evaluation: eval,
		}),
		Warning:   "Analysis did not complete; showing fallback data",
		Error:     reason,
		Timestamp: time.Now(),
	}
}

func reportCacheKey(id string) string {
	return "report:" + id
}
