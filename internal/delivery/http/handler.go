package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
	"github.com/Sneha-Offi/qc-backend-engine/internal/usecase"
)

const (
	serviceName    = "qc-backend-engine"
	serviceVersion = "1.0.0"

	defaultMaxUploadMB = 10
	defaultMaxFiles    = 10
)

var allowedUploadTypes = map[string]bool{
	"application/pdf":          true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/csv":   true,
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/webp": true,
}

// oleMagic opens legacy binary Office files. Windows browsers label CSV as
// application/vnd.ms-excel too, so the bytes decide, not the MIME type.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}

var serviceFeatures = []string{
	"web-scraping",
	"web-search",
	"pdf-parsing",
	"excel-parsing",
	"conflict-analysis",
	"category-detection",
	"screenshot-ocr",
}

// HandlerConfig holds the dependencies and upload limits of the HTTP handlers.
// Any dependency may be nil; its endpoints then answer 503.
type HandlerConfig struct {
	QC           *usecase.QCService
	Search       domain.SearchClient
	VendorSearch *usecase.SearchFetcher
	Scraper      domain.PageScraper
	VendorFiles  *usecase.VendorFileAnalyzer
	MaxUploadMB  int
	MaxFiles     int
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	qc             *usecase.QCService
	search         domain.SearchClient
	vendorSearch   *usecase.SearchFetcher
	scraper        domain.PageScraper
	vendorFiles    *usecase.VendorFileAnalyzer
	maxUploadBytes int64
	maxFiles       int
}

// NewHandler creates a new HTTP handler
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = defaultMaxUploadMB
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = defaultMaxFiles
	}
	return &Handler{
		qc:             cfg.QC,
		search:         cfg.Search,
		vendorSearch:   cfg.VendorSearch,
		scraper:        cfg.Scraper,
		vendorFiles:    cfg.VendorFiles,
		maxUploadBytes: int64(cfg.MaxUploadMB) << 20,
		maxFiles:       cfg.MaxFiles,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   serviceName,
		"version":   serviceVersion,
		"features":  serviceFeatures,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// QCAnalysis runs a full QC analysis from a multipart form with fields
// productUrl, vendorName, useScreenshotMode and up to ten "files"
func (h *Handler) QCAnalysis(c *gin.Context) {
	if h.qc == nil {
		notConfigured(c, "QC analysis")
		return
	}

	files, err := h.readUploads(c, "files")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	screenshot, _ := strconv.ParseBool(strings.TrimSpace(c.PostForm("useScreenshotMode")))
	req := &domain.AnalysisRequest{
		ProductURL:     strings.TrimSpace(c.PostForm("productUrl")),
		VendorName:     strings.TrimSpace(c.PostForm("vendorName")),
		ScreenshotMode: screenshot,
		Files:          files,
	}

	log.Printf("[HTTP] QC analysis request %s: vendor=%q url=%q screenshot=%t files=%d",
		c.GetString(requestIDKey), req.VendorName, req.ProductURL, req.ScreenshotMode, len(req.Files))

	result, err := h.qc.Analyze(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	body := gin.H{
		"success":  true,
		"analysis": result,
	}
	if result.Warning != "" {
		body["warning"] = result.Warning
	}
	c.JSON(http.StatusOK, body)
}

// GetAnalysis returns a previously computed analysis by id
func (h *Handler) GetAnalysis(c *gin.Context) {
	if h.qc == nil {
		notConfigured(c, "QC analysis")
		return
	}

	result, err := h.qc.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analysis": result})
}

type searchRequest struct {
	Query      string `json:"query"`
	NumResults int    `json:"numResults"`
}

// Search runs a raw web search
func (h *Handler) Search(c *gin.Context) {
	if h.search == nil {
		notConfigured(c, "Search")
		return
	}

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter is required"})
		return
	}
	if req.NumResults <= 0 {
		req.NumResults = 5
	}

	results, err := h.search.Search(c.Request.Context(), req.Query, req.NumResults)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

type vendorSearchRequest struct {
	VendorName  string `json:"vendorName"`
	ProductName string `json:"productName"`
}

// SearchVendor searches for a vendor's product and keeps relevant results only
func (h *Handler) SearchVendor(c *gin.Context) {
	if h.vendorSearch == nil {
		notConfigured(c, "Search")
		return
	}

	var req vendorSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil ||
		strings.TrimSpace(req.VendorName) == "" || strings.TrimSpace(req.ProductName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vendor name and product name are required"})
		return
	}

	results, err := h.vendorSearch.SearchVendor(c.Request.Context(), req.VendorName, req.ProductName)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

type scrapeRequest struct {
	URL string `json:"url"`
}

// Scrape fetches a single product page. Blocked pages still answer 200
// with the limited fallback record and a warning.
func (h *Handler) Scrape(c *gin.Context) {
	if h.scraper == nil {
		notConfigured(c, "Scraping")
		return
	}

	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL parameter is required"})
		return
	}

	res := h.scraper.Scrape(c.Request.Context(), strings.TrimSpace(req.URL))
	body := gin.H{"success": true, "data": res.Record}
	if res.Degraded {
		body["warning"] = res.Reason
	}
	c.JSON(http.StatusOK, body)
}

// ParsePDF parses a single uploaded vendor PDF
func (h *Handler) ParsePDF(c *gin.Context) {
	h.parseSingle(c, domain.FileKindPDF, "No PDF file uploaded")
}

// ParseExcel parses a single uploaded vendor spreadsheet or CSV
func (h *Handler) ParseExcel(c *gin.Context) {
	h.parseSingle(c, domain.FileKindExcel, "No Excel/CSV file uploaded")
}

func (h *Handler) parseSingle(c *gin.Context, kind domain.FileKind, missing string) {
	if h.vendorFiles == nil {
		notConfigured(c, "Document parsing")
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": missing})
		return
	}
	file, err := h.readUpload(header)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if usecase.ClassifyFile(file) != kind {
		c.JSON(http.StatusBadRequest, gin.H{"error": missing})
		return
	}

	parsed, _, err := h.vendorFiles.Analyze(c.Request.Context(), file)
	if err != nil {
		h.handleError(c, err)
		return
	}

	var data interface{} = parsed.PDF
	if kind == domain.FileKindExcel {
		data = gin.H{
			"sheets":        parsed.Sheets,
			"totalSheets":   len(parsed.Sheets),
			"extractedData": parsed.Excel,
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"data":     data,
		"filename": file.Filename,
		"filesize": file.Size(),
	})
}

type analyzeConflictsRequest struct {
	ProductData *domain.ProductRecord `json:"productData"`
	VendorFiles []domain.ParsedFile   `json:"vendorFiles"`
}

// AnalyzeConflicts evaluates a single product record and its vendor files
func (h *Handler) AnalyzeConflicts(c *gin.Context) {
	if h.qc == nil {
		notConfigured(c, "QC analysis")
		return
	}

	var req analyzeConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductData == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product data is required"})
		return
	}
	if req.ProductData.Source == "" {
		req.ProductData.Source = domain.SourceWebsite
	}

	evaluation := h.qc.EvaluateRecord(req.ProductData, req.VendorFiles)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"conflicts": evaluation,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type classifyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	RawText     string `json:"rawText"`
	URL         string `json:"url"`
}

// Classify detects the product category and validates its attributes
func (h *Handler) Classify(c *gin.Context) {
	if h.qc == nil {
		notConfigured(c, "QC analysis")
		return
	}

	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil ||
		strings.TrimSpace(req.Title+req.Description+req.RawText) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title, description or raw text is required"})
		return
	}

	category := h.qc.Categorize(&domain.MergedProduct{
		Title:          req.Title,
		Description:    req.Description,
		RawText:        req.RawText,
		URL:            req.URL,
		Specifications: map[string]domain.SpecValue{},
	}, nil)
	c.JSON(http.StatusOK, gin.H{"success": true, "category": category})
}

// readUploads reads every file under field, enforcing the count, size and
// type limits. A request without a multipart body has no files.
func (h *Handler) readUploads(c *gin.Context, field string) ([]domain.UploadedFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid multipart form: %v", err)
	}

	headers := form.File[field]
	if len(headers) > h.maxFiles {
		return nil, fmt.Errorf("Too many files: at most %d files are allowed", h.maxFiles)
	}

	files := make([]domain.UploadedFile, 0, len(headers))
	for _, header := range headers {
		f, err := h.readUpload(header)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func (h *Handler) readUpload(header *multipart.FileHeader) (domain.UploadedFile, error) {
	mimeType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !allowedUploadTypes[mimeType] {
		return domain.UploadedFile{}, errors.New("Invalid file type. Only PDF, Excel, CSV, and image files are allowed.")
	}
	if header.Size > h.maxUploadBytes {
		return domain.UploadedFile{}, fmt.Errorf("File %s exceeds the %d MB upload limit", header.Filename, h.maxUploadBytes>>20)
	}

	f, err := header.Open()
	if err != nil {
		return domain.UploadedFile{}, fmt.Errorf("failed to read %s: %v", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		return domain.UploadedFile{}, fmt.Errorf("failed to read %s: %v", header.Filename, err)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return domain.UploadedFile{}, fmt.Errorf("File %s exceeds the %d MB upload limit", header.Filename, h.maxUploadBytes>>20)
	}
	if bytes.HasPrefix(data, oleMagic) {
		return domain.UploadedFile{}, fmt.Errorf("File %s is a legacy .xls workbook, which is not supported. Upload .xlsx or .csv instead.", header.Filename)
	}

	return domain.UploadedFile{Filename: header.Filename, MimeType: mimeType, Data: data}, nil
}

// handleError maps domain errors to HTTP status codes
func (h *Handler) handleError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
		message = strings.TrimPrefix(message, domain.ErrInvalidRequest.Error()+": ")
	case errors.Is(err, domain.ErrReportNotFound):
		status = http.StatusNotFound
		message = "Report not found"
	case errors.Is(err, domain.ErrUnsupportedFile):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrParseFailure):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSearchNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrSearchAPIFailure):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	}

	if status >= http.StatusInternalServerError {
		log.Printf("[HTTP] Request %s failed: %v", c.GetString(requestIDKey), err)
	}
	c.JSON(status, gin.H{"error": message})
}

func notConfigured(c *gin.Context, feature string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": feature + " is not configured"})
}
