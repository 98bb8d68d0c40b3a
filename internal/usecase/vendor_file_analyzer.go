package usecase

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

// maxVendorRawText caps the raw text a vendor record carries into the merge
const maxVendorRawText = 5000

var (
	pdfProductCodePattern = regexp.MustCompile(`\b([A-Z]{2,}\d{3,}|\d{3,}[A-Z]{2,})\b`)
	pdfColumnSplit        = regexp.MustCompile(`\s{2,}|\t`)

	pdfSpecPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(material):[ \t]*([^\n]+)`),
		regexp.MustCompile(`(?i)(dimensions?):[ \t]*([^\n]+)`),
		regexp.MustCompile(`(?i)(weight):[ \t]*([^\n]+)`),
		regexp.MustCompile(`(?i)(colou?r):[ \t]*([^\n]+)`),
		regexp.MustCompile(`(?i)(size):[ \t]*([^\n]+)`),
		regexp.MustCompile(`(?i)(capacity):[ \t]*([^\n]+)`),
		regexp.MustCompile(`(?i)(packaging):[ \t]*([^\n]+)`),
	}

	pdfPricePattern      = regexp.MustCompile(`(?i)(?:₹|Rs\.?|USD|\$|EUR|€)\s*[\d,]+(?:\.\d{2})?`)
	pdfPriceRangePattern = regexp.MustCompile(`(?i)(\d+)\s*-\s*(\d+)\s*(?:₹|Rs\.?|USD|\$)`)

	pdfMOQPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)MOQ:?\s*(\d+)`),
		regexp.MustCompile(`(?i)Minimum Order Quantity:?\s*(\d+)`),
		regexp.MustCompile(`(?i)Min\.? Order:?\s*(\d+)`),
		regexp.MustCompile(`(?i)Minimum Quantity:?\s*(\d+)`),
	}

	pdfLeadTimePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Lead Time:?[ \t]*([^\n]+)`),
		regexp.MustCompile(`(?i)Delivery Time:?[ \t]*([^\n]+)`),
		regexp.MustCompile(`(?i)Production Time:?[ \t]*([^\n]+)`),
		regexp.MustCompile(`(?i)(\d+\s*(?:days?|weeks?|months?))\s*(?:lead time|delivery)`),
	}

	brandingKeywords = []string{
		"screen print", "embroidery", "laser engraving", "pad print",
		"digital print", "heat transfer", "debossing", "embossing",
		"sublimation", "uv print", "laser etch",
	}
)

// Header aliases used to bucket spreadsheet rows
var (
	excelProductKeys  = []string{"product", "item", "sku", "code", "name"}
	excelPricingKeys  = []string{"price", "cost", "rate", "amount"}
	excelSpecKeys     = []string{"material", "dimensions", "weight", "size", "color"}
	excelMOQKeys      = []string{"moq", "minimum", "min order"}
	excelBrandingKeys = []string{"branding", "printing", "customization", "logo"}
	excelItemNameKeys = []string{"product", "item", "name"}
)

const (
	defaultCurrency = "INR"
	defaultMOQUnit  = "pieces"
)

// VendorFileAnalyzer turns uploaded vendor documents into structured
// extractions and VendorPDF/VendorExcel product records
type VendorFileAnalyzer struct {
	parser             domain.DocumentParser
	normalizer         *KeyNormalizer
	enableDebugLogging bool
}

// NewVendorFileAnalyzer creates a new vendor file analyzer
func NewVendorFileAnalyzer(parser domain.DocumentParser, normalizer *KeyNormalizer, enableDebugLogging bool) *VendorFileAnalyzer {
	if normalizer == nil {
		normalizer = NewKeyNormalizer(enableDebugLogging)
	}
	return &VendorFileAnalyzer{
		parser:             parser,
		normalizer:         normalizer,
		enableDebugLogging: enableDebugLogging,
	}
}

// ClassifyFile decides how an upload is handled, by MIME type first and
// file extension second
func ClassifyFile(file domain.UploadedFile) domain.FileKind {
	mime := strings.ToLower(strings.TrimSpace(file.MimeType))
	switch {
	case mime == "application/pdf":
		return domain.FileKindPDF
	case mime == "application/vnd.ms-excel",
		mime == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		mime == "text/csv":
		return domain.FileKindExcel
	case strings.HasPrefix(mime, "image/"):
		return domain.FileKindImage
	}

	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".pdf":
		return domain.FileKindPDF
	case ".xlsx", ".xlsm", ".xls", ".csv":
		return domain.FileKindExcel
	case ".png", ".jpg", ".jpeg", ".webp":
		return domain.FileKindImage
	}
	return domain.FileKindUnsupported
}

// Analyze parses one vendor file and derives its record.
// Images and unsupported types return ErrUnsupportedFile; parse failures
// return ErrParseFailure so the caller can skip the file.
func (a *VendorFileAnalyzer) Analyze(ctx context.Context, file domain.UploadedFile) (*domain.ParsedFile, *domain.ProductRecord, error) {
	parsed := &domain.ParsedFile{
		Filename: file.Filename,
		Type:     file.MimeType,
		Size:     file.Size(),
		Kind:     ClassifyFile(file),
	}

	switch parsed.Kind {
	case domain.FileKindPDF:
		doc, err := a.parser.ParsePDF(ctx, file.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", domain.ErrParseFailure, file.Filename, err)
		}
		parsed.PDF = a.AnalyzePDF(doc)
		if a.enableDebugLogging {
			log.Printf("[VENDOR] %s: %d pages, %d specs, moq=%q", file.Filename, parsed.PDF.TotalPages, len(parsed.PDF.Specifications), parsed.PDF.MOQ)
		}
		return parsed, a.PDFRecord(parsed.PDF), nil

	case domain.FileKindExcel:
		wb, err := a.parser.ParseExcel(ctx, file.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", domain.ErrParseFailure, file.Filename, err)
		}
		parsed.Sheets = wb.Sheets
		parsed.Excel = a.AnalyzeWorkbook(wb)
		if a.enableDebugLogging {
			log.Printf("[VENDOR] %s: %d sheets, %d products, %d pricing rows", file.Filename, len(wb.Sheets), len(parsed.Excel.Products), len(parsed.Excel.Pricing))
		}
		return parsed, a.ExcelRecord(parsed.Excel, wb), nil

	default:
		return nil, nil, fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedFile, file.Filename, file.MimeType)
	}
}

// AnalyzePDF derives commercial and specification data from PDF text
func (a *VendorFileAnalyzer) AnalyzePDF(doc *domain.PDFDocument) *domain.PDFExtraction {
	if doc == nil {
		doc = &domain.PDFDocument{}
	}
	text := doc.Text
	return &domain.PDFExtraction{
		TotalPages:      doc.NumPages,
		RawText:         text,
		ProductCodes:    uniqueMatches(pdfProductCodePattern.FindAllString(text, -1)),
		Tables:          extractTextTables(text),
		Specifications:  extractLabelledSpecs(text),
		Pricing:         extractPricing(text),
		MOQ:             firstSubmatch(pdfMOQPatterns, text),
		LeadTime:        firstSubmatch(pdfLeadTimePatterns, text),
		BrandingMethods: extractBrandingMethods(text),
	}
}

// PDFRecord builds the VendorPDF product record for a PDF extraction
func (a *VendorFileAnalyzer) PDFRecord(ext *domain.PDFExtraction) *domain.ProductRecord {
	raw := make(map[string]string, len(ext.Specifications)+3)
	for k, v := range ext.Specifications {
		raw[k] = v
	}
	if ext.MOQ != "" {
		raw["MOQ"] = ext.MOQ
	}
	if ext.LeadTime != "" {
		raw["Lead Time"] = ext.LeadTime
	}
	if len(ext.BrandingMethods) > 0 {
		raw["Branding"] = strings.Join(ext.BrandingMethods, ", ")
	}
	if len(ext.ProductCodes) > 0 {
		raw["SKU"] = ext.ProductCodes[0]
	}

	rec := &domain.ProductRecord{
		Specifications: a.normalizer.NormalizeSpecifications(raw),
		Images:         []string{},
		RawText:        truncateRunes(ext.RawText, maxVendorRawText),
		Source:         domain.SourceVendorPDF,
		FetchedAt:      time.Now(),
	}
	if len(ext.Pricing) > 0 {
		rec.Price = ext.Pricing[0]
	}
	return rec
}

// AnalyzeWorkbook buckets spreadsheet rows into products, pricing,
// specifications, MOQ and branding entries by their headers
func (a *VendorFileAnalyzer) AnalyzeWorkbook(wb *domain.Workbook) *domain.ExcelExtraction {
	ext := &domain.ExcelExtraction{
		Products:       []domain.ExcelProduct{},
		Pricing:        []domain.ExcelPricing{},
		Specifications: []domain.ExcelSpecification{},
		MOQ:            []domain.ExcelMOQ{},
		Branding:       []domain.ExcelBranding{},
	}
	if wb == nil {
		return ext
	}

	for _, sheet := range wb.Sheets {
		for _, original := range sheet.Rows {
			row := make(map[string]string, len(original))
			for k, v := range original {
				row[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
			}
			bucketRow(row, ext)
		}
	}

	return ext
}

func bucketRow(row map[string]string, ext *domain.ExcelExtraction) {
	if hasAnyKey(row, excelProductKeys) {
		ext.Products = append(ext.Products, domain.ExcelProduct{
			Name:        findValue(row, "product", "item", "name", "product name"),
			SKU:         findValue(row, "sku", "code", "item code", "product code"),
			Description: findValue(row, "description", "desc", "details"),
			Category:    findValue(row, "category", "type", "group"),
		})
	}

	if hasAnyKey(row, excelPricingKeys) {
		p := domain.ExcelPricing{
			Item:     findValue(row, excelItemNameKeys...),
			Price:    findValue(row, "price", "unit price", "cost", "rate"),
			Quantity: findValue(row, "quantity", "qty", "units"),
			Currency: findValue(row, "currency", "curr"),
			Discount: findValue(row, "discount", "disc", "discount %"),
		}
		if p.Currency == "" {
			p.Currency = defaultCurrency
		}
		ext.Pricing = append(ext.Pricing, p)
	}

	if hasAnyKey(row, excelSpecKeys) {
		ext.Specifications = append(ext.Specifications, domain.ExcelSpecification{
			Item:       findValue(row, excelItemNameKeys...),
			Material:   findValue(row, "material", "mat"),
			Dimensions: findValue(row, "dimensions", "size", "dim"),
			Weight:     findValue(row, "weight", "wt"),
			Color:      findValue(row, "color", "colour"),
			Packaging:  findValue(row, "packaging", "packing", "pack"),
		})
	}

	if hasAnyKey(row, excelMOQKeys) {
		m := domain.ExcelMOQ{
			Item:     findValue(row, excelItemNameKeys...),
			MOQ:      findValue(row, "moq", "minimum order quantity", "min order", "minimum"),
			Unit:     findValue(row, "unit", "uom"),
			LeadTime: findValue(row, "lead time", "delivery time", "production time"),
		}
		if m.Unit == "" {
			m.Unit = defaultMOQUnit
		}
		ext.MOQ = append(ext.MOQ, m)
	}

	if hasAnyKey(row, excelBrandingKeys) {
		ext.Branding = append(ext.Branding, domain.ExcelBranding{
			Item:   findValue(row, excelItemNameKeys...),
			Method: findValue(row, "branding", "branding method", "printing", "customization"),
			Area:   findValue(row, "printable area", "logo area", "branding area"),
			Colors: findValue(row, "colors", "colour options", "available colors"),
			Cost:   findValue(row, "branding cost", "printing cost", "logo cost"),
		})
	}
}

// ExcelRecord builds the VendorExcel product record from the first
// non-empty entry of each bucket
func (a *VendorFileAnalyzer) ExcelRecord(ext *domain.ExcelExtraction, wb *domain.Workbook) *domain.ProductRecord {
	raw := make(map[string]string)
	rec := &domain.ProductRecord{
		Images:    []string{},
		Source:    domain.SourceVendorExcel,
		FetchedAt: time.Now(),
	}

	for _, p := range ext.Products {
		if rec.Title == "" {
			rec.Title = p.Name
		}
		setIfEmpty(raw, "SKU", p.SKU)
		setIfEmpty(raw, "Category", p.Category)
		if rec.Description == "" {
			rec.Description = p.Description
		}
	}
	for _, p := range ext.Pricing {
		if rec.Price == "" && p.Price != "" {
			rec.Price = strings.TrimSpace(p.Currency + " " + p.Price)
		}
	}
	for _, s := range ext.Specifications {
		setIfEmpty(raw, "Material", s.Material)
		setIfEmpty(raw, "Dimensions", s.Dimensions)
		setIfEmpty(raw, "Weight", s.Weight)
		setIfEmpty(raw, "Color", s.Color)
		setIfEmpty(raw, "Packaging", s.Packaging)
	}
	for _, m := range ext.MOQ {
		if m.MOQ != "" {
			setIfEmpty(raw, "MOQ", strings.TrimSpace(m.MOQ+" "+m.Unit))
		}
		setIfEmpty(raw, "Lead Time", m.LeadTime)
	}
	for _, b := range ext.Branding {
		setIfEmpty(raw, "Branding", b.Method)
		setIfEmpty(raw, "Branding Area", b.Area)
	}

	rec.Specifications = a.normalizer.NormalizeSpecifications(raw)
	rec.RawText = truncateRunes(workbookText(wb), maxVendorRawText)
	return rec
}

// extractLabelledSpecs collects "Label: value" lines; later lines with
// the same label overwrite earlier ones
func extractLabelledSpecs(text string) map[string]string {
	specs := make(map[string]string)
	for _, p := range pdfSpecPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			value := strings.TrimSpace(m[2])
			if value == "" {
				continue
			}
			specs[titleCaseWords(strings.ToLower(m[1]))] = value
		}
	}
	return specs
}

// extractTextTables groups consecutive lines of three or more
// space-separated columns; a group needs at least three rows
func extractTextTables(text string) [][][]string {
	tables := [][][]string{}
	var current [][]string

	flush := func() {
		if len(current) >= 3 {
			tables = append(tables, current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		var cols []string
		for _, c := range pdfColumnSplit.Split(strings.TrimSpace(line), -1) {
			if c = strings.TrimSpace(c); c != "" {
				cols = append(cols, c)
			}
		}
		if len(cols) >= 3 {
			current = append(current, cols)
			continue
		}
		flush()
	}
	flush()

	return tables
}

func extractPricing(text string) []string {
	pricing := uniqueMatches(pdfPricePattern.FindAllString(text, -1))
	for _, m := range pdfPriceRangePattern.FindAllString(text, -1) {
		pricing = append(pricing, m)
	}
	return pricing
}

func extractBrandingMethods(text string) []string {
	lower := strings.ToLower(text)
	methods := []string{}
	for _, kw := range brandingKeywords {
		if strings.Contains(lower, kw) {
			methods = append(methods, kw)
		}
	}
	return methods
}

// firstSubmatch returns the first capture of the first pattern that matches
func firstSubmatch(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if v := strings.TrimSpace(m[1]); v != "" {
				return v
			}
		}
	}
	return ""
}

func uniqueMatches(matches []string) []string {
	out := []string{}
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func hasAnyKey(row map[string]string, keys []string) bool {
	for _, k := range keys {
		if _, ok := row[k]; ok {
			return true
		}
	}
	return false
}

func findValue(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != "" {
			return v
		}
	}
	return ""
}

func setIfEmpty(m map[string]string, key, value string) {
	if value == "" || m[key] != "" {
		return
	}
	m[key] = value
}

// workbookText flattens sheets into "header: value" lines with sorted headers
func workbookText(wb *domain.Workbook) string {
	if wb == nil {
		return ""
	}
	var b strings.Builder
	for _, sheet := range wb.Sheets {
		for _, row := range sheet.Rows {
			headers := make([]string, 0, len(row))
			for h := range row {
				headers = append(headers, h)
			}
			sort.Strings(headers)
			for _, h := range headers {
				if row[h] == "" {
					continue
				}
				b.WriteString(h)
				b.WriteString(": ")
				b.WriteString(row[h])
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
