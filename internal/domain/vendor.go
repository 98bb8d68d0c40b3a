package domain

// FileKind classifies an uploaded vendor file
type FileKind string

const (
	FileKindPDF         FileKind = "pdf"
	FileKindExcel       FileKind = "excel"
	FileKindImage       FileKind = "image"
	FileKindUnsupported FileKind = "unsupported"
)

// UploadedFile is a file attached to an analysis request
type UploadedFile struct {
	Filename string `json:"filename"`
	MimeType string `json:"type"`
	Data     []byte `json:"-"`
}

// Size returns the byte size of the upload
func (f UploadedFile) Size() int {
	return len(f.Data)
}

// PDFDocument is the raw text extracted from a PDF, page by page
type PDFDocument struct {
	Pages    []string `json:"pages"`
	Text     string   `json:"text"`
	NumPages int      `json:"numPages"`
}

// Sheet is one worksheet with rows keyed by header
type Sheet struct {
	Name    string              `json:"name"`
	Columns int                 `json:"columns"`
	Rows    []map[string]string `json:"data"`
}

// Workbook is a parsed spreadsheet
type Workbook struct {
	Sheets []Sheet `json:"sheets"`
}

// PDFExtraction holds commercial and spec data derived from vendor PDF text
type PDFExtraction struct {
	TotalPages      int               `json:"totalPages"`
	RawText         string            `json:"rawText"`
	ProductCodes    []string          `json:"productCodes"`
	Tables          [][][]string      `json:"tables"`
	Specifications  map[string]string `json:"specifications"`
	Pricing         []string          `json:"pricing"`
	MOQ             string            `json:"moq"`
	LeadTime        string            `json:"leadTime"`
	BrandingMethods []string          `json:"brandingMethods"`
}

// ExcelProduct is a product row bucket
type ExcelProduct struct {
	Name        string `json:"name,omitempty"`
	SKU         string `json:"sku,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// ExcelPricing is a pricing row bucket
type ExcelPricing struct {
	Item     string `json:"item,omitempty"`
	Price    string `json:"price,omitempty"`
	Quantity string `json:"quantity,omitempty"`
	Currency string `json:"currency,omitempty"`
	Discount string `json:"discount,omitempty"`
}

// ExcelSpecification is a specification row bucket
type ExcelSpecification struct {
	Item       string `json:"item,omitempty"`
	Material   string `json:"material,omitempty"`
	Dimensions string `json:"dimensions,omitempty"`
	Weight     string `json:"weight,omitempty"`
	Color      string `json:"color,omitempty"`
	Packaging  string `json:"packaging,omitempty"`
}

// ExcelMOQ is an MOQ row bucket
type ExcelMOQ struct {
	Item     string `json:"item,omitempty"`
	MOQ      string `json:"moq,omitempty"`
	Unit     string `json:"unit,omitempty"`
	LeadTime string `json:"leadTime,omitempty"`
}

// ExcelBranding is a branding row bucket
type ExcelBranding struct {
	Item   string `json:"item,omitempty"`
	Method string `json:"method,omitempty"`
	Area   string `json:"area,omitempty"`
	Colors string `json:"colors,omitempty"`
	Cost   string `json:"cost,omitempty"`
}

// ExcelExtraction holds the row buckets derived from a workbook
type ExcelExtraction struct {
	Products       []ExcelProduct       `json:"products"`
	Pricing        []ExcelPricing       `json:"pricing"`
	Specifications []ExcelSpecification `json:"specifications"`
	MOQ            []ExcelMOQ           `json:"moq"`
	Branding       []ExcelBranding      `json:"branding"`
}

// ParsedFile is a vendor file after parsing, ready for evaluation
type ParsedFile struct {
	Filename string           `json:"filename"`
	Type     string           `json:"type"`
	Size     int              `json:"size"`
	Kind     FileKind         `json:"kind"`
	PDF      *PDFExtraction   `json:"pdf,omitempty"`
	Excel    *ExcelExtraction `json:"excel,omitempty"`
	Sheets   []Sheet          `json:"sheets,omitempty"`
}

// HasMOQ reports whether the file carries any MOQ information
func (f ParsedFile) HasMOQ() bool {
	if f.PDF != nil && f.PDF.MOQ != "" {
		return true
	}
	return f.Excel != nil && len(f.Excel.MOQ) > 0
}

// HasLeadTime reports whether the file carries a lead time
func (f ParsedFile) HasLeadTime() bool {
	if f.PDF != nil && f.PDF.LeadTime != "" {
		return true
	}
	if f.Excel != nil {
		for _, m := range f.Excel.MOQ {
			if m.LeadTime != "" {
				return true
			}
		}
	}
	return false
}

// HasBranding reports whether the file lists branding methods
func (f ParsedFile) HasBranding() bool {
	if f.PDF != nil && len(f.PDF.BrandingMethods) > 0 {
		return true
	}
	return f.Excel != nil && len(f.Excel.Branding) > 0
}

// HasMaterial reports whether the file lists a material
func (f ParsedFile) HasMaterial() bool {
	if f.PDF != nil {
		if _, ok := f.PDF.Specifications["Material"]; ok {
			return true
		}
	}
	if f.Excel != nil {
		for _, s := range f.Excel.Specifications {
			if s.Material != "" {
				return true
			}
		}
	}
	return false
}

// SkippedFile records an upload that could not be parsed
type SkippedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// AttributeGuess is the unstructured key/value output of screenshot analysis
type AttributeGuess map[string]interface{}
