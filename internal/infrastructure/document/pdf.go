package document

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

// Parser extracts raw content from vendor PDFs and spreadsheets
type Parser struct {
	maxPages int
	debug    bool
}

// NewParser creates a new document parser. maxPages bounds how many PDF
// pages are read; zero reads every page.
func NewParser(maxPages int) *Parser {
	return &Parser{maxPages: maxPages}
}

// SetDebug enables or disables verbose logging
func (p *Parser) SetDebug(debug bool) {
	p.debug = debug
}

// ParsePDF extracts the plain text of every page
func (p *Parser) ParsePDF(ctx context.Context, data []byte) (doc *domain.PDFDocument, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty PDF", domain.ErrParseFailure)
	}

	// the pdf reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %v", domain.ErrParseFailure, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
	}

	numPages := reader.NumPage()
	limit := numPages
	if p.maxPages > 0 && limit > p.maxPages {
		limit = p.maxPages
	}

	pages := make([]string, 0, limit)
	for i := 1; i <= limit; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("[PDF] Failed to extract text from page %d: %v", i, err)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}

	doc = &domain.PDFDocument{
		Pages:    pages,
		Text:     strings.Join(pages, "\n"),
		NumPages: numPages,
	}

	log.Printf("[PDF] Parsed %d pages, %d characters", numPages, len(doc.Text))
	return doc, nil
}
