package document

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
)

// csvSheetName is the sheet name given to CSV uploads
const csvSheetName = "Sheet1"

// ParseExcel reads an xlsx workbook or a CSV file. The first row of each
// sheet is the header; every following non-blank row becomes a map keyed
// by header.
func (p *Parser) ParseExcel(ctx context.Context, data []byte) (*domain.Workbook, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty spreadsheet", domain.ErrParseFailure)
	}

	var (
		wb  *domain.Workbook
		err error
	)
	switch {
	case bytes.HasPrefix(data, zipMagic):
		wb, err = p.parseXLSX(ctx, data)
	case bytes.HasPrefix(data, oleMagic):
		return nil, fmt.Errorf("%w: legacy .xls workbooks are not supported, save as .xlsx or .csv", domain.ErrParseFailure)
	default:
		wb, err = parseCSV(data)
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(wb.Sheets))
	for _, s := range wb.Sheets {
		names = append(names, s.Name)
	}
	log.Printf("[EXCEL] Parsed %d sheets: %s", len(wb.Sheets), strings.Join(names, ", "))

	return wb, nil
}

func (p *Parser) parseXLSX(ctx context.Context, data []byte) (*domain.Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
	}
	defer f.Close()

	wb := &domain.Workbook{Sheets: []domain.Sheet{}}
	for _, name := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", domain.ErrParseFailure, name, err)
		}
		wb.Sheets = append(wb.Sheets, buildSheet(name, rows))

		if p.debug {
			log.Printf("[EXCEL] Sheet %q: %d rows", name, len(rows))
		}
	}
	return wb, nil
}

func parseCSV(data []byte) (*domain.Workbook, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
		}
		rows = append(rows, record)
	}

	return &domain.Workbook{Sheets: []domain.Sheet{buildSheet(csvSheetName, rows)}}, nil
}

// buildSheet turns raw rows into header-keyed maps. Blank headers become
// "__EMPTY", "__EMPTY_1", ... and repeated headers get a numeric suffix.
// Missing cells default to "".
func buildSheet(name string, rows [][]string) domain.Sheet {
	sheet := domain.Sheet{Name: name, Rows: []map[string]string{}}
	if len(rows) == 0 {
		return sheet
	}

	for _, row := range rows {
		if len(row) > sheet.Columns {
			sheet.Columns = len(row)
		}
	}

	headers := headerNames(rows[0], sheet.Columns)
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		m := make(map[string]string, len(headers))
		for i, h := range headers {
			value := ""
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			m[h] = value
		}
		sheet.Rows = append(sheet.Rows, m)
	}

	return sheet
}

func headerNames(header []string, columns int) []string {
	names := make([]string, columns)
	seen := make(map[string]int, columns)
	for i := 0; i < columns; i++ {
		base := ""
		if i < len(header) {
			base = strings.TrimSpace(header[i])
		}
		if base == "" {
			base = "__EMPTY"
		}

		name := base
		if n := seen[base]; n > 0 {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		seen[base]++
		names[i] = name
	}
	return names
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
