package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

// buildPDF writes a single-page PDF with one text line per argument
func buildPDF(t *testing.T, lines ...string) []byte {
	t.Helper()

	var content strings.Builder
	content.WriteString("BT /F1 12 Tf 72 720 Td 14 TL\n")
	for _, l := range lines {
		fmt.Fprintf(&content, "(%s) Tj T*\n", l)
	}
	content.WriteString("ET")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

func buildWorkbook(t *testing.T, sheets map[string][][]interface{}, order ...string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			row := row
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParsePDF(t *testing.T) {
	data := buildPDF(t, "Acme Steel Bottle", "Material: 304 Stainless Steel", "MOQ: 100 pcs")

	doc, err := NewParser(0).ParsePDF(context.Background(), data)

	require.NoError(t, err)
	assert.Equal(t, 1, doc.NumPages)
	require.Len(t, doc.Pages, 1)
	assert.Contains(t, doc.Text, "Material: 304 Stainless Steel")
	assert.Contains(t, doc.Text, "MOQ: 100 pcs")
}

func TestParsePDF_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a pdf", []byte("hello world, this is plain text")},
		{"truncated", []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewParser(0).ParsePDF(context.Background(), tt.data)
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, domain.ErrParseFailure)
		})
	}
}

func TestParseExcel_Workbook(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Products": {
			{"Product Name", "SKU", "Price", "Price"},
			{"Steel Bottle", "SB-100", 450, 430},
			{},
			{"Travel Mug", "TM-200"},
		},
		"MOQ": {
			{"Item", "MOQ", "", "Lead Time"},
			{"Steel Bottle", "100", "pcs", "15 days"},
		},
	}, "Products", "MOQ")

	wb, err := NewParser(0).ParseExcel(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 2)

	products := wb.Sheets[0]
	assert.Equal(t, "Products", products.Name)
	assert.Equal(t, 4, products.Columns)
	require.Len(t, products.Rows, 2, "blank rows are dropped")
	assert.Equal(t, map[string]string{
		"Product Name": "Steel Bottle",
		"SKU":          "SB-100",
		"Price":        "450",
		"Price_1":      "430",
	}, products.Rows[0])
	assert.Equal(t, "", products.Rows[1]["Price"], "missing cells default to empty")

	moq := wb.Sheets[1]
	assert.Equal(t, "pcs", moq.Rows[0]["__EMPTY"])
	assert.Equal(t, "15 days", moq.Rows[0]["Lead Time"])
}

func TestParseExcel_CSV(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Item,Price,Currency\n\"Steel Bottle, 1L\",450,INR\n,,\nMug,120\n")...)

	wb, err := NewParser(0).ParseExcel(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)

	sheet := wb.Sheets[0]
	assert.Equal(t, csvSheetName, sheet.Name)
	assert.Equal(t, 3, sheet.Columns)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Steel Bottle, 1L", sheet.Rows[0]["Item"])
	assert.Equal(t, "INR", sheet.Rows[0]["Currency"])
	assert.Equal(t, "", sheet.Rows[1]["Currency"])
}

func TestParseExcel_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"legacy xls", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}},
		{"corrupt zip", []byte("PK\x03\x04garbage")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb, err := NewParser(0).ParseExcel(context.Background(), tt.data)
			assert.Nil(t, wb)
			assert.ErrorIs(t, err, domain.ErrParseFailure)
		})
	}
}

func TestHeaderNames(t *testing.T) {
	got := headerNames([]string{"Item", "", "Item", " "}, 5)
	assert.Equal(t, []string{"Item", "__EMPTY", "Item_1", "__EMPTY_1", "__EMPTY_2"}, got)
}
