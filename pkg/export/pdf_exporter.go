package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const landscapeWidth = 277.0

// PDFExporter renders datasets into a landscape print sheet.
type PDFExporter struct {
	fontPath   string
	fontFamily string
}

// NewPDFExporter constructs a PDF exporter. When fontPath points at a TTF
// file it is registered as a UTF-8 font so CJK cells render; otherwise the
// core Arial font is used.
func NewPDFExporter(fontPath, fontFamily string) *PDFExporter {
	if fontFamily == "" {
		fontFamily = "Custom"
	}
	return &PDFExporter{fontPath: fontPath, fontFamily: fontFamily}
}

// Render creates a PDF document with a title, an optional subtitle line and the table body.
func (e *PDFExporter) Render(data Dataset, title, subtitle string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)

	family := "Arial"
	if e.fontPath != "" {
		pdf.AddUTF8Font(e.fontFamily, "", e.fontPath)
		pdf.AddUTF8Font(e.fontFamily, "B", e.fontPath)
		family = e.fontFamily
	}
	pdf.AddPage()

	if title != "" {
		pdf.SetFont(family, "B", 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	}
	if subtitle != "" {
		pdf.SetFont(family, "", 9)
		pdf.CellFormat(0, 6, subtitle, "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)

	pdf.SetFont(family, "B", 9)
	colWidth := landscapeWidth / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 8)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
