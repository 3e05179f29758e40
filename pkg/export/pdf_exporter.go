package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth  = 277.0 // A4 landscape minus margins
	pdfLineHeight = 5.0
)

// PDFExporter renders datasets into a landscape tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body. Long cells wrap
// inside their column and every row grows to its tallest cell.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if err := data.validate("pdf"); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	colWidth := pdfPageWidth / float64(len(data.Headers))

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	headers := make([]string, len(data.Headers))
	for i, h := range data.Headers {
		headers[i] = tr(h)
	}
	writePDFRow(pdf, headers, colWidth, true)

	pdf.SetFont("Arial", "", 8)
	for _, row := range data.Rows {
		values := make([]string, len(data.Headers))
		for i := range data.Headers {
			values[i] = tr(Text(cell(row, i)))
		}
		writePDFRow(pdf, values, colWidth, false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writePDFRow(pdf *gofpdf.Fpdf, values []string, colWidth float64, fill bool) {
	lines := 1
	for _, v := range values {
		if n := len(pdf.SplitLines([]byte(v), colWidth-2)); n > lines {
			lines = n
		}
	}
	height := float64(lines) * pdfLineHeight

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+height > pageHeight-bottom {
		pdf.AddPage()
	}

	style := "D"
	if fill {
		style = "FD"
	}
	x, y := pdf.GetXY()
	for i, v := range values {
		left := x + float64(i)*colWidth
		pdf.Rect(left, y, colWidth, height, style)
		pdf.SetXY(left+1, y)
		pdf.MultiCell(colWidth-2, pdfLineHeight, v, "", "L", false)
	}
	pdf.SetXY(x, y+height)
}
