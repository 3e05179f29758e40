package export

import (
	"bytes"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet that carries exported rows.
const SheetName = "Responses"

// TruncatedMarker ends any text cell cut down to the spreadsheet cell limit. CSV exports are
// never truncated.
const TruncatedMarker = " [truncated: full text in CSV export]"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes headers in bold on row 1 followed by one row per record. Text longer than the
// spreadsheet cell limit is cut and ends with TruncatedMarker.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("xlsx"); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, header := range data.Headers {
		ref, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SheetName, ref, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		if err := f.SetCellStyle(SheetName, ref, ref, headerStyle); err != nil {
			return nil, fmt.Errorf("style header: %w", err)
		}
	}

	for r, row := range data.Rows {
		values := make([]interface{}, len(data.Headers))
		for i := range data.Headers {
			values[i] = xlsxValue(cell(row, i))
		}
		ref, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, ref, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(data.Headers))
	if err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SheetName, "A", lastCol, 22); err != nil {
		return nil, fmt.Errorf("size columns: %w", err)
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// Numbers, booleans and timestamps are written natively; everything else as text.
func xlsxValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return ""
	case float64, int, int64, bool:
		return v
	case time.Time:
		return val.UTC()
	default:
		return fitCell(Text(v))
	}
}

// fitCell keeps text within excelize.TotalCellChars, marking the cut instead of letting the
// writer drop the tail silently.
func fitCell(text string) string {
	if utf8.RuneCountInString(text) <= excelize.TotalCellChars {
		return text
	}
	keep := excelize.TotalCellChars - utf8.RuneCountInString(TruncatedMarker)
	return string([]rune(text)[:keep]) + TruncatedMarker
}
