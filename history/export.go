package history

import (
	"fmt"
	"io"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/xuri/excelize/v2"
)

const (
	sheetName       = "History"
	timestampLayout = "2006-01-02 15:04:05"
)

var exportHeader = []any{"ID", "Formula", "Value", "Unit", "Classification", "Timestamp (UTC)"}

// WriteXLSX writes entries as a single sheet workbook. Undefined values are
// written as the text "undefined".
func WriteXLSX(w io.Writer, entries []Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		var value any = e.Value.String()
		if v, ok := e.Value.Value(); ok {
			value = v
		}
		row := []any{
			e.ID.String(),
			string(e.Formula),
			value,
			e.Unit,
			e.Classification,
			e.Timestamp.UTC().Format(timestampLayout),
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "B", "F", 22); err != nil {
		return err
	}
	return f.Write(w)
}

// WritePDF writes entries as a one table A4 report.
func WritePDF(w io.Writer, entries []Entry) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Calculation history")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s UTC", time.Now().UTC().Format(timestampLayout)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Entries: %d", len(entries)))
	pdf.Ln(10)

	widths := []float64{55, 30, 25, 40, 40}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range []string{"Formula", "Value", "Unit", "Classification", "Timestamp (UTC)"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, e := range entries {
		cells := []string{
			string(e.Formula),
			e.Value.String(),
			e.Unit,
			e.Classification,
			e.Timestamp.UTC().Format(timestampLayout),
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 6, tr(c), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}
