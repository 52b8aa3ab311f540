package history

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/giygas/nutricalc-api/calculator"
	"github.com/giygas/nutricalc-api/formulas"
	"github.com/xuri/excelize/v2"
)

func sampleEntries(t *testing.T) []Entry {
	t.Helper()
	s, _ := newTestStore(10)
	s.Record(outcome(calculator.AdjustedWeight, 77.5))
	s.Record(calculator.Outcome{Formula: calculator.BasalMetabolicRate, Value: formulas.Undefined(), Unit: "kcal/day"})
	s.Record(calculator.Outcome{Formula: calculator.ArmFatArea, Value: formulas.Defined(12.3), Unit: "cm²"})
	return s.Recent(0)
}

func TestWriteXLSX(t *testing.T) {
	entries := sampleEntries(t)
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, entries); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("Expected a readable workbook, got %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("Expected sheet %s, got %v", sheetName, err)
	}
	if len(rows) != len(entries)+1 {
		t.Fatalf("Expected %d rows, got %d", len(entries)+1, len(rows))
	}
	if rows[0][1] != "Formula" {
		t.Errorf("Expected header Formula, got %q", rows[0][1])
	}
	if rows[1][0] != entries[0].ID.String() {
		t.Errorf("Expected id %s, got %s", entries[0].ID, rows[1][0])
	}
	if v, err := strconv.ParseFloat(rows[1][2], 64); err != nil || v != 77.5 {
		t.Errorf("Expected numeric 77.5, got %q", rows[1][2])
	}
	if rows[2][2] != "undefined" {
		t.Errorf("Expected undefined marker, got %q", rows[2][2])
	}
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if buf.Len() == 0 {
		t.Error("Expected a workbook even without entries")
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, sampleEntries(t)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("Expected PDF header, got %q", buf.Bytes()[:min(8, buf.Len())])
	}
}
