package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/verdantiq/buyerview/backend-go/internal/engine"
)

// ReadXLSX reads the first sheet of an XLSX report into a table. headerRow is
// the zero-based row the column headers live on; Dutchie sales exports carry
// a few banner rows above the real header, so callers pass a nonzero offset
// for those.
func ReadXLSX(r io.Reader, headerRow int) (engine.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return engine.Table{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return engine.Table{}, fmt.Errorf("xlsx has no sheets")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return engine.Table{}, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	defer rows.Close()

	var t engine.Table
	idx := 0
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return engine.Table{}, fmt.Errorf("failed to read xlsx row: %w", err)
		}
		switch {
		case idx < headerRow:
			// banner rows above the header
		case idx == headerRow:
			t.Headers = record
		default:
			t.Records = append(t.Records, record)
		}
		idx++
	}
	if err := rows.Error(); err != nil {
		return engine.Table{}, fmt.Errorf("error iterating xlsx rows: %w", err)
	}

	if t.Headers == nil {
		return engine.Table{}, fmt.Errorf("xlsx sheet %s has no header row at offset %d", sheets[0], headerRow)
	}

	return t, nil
}

// ReadXLSXFile reads an XLSX file from disk into a table.
func ReadXLSXFile(path string, headerRow int) (engine.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return engine.Table{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadXLSX(f, headerRow)
}

// ConvertXLSXToCSV converts the first sheet of an XLSX file to a CSV file.
// Used by the Drive pull path, which normalizes everything to CSV on disk.
func ConvertXLSXToCSV(xlsxPath, csvPath string) error {
	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		return fmt.Errorf("failed to open xlsx file %s: %w", xlsxPath, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("xlsx file %s has no sheets", xlsxPath)
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	defer rows.Close()

	out, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create csv file %s: %w", csvPath, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()

	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("failed to read row from %s: %w", xlsxPath, err)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row to %s: %w", csvPath, err)
		}
	}

	if err := rows.Error(); err != nil {
		return fmt.Errorf("error iterating rows in %s: %w", xlsxPath, err)
	}

	return nil
}
