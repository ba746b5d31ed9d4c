// Package ingest turns uploaded report files into engine tables. It knows
// nothing about column meanings; schema resolution is the engine's job.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/verdantiq/buyerview/backend-go/internal/engine"
)

// ReadCSV parses a CSV stream into a table. The first row is the header.
func ReadCSV(r io.Reader) (engine.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // ragged exports happen

	header, err := reader.Read()
	if err != nil {
		return engine.Table{}, fmt.Errorf("failed to read CSV header: %w", err)
	}

	t := engine.Table{Headers: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return engine.Table{}, fmt.Errorf("failed to read CSV record: %w", err)
		}
		t.Records = append(t.Records, record)
	}

	return t, nil
}

// ReadCSVFile reads a CSV file from disk into a table.
func ReadCSVFile(path string) (engine.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return engine.Table{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(f)
}
