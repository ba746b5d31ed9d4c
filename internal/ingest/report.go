package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/verdantiq/buyerview/backend-go/internal/engine"
)

// ReadReportFile reads an uploaded report by extension. headerRow only
// matters for XLSX; CSV exports never carry banner rows.
func ReadReportFile(path string, headerRow int) (engine.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSVFile(path)
	case ".xlsx":
		return ReadXLSXFile(path, headerRow)
	default:
		return engine.Table{}, fmt.Errorf("unsupported report format %q, expected .csv or .xlsx", filepath.Ext(path))
	}
}
