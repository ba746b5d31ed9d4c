package engine

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Table is an in-memory tabular snapshot of one uploaded report: an ordered
// header row plus string records, exactly as parsed from CSV/XLSX. The engine
// never mutates a Table it is given.
type Table struct {
	Headers []string
	Records [][]string
}

// cellAt returns the trimmed cell value, or "" when the record is short.
func cellAt(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// parseNumber coerces a raw cell to a float, tolerating thousands separators
// and a leading currency sign. The second return is false when the cell is
// empty or not numeric; callers decide whether that means zero or skip.
func parseNumber(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	v = strings.ReplaceAll(v, ",", "")
	v = strings.TrimPrefix(v, "$")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// numberAt reads a numeric cell, degrading unparseable values to 0.
func numberAt(record []string, idx int) float64 {
	f, _ := parseNumber(cellAt(record, idx))
	return f
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"Jan 2, 2006",
	time.RFC3339,
}

// parseDate tries the date layouts seen across POS exports. The result is
// truncated to a calendar date.
func parseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
