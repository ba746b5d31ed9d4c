// Package export writes classified buyer views back out as CSV, the shape
// buyers paste into purchase order sheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/verdantiq/buyerview/backend-go/internal/domain"
)

var buyerViewHeader = []string{
	"Item Name", "Category", "Strain", "Package Size",
	"On Hand Units", "Unit Cost", "Earliest Expiration", "Days To Expire", "Batches",
	"Total Sold", "Daily Run Rate", "Avg Weekly Sales", "Days Of Supply",
	"Status", "Action", "Slow Mover Score", "Suggested Discount", "Suggested PO Price",
}

// WriteBuyerView writes items as CSV. Optional fields stay blank rather than
// printing zeros the source report never carried.
func WriteBuyerView(w io.Writer, items []domain.ItemSummary) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(buyerViewHeader); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	for _, item := range items {
		record := []string{
			item.ItemName,
			item.Category,
			item.Strain,
			item.PackageSize,
			formatFloat(item.OnHandUnits),
			formatOptFloat(item.UnitCost),
			formatOptDate(item.EarliestExpiration),
			formatOptFloat(item.DaysToExpire),
			strconv.Itoa(item.Batches),
			formatFloat(item.TotalSold),
			formatFloat(item.DailyRunRate),
			formatFloat(item.AvgWeeklySales),
			formatFloat(item.DaysOfSupply),
			string(item.Status),
			string(item.Action),
			formatFloat(item.SlowMoverScore),
			string(item.SuggestedDiscount),
			formatFloat(item.SuggestedPOPrice),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write export row for %q: %w", item.ItemName, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteBuyerViewFile writes items to a timestamped CSV under dir and returns
// the full path.
func WriteBuyerViewFile(dir string, items []domain.ItemSummary, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("buyer_view_%s.csv", now.Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteBuyerView(f, items); err != nil {
		return "", err
	}

	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatOptDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
