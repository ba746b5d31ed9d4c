package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/verdantiq/buyerview/backend-go/internal/domain"
)

func TestWriteBuyerView(t *testing.T) {
	cost := 12.5
	exp := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	days := 45.0

	items := []domain.ItemSummary{
		{
			ItemName:           "Blue Dream 3.5g",
			Category:           "Flower",
			OnHandUnits:        40,
			UnitCost:           &cost,
			EarliestExpiration: &exp,
			DaysToExpire:       &days,
			Batches:            2,
			TotalSold:          56,
			DailyRunRate:       2,
			AvgWeeklySales:     14,
			DaysOfSupply:       20,
			Status:             domain.StatusReorder,
			Action:             domain.ActionHealthy,
			SlowMoverScore:     11.1,
			SuggestedDiscount:  domain.DiscountNone,
			SuggestedPOPrice:   6.25,
		},
		{
			ItemName:     "Mystery Pre-Roll",
			OnHandUnits:  5,
			DaysOfSupply: 999,
			Status:       domain.StatusHealthy,
			Action:       domain.ActionInvestigate,
		},
	}

	var buf bytes.Buffer
	if err := WriteBuyerView(&buf, items); err != nil {
		t.Fatalf("WriteBuyerView: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}

	first := records[1]
	if first[0] != "Blue Dream 3.5g" {
		t.Errorf("item name = %q", first[0])
	}
	if first[5] != "12.5" {
		t.Errorf("unit cost = %q, want 12.5", first[5])
	}
	if first[6] != "2026-03-01" {
		t.Errorf("expiration = %q", first[6])
	}
	if first[13] != string(domain.StatusReorder) {
		t.Errorf("status = %q", first[13])
	}

	second := records[2]
	if second[5] != "" || second[6] != "" || second[7] != "" {
		t.Errorf("optional fields should be blank, got %q %q %q", second[5], second[6], second[7])
	}
	if second[12] != "999" {
		t.Errorf("days of supply = %q, want 999", second[12])
	}
}

func TestWriteBuyerViewFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)

	path, err := WriteBuyerViewFile(dir, nil, now)
	if err != nil {
		t.Fatalf("WriteBuyerViewFile: %v", err)
	}

	want := "buyer_view_20260214_093000.csv"
	if got := path[len(path)-len(want):]; got != want {
		t.Errorf("path = %q, want suffix %q", path, want)
	}
}
