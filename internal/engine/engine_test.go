package engine

import (
	"reflect"
	"testing"
	"time"

	"github.com/verdantiq/buyerview/backend-go/internal/domain"
)

func TestClassifyEndToEnd(t *testing.T) {
	// Two batches of A in the Vault, 70 units sold over a 70-day window:
	// daily rate 1.0, weekly 7.0, on-hand 120, median cost 25, DOH 120.
	inv := Table{
		Headers: []string{"Product", "Room", "Available", "Unit Cost"},
		Records: [][]string{
			{"A", "Vault", "100", "20"},
			{"A", "Vault", "20", "30"},
			{"Z", "Quarantine", "999", "1"},
		},
	}
	sales := Table{
		Headers: []string{"Product", "Quantity Sold"},
		Records: [][]string{{"A", "70"}},
	}

	res, err := Classify(inv, sales, Options{
		WindowDays: 70,
		Room:       "Vault",
		AsOf:       time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if res.RoomIncluded != 2 || res.RoomExcluded != 1 {
		t.Errorf("room counts = %d/%d, want 2/1", res.RoomIncluded, res.RoomExcluded)
	}
	if len(res.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(res.Items))
	}

	a := res.Items[0]
	if a.ItemName != "A" {
		t.Fatalf("item = %q", a.ItemName)
	}
	if a.OnHandUnits != 120 {
		t.Errorf("on-hand = %v, want 120", a.OnHandUnits)
	}
	if a.DailyRunRate != 1 {
		t.Errorf("daily rate = %v, want 1.0", a.DailyRunRate)
	}
	if a.AvgWeeklySales != 7 {
		t.Errorf("weekly = %v, want 7.0", a.AvgWeeklySales)
	}
	if a.UnitCost == nil || *a.UnitCost != 25 {
		t.Errorf("cost = %v, want 25", a.UnitCost)
	}
	if a.DaysOfSupply != 120 {
		t.Errorf("DOH = %v, want 120", a.DaysOfSupply)
	}
	// DOH 120 is >= 90 for the buyer chain but NOT > 120 for the slow-mover
	// chain, so the two badges land on different rungs.
	if a.Status != domain.StatusOverstock {
		t.Errorf("status = %q, want Overstock", a.Status)
	}
	if a.Action != domain.ActionWatch {
		t.Errorf("action = %q, want Watch (120 is not > 120)", a.Action)
	}
	if a.SuggestedDiscount != domain.DiscountMedium {
		t.Errorf("discount = %q, want Medium band", a.SuggestedDiscount)
	}
	if a.SuggestedPOPrice != 12.5 {
		t.Errorf("po price = %v, want 12.5 (half of 25)", a.SuggestedPOPrice)
	}
	if want := roundTo(120.0/180*100, 1); a.SlowMoverScore != want {
		t.Errorf("score = %v, want %v", a.SlowMoverScore, want)
	}
}

func TestClassifyLeftJoinFillsZeroRate(t *testing.T) {
	inv := Table{
		Headers: []string{"Product", "Available"},
		Records: [][]string{{"NeverSold", "50"}},
	}
	sales := Table{
		Headers: []string{"Product", "Quantity Sold"},
		Records: [][]string{{"SomethingElse", "10"}},
	}

	res, err := Classify(inv, sales, Options{WindowDays: 30})
	if err != nil {
		t.Fatal(err)
	}

	item := res.Items[0]
	if item.DailyRunRate != 0 {
		t.Errorf("rate = %v, want 0 for item absent from sales", item.DailyRunRate)
	}
	if item.DaysOfSupply != UnknownDaysOfSupply {
		t.Errorf("DOH = %v, want sentinel %v", item.DaysOfSupply, UnknownDaysOfSupply)
	}
	if item.Action != domain.ActionInvestigate {
		t.Errorf("action = %q, want Investigate", item.Action)
	}
	if item.SlowMoverScore != 100 {
		t.Errorf("score = %v, want 100", item.SlowMoverScore)
	}
}

func TestClassifyDaysToExpire(t *testing.T) {
	inv := Table{
		Headers: []string{"Product", "Available", "Expiration Date"},
		Records: [][]string{{"A", "10", "2026-03-01"}},
	}
	sales := Table{
		Headers: []string{"Product", "Quantity Sold"},
		Records: [][]string{{"A", "30"}},
	}

	res, err := Classify(inv, sales, Options{
		WindowDays: 30,
		AsOf:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}

	a := res.Items[0]
	if a.DaysToExpire == nil || *a.DaysToExpire != 59 {
		t.Fatalf("days to expire = %v, want 59", a.DaysToExpire)
	}
	if a.Status != domain.StatusExpiring {
		t.Errorf("status = %q, want Expiring at 59 days", a.Status)
	}
	if !res.HasExpiration {
		t.Error("HasExpiration should be true")
	}
}

func TestClassifyWithoutOptionalColumns(t *testing.T) {
	// Only the two required columns: no cost, no expiration, no room filter.
	inv := Table{
		Headers: []string{"Product", "Available"},
		Records: [][]string{{"A", "40"}},
	}
	sales := Table{
		Headers: []string{"Product", "Quantity Sold"},
		Records: [][]string{{"A", "40"}},
	}

	res, err := Classify(inv, sales, Options{WindowDays: 40})
	if err != nil {
		t.Fatalf("optional columns must never be required: %v", err)
	}

	a := res.Items[0]
	if a.UnitCost != nil || a.DaysToExpire != nil {
		t.Error("absent optional fields must stay nil")
	}
	if a.SuggestedPOPrice != 0 {
		t.Errorf("po price = %v, want 0 without cost", a.SuggestedPOPrice)
	}
	if a.Status != domain.StatusHealthy {
		t.Errorf("status = %q, want Healthy (DOH 40)", a.Status)
	}
	if res.HasCost || res.HasExpiration {
		t.Error("HasCost/HasExpiration should report absence")
	}
}

func TestClassifyEmptySalesTable(t *testing.T) {
	inv := Table{
		Headers: []string{"Product", "Available"},
		Records: [][]string{{"A", "10"}},
	}

	res, err := Classify(inv, Table{}, Options{WindowDays: 30})
	if err != nil {
		t.Fatalf("empty sales table should mean zero velocity, got %v", err)
	}
	if res.Items[0].DaysOfSupply != UnknownDaysOfSupply {
		t.Error("zero velocity should yield the DOH sentinel")
	}
}

func TestClassifyDeterministic(t *testing.T) {
	inv := Table{
		Headers: []string{"Product", "Available", "Cost", "Expiration Date"},
		Records: [][]string{
			{"C", "10", "5", "2026-08-01"},
			{"A", "100", "20", "2026-03-01"},
			{"B", "0", "", ""},
			{"A", "20", "30", "2026-06-01"},
		},
	}
	sales := Table{
		Headers: []string{"Product", "Qty Sold"},
		Records: [][]string{{"A", "70"}, {"C", "3"}},
	}
	opts := Options{WindowDays: 70, AsOf: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}

	first, err := Classify(inv, sales, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Classify(inv, sales, opts)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs must produce identical results")
	}

	for i := 1; i < len(first.Items); i++ {
		if first.Items[i-1].ItemName > first.Items[i].ItemName {
			t.Fatal("items must come back sorted by key")
		}
	}
}

func TestClassifyMissingRoomColumnFailsLoudly(t *testing.T) {
	inv := Table{
		Headers: []string{"Product", "Available"},
		Records: [][]string{{"A", "10"}},
	}

	_, err := Classify(inv, Table{}, Options{WindowDays: 30, Room: "Vault"})
	if _, ok := err.(*SchemaError); !ok {
		t.Fatalf("expected *SchemaError when room filter requested, got %v", err)
	}
}
