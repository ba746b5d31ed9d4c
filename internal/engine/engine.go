// Package engine implements the inventory health and aggregation pipeline:
// per-batch inventory rows plus raw sales transactions in, classified and
// scored per-item records out. The pipeline is a pure function of its inputs
// and options; it is re-run from scratch on every load and never mutates a
// Table it is given.
package engine

import (
	"time"

	"github.com/verdantiq/buyerview/backend-go/internal/domain"
)

// DefaultWindowDays matches the 30-day sales exports buyers upload.
const DefaultWindowDays = 30

// Options configures one classification run.
type Options struct {
	// WindowDays is the sales lookback window; clamped to at least 1.
	WindowDays int
	// Room, when non-empty, restricts inventory to that room partition
	// before aggregation.
	Room string
	// Grouping selects per-item or per category/strain/size rollup.
	Grouping Grouping
	// AsOf anchors days-to-expire. Zero means the time of the call; pass an
	// explicit date for reproducible output.
	AsOf time.Time
}

// Result is one full classification run.
type Result struct {
	Items         []domain.ItemSummary
	WindowDays    int
	RoomIncluded  int
	RoomExcluded  int
	HasCost       bool
	HasExpiration bool
}

// Classify runs the whole pipeline: room filter, velocity, aggregation, the
// inventory-velocity left join, then per-item classification and scoring.
// Output order is deterministic (sorted by group key), so identical inputs
// produce identical results.
func Classify(inventory, sales Table, opts Options) (*Result, error) {
	if opts.WindowDays < 1 {
		opts.WindowDays = DefaultWindowDays
	}
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	asOf = time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)

	res := &Result{WindowDays: opts.WindowDays}

	if opts.Room != "" {
		filtered, included, excluded, err := FilterRoom(inventory, opts.Room)
		if err != nil {
			return nil, err
		}
		inventory = filtered
		res.RoomIncluded = included
		res.RoomExcluded = excluded
	}

	// An empty sales table means zero velocity everywhere, not an error.
	velocities := map[string]Velocity{}
	if len(sales.Headers) > 0 {
		var err error
		velocities, err = ComputeVelocity(sales, opts.WindowDays)
		if err != nil {
			return nil, err
		}
	}

	groups, err := AggregateInventory(inventory, opts.Grouping)
	if err != nil {
		return nil, err
	}

	schema, _ := resolveInventorySchema(inventory.Headers)
	res.HasCost = schema.cost >= 0
	res.HasExpiration = schema.expiration >= 0

	res.Items = make([]domain.ItemSummary, 0, len(groups))
	for _, g := range groups {
		// Left join against velocity: items that never sold get rate 0,
		// they are slow stock, not missing data.
		var totalSold, weekly float64
		dailyRate := 0.0
		for _, name := range g.itemNames {
			if v, ok := velocities[name]; ok {
				totalSold += v.TotalSold
				dailyRate += v.DailyRunRate
				weekly += v.AvgWeeklySales
			}
		}

		doh := DaysOfSupply(g.OnHandUnits, dailyRate)

		var daysToExpire *float64
		if g.EarliestExpiration != nil {
			d := g.EarliestExpiration.Sub(asOf).Hours() / 24
			daysToExpire = &d
		}

		item := domain.ItemSummary{
			ItemName:           g.Key,
			Category:           g.Category,
			Strain:             g.Strain,
			PackageSize:        g.PackageSize,
			OnHandUnits:        g.OnHandUnits,
			UnitCost:           g.UnitCost,
			EarliestExpiration: g.EarliestExpiration,
			DaysToExpire:       daysToExpire,
			Batches:            g.Batches,
			TotalSold:          totalSold,
			DailyRunRate:       dailyRate,
			AvgWeeklySales:     weekly,
			DaysOfSupply:       doh,
			Status: BuyerStatusFor(BuyerInputs{
				OnHandUnits:  g.OnHandUnits,
				DaysOfSupply: doh,
				DaysToExpire: daysToExpire,
			}),
			Action:            SlowMoverActionFor(doh, weekly, g.OnHandUnits),
			SlowMoverScore:    SlowMoverScore(doh, weekly),
			SuggestedDiscount: SuggestDiscount(doh),
			SuggestedPOPrice:  SuggestPOPriceFromCost(g.UnitCost),
		}
		res.Items = append(res.Items, item)
	}

	return res, nil
}
