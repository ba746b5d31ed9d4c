package engine

// Velocity is the derived sales rate for one distinct item over the lookback
// window.
type Velocity struct {
	Item           string
	TotalSold      float64
	DailyRunRate   float64
	AvgWeeklySales float64
}

// ComputeVelocity groups sales transactions by item name, sums quantities and
// derives the daily run rate over the lookback window. The window is clamped
// to at least one day; that is a deliberate floor, not a sentinel. Holding
// total sold constant, halving the window doubles the rate.
func ComputeVelocity(sales Table, windowDays int) (map[string]Velocity, error) {
	itemIdx := columnIndex(sales.Headers, ItemNameAliases)
	if itemIdx < 0 {
		return nil, &SchemaError{Column: "itemname", Aliases: ItemNameAliases}
	}
	qtyIdx := columnIndex(sales.Headers, SoldQtyAliases)
	if qtyIdx < 0 {
		return nil, &SchemaError{Column: "quantity", Aliases: SoldQtyAliases}
	}

	if windowDays < 1 {
		windowDays = 1
	}

	totals := make(map[string]float64)
	for _, rec := range sales.Records {
		item := cellAt(rec, itemIdx)
		if item == "" {
			continue
		}
		totals[item] += numberAt(rec, qtyIdx)
	}

	velocities := make(map[string]Velocity, len(totals))
	for item, total := range totals {
		daily := total / float64(windowDays)
		velocities[item] = Velocity{
			Item:           item,
			TotalSold:      total,
			DailyRunRate:   daily,
			AvgWeeklySales: daily * 7,
		}
	}

	return velocities, nil
}
