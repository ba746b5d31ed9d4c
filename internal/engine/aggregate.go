package engine

import (
	"sort"
	"strings"
	"time"
)

// Grouping selects the key batches are rolled up by.
type Grouping int

const (
	// GroupByItem rolls batch rows up to one row per item name.
	GroupByItem Grouping = iota
	// GroupByCategoryStrainSize rolls up by category + strain + package size,
	// the granularity buyers use when comparing substitutable products.
	GroupByCategoryStrainSize
)

// ItemGroup is one aggregated row: all batches sharing a group key, with
// metric-specific reducers applied. Quantity sums, cost takes the median so a
// single oddly priced lot cannot skew it, expiration takes the minimum because
// the earliest-expiring lot sets the urgency.
type ItemGroup struct {
	Key         string
	ItemName    string
	Category    string
	Strain      string
	PackageSize string

	OnHandUnits        float64
	UnitCost           *float64   // nil when the cost column is absent or no batch has a usable cost
	EarliestExpiration *time.Time // nil when no batch carries a parseable date
	Batches            int

	// itemNames tracks the distinct item names behind an attribute-level
	// group so velocity can still be joined per item.
	itemNames []string
}

type groupAccum struct {
	group     ItemGroup
	costs     []float64
	itemsSeen map[string]bool
}

// AggregateInventory rolls batch-level rows up to the requested grouping.
// An entirely absent cost column propagates as absence: every UnitCost stays
// nil rather than being coerced to zero.
func AggregateInventory(t Table, g Grouping) ([]ItemGroup, error) {
	schema, err := resolveInventorySchema(t.Headers)
	if err != nil {
		return nil, err
	}

	accums := make(map[string]*groupAccum)
	var order []string

	for _, rec := range t.Records {
		item := cellAt(rec, schema.item)
		if item == "" {
			continue
		}
		category := cellAt(rec, schema.category)
		strain := cellAt(rec, schema.strain)
		size := cellAt(rec, schema.size)

		key := item
		if g == GroupByCategoryStrainSize {
			key = strings.Join([]string{category, strain, size}, " | ")
		}

		acc, ok := accums[key]
		if !ok {
			acc = &groupAccum{
				group: ItemGroup{
					Key:         key,
					ItemName:    item,
					Category:    category,
					Strain:      strain,
					PackageSize: size,
				},
				itemsSeen: make(map[string]bool),
			}
			accums[key] = acc
			order = append(order, key)
		}

		acc.group.OnHandUnits += numberAt(rec, schema.onHand)
		acc.group.Batches++
		if !acc.itemsSeen[item] {
			acc.itemsSeen[item] = true
			acc.group.itemNames = append(acc.group.itemNames, item)
		}

		if schema.cost >= 0 {
			if cost, ok := parseNumber(cellAt(rec, schema.cost)); ok {
				acc.costs = append(acc.costs, cost)
			}
		}
		if schema.expiration >= 0 {
			if exp, ok := parseDate(cellAt(rec, schema.expiration)); ok {
				cur := acc.group.EarliestExpiration
				if cur == nil || exp.Before(*cur) {
					acc.group.EarliestExpiration = &exp
				}
			}
		}
	}

	sort.Strings(order)
	groups := make([]ItemGroup, 0, len(order))
	for _, key := range order {
		acc := accums[key]
		if len(acc.costs) > 0 {
			m := median(acc.costs)
			acc.group.UnitCost = &m
		}
		groups = append(groups, acc.group)
	}

	return groups, nil
}

// median returns the middle value of vs, averaging the two middle values for
// even counts. vs is not modified.
func median(vs []float64) float64 {
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
