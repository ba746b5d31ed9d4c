package engine

import (
	"math"

	"github.com/verdantiq/buyerview/backend-go/internal/domain"
)

// slowMoverScoreCeilingDays is where the score ramp saturates at 100.
const slowMoverScoreCeilingDays = 180.0

// SlowMoverScore maps days-of-supply onto a 0-100 urgency score, one decimal.
// Zero weekly sales is maximal urgency regardless of DOH.
func SlowMoverScore(daysOfSupply, weeklySales float64) float64 {
	if weeklySales <= 0 {
		return 100
	}
	score := math.Min(daysOfSupply/slowMoverScoreCeilingDays, 1) * 100
	return roundTo(score, 1)
}

// SuggestDiscount recommends a markdown band from days-of-supply alone. The
// band edges match the slow-mover chain's strict thresholds; keep the two in
// step if either changes.
func SuggestDiscount(daysOfSupply float64) domain.DiscountBand {
	switch {
	case daysOfSupply > 180:
		return domain.DiscountUrgent
	case daysOfSupply > 120:
		return domain.DiscountHigh
	case daysOfSupply > 90:
		return domain.DiscountMedium
	case daysOfSupply > 60:
		return domain.DiscountLow
	default:
		return domain.DiscountNone
	}
}

// SuggestPOPrice derives a purchase-order unit price from a raw cost cell.
// Unparseable or missing cost yields 0; otherwise half of cost. The halving
// is a fixed business rule.
func SuggestPOPrice(rawCost string) float64 {
	cost, ok := parseNumber(rawCost)
	if !ok {
		return 0
	}
	return cost / 2
}

// SuggestPOPriceFromCost is SuggestPOPrice for an already-aggregated cost.
func SuggestPOPriceFromCost(cost *float64) float64 {
	if cost == nil {
		return 0
	}
	return *cost / 2
}
