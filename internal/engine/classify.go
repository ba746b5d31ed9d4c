package engine

import "github.com/verdantiq/buyerview/backend-go/internal/domain"

// UnknownDaysOfSupply is the days-of-supply sentinel meaning "velocity
// undefined": the item sold nothing in the window, so no stockout date can be
// projected. Comparisons against it are explicit; it is never produced by
// ordinary division.
const UnknownDaysOfSupply = 999.0

// Buyer-status thresholds. Boundary semantics differ deliberately from the
// slow-mover family: DOH 21 is still Reorder, DOH 90 is already Overstock,
// and 60 days to expire is NOT yet expiring.
const (
	ReorderDOHThreshold   = 21.0
	OverstockDOHThreshold = 90.0
	ExpiringSoonDays      = 60.0
)

// DaysOfSupply projects days until stockout at the current run rate. A rate
// of zero or less yields the UnknownDaysOfSupply sentinel so zero-velocity
// items sort and classify as overstocked rather than breaking comparisons.
func DaysOfSupply(onHandUnits, dailyRunRate float64) float64 {
	if dailyRunRate <= 0 {
		return UnknownDaysOfSupply
	}
	return onHandUnits / dailyRunRate
}

// BuyerInputs is everything the buyer-status chain looks at. DaysToExpire is
// nil when the inventory file carries no expiration data, which disables the
// Expiring rule entirely.
type BuyerInputs struct {
	OnHandUnits  float64
	DaysOfSupply float64
	DaysToExpire *float64
}

type buyerRule struct {
	badge domain.BuyerStatus
	match func(BuyerInputs) bool
}

// Rule order encodes override priority: Expiring beats everything below it,
// including Overstock, so a pallet of soon-to-expire stock is flagged for
// urgency rather than excess.
var buyerRules = []buyerRule{
	{domain.StatusNoStock, func(in BuyerInputs) bool {
		return in.OnHandUnits <= 0
	}},
	{domain.StatusExpiring, func(in BuyerInputs) bool {
		return in.DaysToExpire != nil && *in.DaysToExpire < ExpiringSoonDays
	}},
	{domain.StatusReorder, func(in BuyerInputs) bool {
		return in.DaysOfSupply > 0 && in.DaysOfSupply <= ReorderDOHThreshold
	}},
	{domain.StatusOverstock, func(in BuyerInputs) bool {
		return in.DaysOfSupply >= OverstockDOHThreshold
	}},
}

// BuyerStatusFor evaluates the buyer-status chain, first match wins.
func BuyerStatusFor(in BuyerInputs) domain.BuyerStatus {
	for _, r := range buyerRules {
		if r.match(in) {
			return r.badge
		}
	}
	return domain.StatusHealthy
}

type slowMoverRule struct {
	badge domain.SlowMoverAction
	match func(doh, weeklySales, onHand float64) bool
}

// Every DOH comparison in this family is a strict greater-than, unlike the
// buyer-status chain above. DOH exactly 120 falls through Markdown to Watch.
var slowMoverRules = []slowMoverRule{
	{domain.ActionNoStock, func(doh, weekly, onHand float64) bool {
		return onHand <= 0
	}},
	{domain.ActionInvestigate, func(doh, weekly, onHand float64) bool {
		return weekly <= 0 || doh >= UnknownDaysOfSupply
	}},
	{domain.ActionPromoStop, func(doh, weekly, onHand float64) bool {
		return doh > 180
	}},
	{domain.ActionMarkdown, func(doh, weekly, onHand float64) bool {
		return doh > 120
	}},
	{domain.ActionWatch, func(doh, weekly, onHand float64) bool {
		return doh > 90
	}},
	{domain.ActionMonitor, func(doh, weekly, onHand float64) bool {
		return doh > 60
	}},
}

// SlowMoverActionFor evaluates the slow-mover chain, first match wins.
func SlowMoverActionFor(daysOfSupply, weeklySales, onHandUnits float64) domain.SlowMoverAction {
	for _, r := range slowMoverRules {
		if r.match(daysOfSupply, weeklySales, onHandUnits) {
			return r.badge
		}
	}
	return domain.ActionHealthy
}
