package domain

import "strings"

// BuyerStatus is the buyer-facing inventory badge. The set is closed; the
// engine picks exactly one per item by first-match-wins rule order.
type BuyerStatus string

const (
	StatusNoStock   BuyerStatus = "No Stock"
	StatusExpiring  BuyerStatus = "Expiring"
	StatusReorder   BuyerStatus = "Reorder"
	StatusOverstock BuyerStatus = "Overstock"
	StatusHealthy   BuyerStatus = "Healthy"
)

// SlowMoverAction is the slow-mover action badge, an independent rule family
// from BuyerStatus with its own thresholds.
type SlowMoverAction string

const (
	ActionNoStock     SlowMoverAction = "No Stock"
	ActionInvestigate SlowMoverAction = "Investigate"
	ActionPromoStop   SlowMoverAction = "Promo / Stop Reorder"
	ActionMarkdown    SlowMoverAction = "Markdown"
	ActionWatch       SlowMoverAction = "Watch"
	ActionMonitor     SlowMoverAction = "Monitor"
	ActionHealthy     SlowMoverAction = "Healthy"
)

// DiscountBand is the recommended markdown range for slow stock.
type DiscountBand string

const (
	DiscountUrgent DiscountBand = "30-50% (Urgent)"
	DiscountHigh   DiscountBand = "20-30% (High Priority)"
	DiscountMedium DiscountBand = "15-20% (Medium Priority)"
	DiscountLow    DiscountBand = "10-15% (Low Priority)"
	DiscountNone   DiscountBand = "No discount needed"
)

var buyerStatuses = map[string]BuyerStatus{
	"no stock":  StatusNoStock,
	"expiring":  StatusExpiring,
	"reorder":   StatusReorder,
	"overstock": StatusOverstock,
	"healthy":   StatusHealthy,
}

// ParseBuyerStatus returns the badge for a label (case-insensitive).
func ParseBuyerStatus(label string) (BuyerStatus, bool) {
	s, ok := buyerStatuses[strings.ToLower(strings.TrimSpace(label))]

	return s, ok
}
