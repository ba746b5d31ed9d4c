package domain

import "time"

// ItemSummary is one classified, aggregated inventory record: the unit the
// rest of the system operates on. Optional source columns surface as nil
// pointers rather than zero values so their absence survives serialization.
type ItemSummary struct {
	ItemName    string `json:"item_name" db:"item_name"`
	Category    string `json:"category,omitempty" db:"category"`
	Strain      string `json:"strain,omitempty" db:"strain"`
	PackageSize string `json:"package_size,omitempty" db:"package_size"`

	OnHandUnits        float64    `json:"on_hand_units" db:"on_hand_units"`
	UnitCost           *float64   `json:"unit_cost,omitempty" db:"unit_cost"`
	EarliestExpiration *time.Time `json:"earliest_expiration,omitempty" db:"earliest_expiration"`
	DaysToExpire       *float64   `json:"days_to_expire,omitempty" db:"days_to_expire"`
	Batches            int        `json:"batches" db:"batches"`

	TotalSold      float64 `json:"total_sold" db:"total_sold"`
	DailyRunRate   float64 `json:"daily_run_rate" db:"daily_run_rate"`
	AvgWeeklySales float64 `json:"avg_weekly_sales" db:"avg_weekly_sales"`
	DaysOfSupply   float64 `json:"days_of_supply" db:"days_of_supply"`

	Status            BuyerStatus     `json:"status" db:"status"`
	Action            SlowMoverAction `json:"action" db:"action"`
	SlowMoverScore    float64         `json:"slow_mover_score" db:"slow_mover_score"`
	SuggestedDiscount DiscountBand    `json:"suggested_discount" db:"suggested_discount"`
	SuggestedPOPrice  float64         `json:"suggested_po_price" db:"suggested_po_price"`
}

// Snapshot is one full classification run over an uploaded report pair.
type Snapshot struct {
	Date         time.Time     `json:"date"`
	WindowDays   int           `json:"window_days"`
	Room         string        `json:"room,omitempty"`
	RoomIncluded int           `json:"room_included"`
	RoomExcluded int           `json:"room_excluded"`
	Items        []ItemSummary `json:"items"`
	LoadedAt     time.Time     `json:"loaded_at"`
}

// ExpirationWindow narrows item listings to soon-to-expire stock.
type ExpirationWindow string

const (
	ExpireAny     ExpirationWindow = "Any"
	ExpireUnder30 ExpirationWindow = "<30 days"
	ExpireUnder60 ExpirationWindow = "<60 days"
	ExpireUnder90 ExpirationWindow = "<90 days"
)

// Days returns the upper bound of the window, or 0 for ExpireAny.
func (w ExpirationWindow) Days() float64 {
	switch w {
	case ExpireUnder30:
		return 30
	case ExpireUnder60:
		return 60
	case ExpireUnder90:
		return 90
	default:
		return 0
	}
}

// BuyerViewFilter selects a subset of the current snapshot's items.
type BuyerViewFilter struct {
	Status     string           `json:"status"`
	Category   string           `json:"category"`
	Search     string           `json:"search"`
	Expiration ExpirationWindow `json:"expiration"`
	MinDOH     float64          `json:"min_doh"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
}

// BuyerViewSummary is the KPI strip over one snapshot.
type BuyerViewSummary struct {
	SKUsInStock        int                 `json:"skus_in_stock"`
	TotalUnits         float64             `json:"total_units"`
	DollarsOnHand      float64             `json:"dollars_on_hand"`
	StatusCounts       map[BuyerStatus]int `json:"status_counts"`
	MedianDaysOfSupply float64             `json:"median_days_of_supply"`
	WorstCategory      string              `json:"worst_category,omitempty"`
	SlowMovers         int                 `json:"slow_movers"`
}

// POSuggestion is one line a buyer can carry into a purchase order.
type POSuggestion struct {
	ItemName         string      `json:"item_name"`
	Category         string      `json:"category,omitempty"`
	OnHandUnits      float64     `json:"on_hand_units"`
	DaysOfSupply     float64     `json:"days_of_supply"`
	AvgWeeklySales   float64     `json:"avg_weekly_sales"`
	SuggestedPOPrice float64     `json:"suggested_po_price"`
	Status           BuyerStatus `json:"status"`
}

// StatusCount is a per-badge tally, used by persistence and dashboards.
type StatusCount struct {
	Status string `json:"status" db:"status"`
	Count  int    `json:"count" db:"count"`
}

// UploadedFile is a report received through the HTTP upload endpoint.
type UploadedFile struct {
	Filename string
	Path     string
	Size     int64
}
