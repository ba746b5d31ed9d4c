package engine

import (
	"fmt"
	"strings"
)

// Field aliases in resolution priority order. These cover the header variants
// seen across Dutchie, BioTrack and hand-maintained spreadsheet exports.
// Resolution happens once per input load; downstream code addresses columns
// by index only.
var (
	ItemNameAliases    = []string{"itemname", "product", "product name", "item", "item name"}
	OnHandAliases      = []string{"onhandunits", "available", "on hand", "on hand units", "quantity on hand", "qty on hand", "units"}
	UnitCostAliases    = []string{"unit cost", "cost", "cost per unit", "unit price", "current price", "avg cost"}
	ExpirationAliases  = []string{"expiration date", "expiration", "expires", "expiry date", "exp date", "sell by date"}
	RoomAliases        = []string{"room", "room name", "location", "storage location"}
	CategoryAliases    = []string{"category", "subcategory", "master category", "product category"}
	StrainAliases      = []string{"strain", "strain name"}
	PackageSizeAliases = []string{"package size", "size", "unit size", "net weight"}
	SoldQtyAliases     = []string{"quantity sold", "qty sold", "units sold", "quantity", "qty"}
)

// SchemaError reports a required column that could not be located after alias
// resolution. It is fatal to the step that raised it; optional columns never
// produce one.
type SchemaError struct {
	Column  string   // canonical field name
	Aliases []string // headers that would have matched
	Values  []string // example values expected in the column, when known
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("required column %q not found (accepted headers: %s)",
		e.Column, strings.Join(e.Aliases, ", "))
	if len(e.Values) > 0 {
		msg += fmt.Sprintf("; expected values such as: %s", strings.Join(e.Values, ", "))
	}
	return msg
}

// normalizeHeader lowercases a header and strips every character that is not
// a lowercase letter or digit, so "Current Price", "CURRENT PRICE" and
// "currentprice" all normalize identically.
func normalizeHeader(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResolveColumn returns the observed header matching the first alias (in the
// caller-supplied priority order) that has a normalized match. Ties between
// equally-normalized headers resolve to whichever header appears first. The
// second return is false when nothing matches; absence is never an error here.
func ResolveColumn(headers []string, aliases []string) (string, bool) {
	for _, alias := range aliases {
		want := normalizeHeader(alias)
		for _, h := range headers {
			if normalizeHeader(h) == want {
				return h, true
			}
		}
	}
	return "", false
}

// columnIndex is ResolveColumn for positional access; -1 means not found.
func columnIndex(headers []string, aliases []string) int {
	for _, alias := range aliases {
		want := normalizeHeader(alias)
		for i, h := range headers {
			if normalizeHeader(h) == want {
				return i
			}
		}
	}
	return -1
}

// inventorySchema holds the resolved column indices for an inventory table.
// Optional fields are -1 when the column is absent from the input.
type inventorySchema struct {
	item       int
	onHand     int
	cost       int
	expiration int
	room       int
	category   int
	strain     int
	size       int
}

// resolveInventorySchema maps heterogeneous inventory headers to the canonical
// schema. Item name and on-hand quantity are the only required fields.
func resolveInventorySchema(headers []string) (inventorySchema, error) {
	s := inventorySchema{
		item:       columnIndex(headers, ItemNameAliases),
		onHand:     columnIndex(headers, OnHandAliases),
		cost:       columnIndex(headers, UnitCostAliases),
		expiration: columnIndex(headers, ExpirationAliases),
		room:       columnIndex(headers, RoomAliases),
		category:   columnIndex(headers, CategoryAliases),
		strain:     columnIndex(headers, StrainAliases),
		size:       columnIndex(headers, PackageSizeAliases),
	}
	if s.item < 0 {
		return s, &SchemaError{Column: "itemname", Aliases: ItemNameAliases}
	}
	if s.onHand < 0 {
		return s, &SchemaError{Column: "onhandunits", Aliases: OnHandAliases}
	}
	return s, nil
}
