package engine

import "strings"

// FilterRoom restricts inventory rows to a single room partition, e.g. the
// sellable "Vault" as opposed to quarantine or staff stock. Room values are
// compared after trimming and lowercasing, so "Vault", "vault" and " VAULT "
// all match. The returned counts always sum to the input row count.
//
// A missing room column is fatal to this step: the caller asked for a
// partition the file cannot express.
func FilterRoom(t Table, room string) (Table, int, int, error) {
	idx := columnIndex(t.Headers, RoomAliases)
	if idx < 0 {
		return Table{}, 0, 0, &SchemaError{
			Column:  "room",
			Aliases: RoomAliases,
			Values:  []string{room},
		}
	}

	want := strings.ToLower(strings.TrimSpace(room))
	filtered := Table{Headers: t.Headers}
	included, excluded := 0, 0
	for _, rec := range t.Records {
		got := strings.ToLower(cellAt(rec, idx))
		if got == want {
			filtered.Records = append(filtered.Records, rec)
			included++
		} else {
			excluded++
		}
	}

	return filtered, included, excluded, nil
}
