package engine

import (
	"strings"
	"testing"
)

func TestFilterRoom(t *testing.T) {
	inv := Table{
		Headers: []string{"Product", "Room", "Available"},
		Records: [][]string{
			{"A", "Vault", "10"},
			{"B", "vault", "5"},
			{"C", "VAULT", "3"},
			{"D", " Vault ", "2"},
			{"E", "Quarantine", "7"},
			{"F", "Employee Stock", "1"},
		},
	}

	filtered, included, excluded, err := FilterRoom(inv, "Vault")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if included != 4 || excluded != 2 {
		t.Errorf("included=%d excluded=%d, want 4/2", included, excluded)
	}
	if included+excluded != len(inv.Records) {
		t.Error("included+excluded must equal total row count")
	}
	if len(filtered.Records) != included {
		t.Errorf("filtered rows = %d, want %d", len(filtered.Records), included)
	}
	for _, rec := range filtered.Records {
		if rec[0] == "E" || rec[0] == "F" {
			t.Errorf("row %s should have been excluded", rec[0])
		}
	}
}

func TestFilterRoomMissingColumn(t *testing.T) {
	inv := Table{
		Headers: []string{"Product", "Available"},
		Records: [][]string{{"A", "10"}},
	}

	_, _, _, err := FilterRoom(inv, "Vault")
	schemaErr, ok := err.(*SchemaError)
	if !ok {
		t.Fatalf("expected *SchemaError, got %v", err)
	}
	if schemaErr.Column != "room" {
		t.Errorf("SchemaError.Column = %q, want room", schemaErr.Column)
	}
	if !strings.Contains(schemaErr.Error(), "Vault") {
		t.Errorf("error message should name the expected partition value: %s", schemaErr.Error())
	}
	if !strings.Contains(schemaErr.Error(), "room") {
		t.Errorf("error message should name the missing column: %s", schemaErr.Error())
	}
}
