package repository

import (
	"testing"

	"github.com/verdantiq/buyerview/backend-go/internal/domain"
)

func TestItemFilterConditionsStatusCanonicalized(t *testing.T) {
	conditions, args := itemFilterConditions(domain.BuyerViewFilter{Status: "reorder"}, 2)
	if len(conditions) != 1 || conditions[0] != "status = $2" {
		t.Fatalf("conditions = %v", conditions)
	}
	if len(args) != 1 || args[0] != "Reorder" {
		t.Fatalf("args = %v, want the canonical badge", args)
	}
}

func TestItemFilterConditionsUnknownStatusIgnored(t *testing.T) {
	conditions, args := itemFilterConditions(domain.BuyerViewFilter{Status: "bogus"}, 2)
	if len(conditions) != 0 || len(args) != 0 {
		t.Fatalf("unknown status should add no condition, got %v with args %v", conditions, args)
	}
}

func TestItemFilterConditionsNumbering(t *testing.T) {
	filter := domain.BuyerViewFilter{
		Status:     "Overstock",
		Category:   "Flower",
		Search:     "dream",
		Expiration: domain.ExpireUnder30,
		MinDOH:     90,
	}

	conditions, args := itemFilterConditions(filter, 2)
	if len(conditions) != 5 || len(args) != 5 {
		t.Fatalf("expected 5 conditions and args, got %v with args %v", conditions, args)
	}
	if conditions[4] != "days_of_supply >= $6" {
		t.Errorf("last placeholder = %q, want $6", conditions[4])
	}
	if args[2] != "%dream%" {
		t.Errorf("search arg = %v, want wrapped pattern", args[2])
	}
}
