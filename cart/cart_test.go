package cart

import (
	"testing"

	"rentora/models"
)

func TestValidateLine(t *testing.T) {
	valid := models.CartLine{ItemID: "i1", Quantity: 1, StartDate: "2026-09-01", EndDate: "2026-09-03"}
	if err := ValidateLine(valid); err != nil {
		t.Fatalf("valid line rejected: %v", err)
	}

	cases := []struct {
		name string
		line models.CartLine
	}{
		{"missing item", models.CartLine{Quantity: 1, StartDate: "2026-09-01", EndDate: "2026-09-02"}},
		{"zero quantity", models.CartLine{ItemID: "i1", StartDate: "2026-09-01", EndDate: "2026-09-02"}},
		{"negative quantity", models.CartLine{ItemID: "i1", Quantity: -1, StartDate: "2026-09-01", EndDate: "2026-09-02"}},
		{"bad start date", models.CartLine{ItemID: "i1", Quantity: 1, StartDate: "Sept 1", EndDate: "2026-09-02"}},
		{"bad end date", models.CartLine{ItemID: "i1", Quantity: 1, StartDate: "2026-09-01", EndDate: ""}},
		{"inverted range", models.CartLine{ItemID: "i1", Quantity: 1, StartDate: "2026-09-05", EndDate: "2026-09-01"}},
	}

	for _, tc := range cases {
		if err := ValidateLine(tc.line); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestValidateLineSameDayRental(t *testing.T) {
	line := models.CartLine{ItemID: "i1", Quantity: 1, StartDate: "2026-09-01", EndDate: "2026-09-01"}
	if err := ValidateLine(line); err != nil {
		t.Fatalf("same-day rental should be allowed: %v", err)
	}
}
