package checkout

import (
	"errors"
	"math"
	"testing"

	"rentora/models"
)

func linked(merchantID string) *models.PaymentDetails {
	return &models.PaymentDetails{
		MerchantIDInPayPal: merchantID,
		ConsentGranted:     true,
		PaymentsReceivable: true,
	}
}

func TestBuildPurchaseUnitsTwoMerchants(t *testing.T) {
	lines := []models.CartLine{
		{ItemID: "a", ItemName: "Drill", OwnerID: "o1", Price: 100, Quantity: 1, StartDate: "2026-09-01", EndDate: "2026-09-03"},
		{ItemID: "b", ItemName: "Tent", OwnerID: "o2", Price: 50, Quantity: 2, StartDate: "2026-09-01", EndDate: "2026-09-02"},
	}
	merchants := map[string]*models.PaymentDetails{
		"o1": linked("M1"),
		"o2": linked("M2"),
	}

	units, total, err := BuildPurchaseUnits(lines, merchants)
	if err != nil {
		t.Fatalf("BuildPurchaseUnits: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 purchase units, got %d", len(units))
	}
	if total != 150 {
		t.Fatalf("expected total 150, got %v", total)
	}

	if units[0].MerchantID != "M1" || units[0].Amount != 100 || units[0].PlatformFee != 18 {
		t.Fatalf("unexpected first unit: %+v", units[0])
	}
	if units[1].MerchantID != "M2" || units[1].Amount != 50 || units[1].PlatformFee != 9 {
		t.Fatalf("unexpected second unit: %+v", units[1])
	}
}

func TestBuildPurchaseUnitsGroupsByOwner(t *testing.T) {
	lines := []models.CartLine{
		{ItemID: "a", OwnerID: "o1", Price: 10},
		{ItemID: "b", OwnerID: "o2", Price: 20},
		{ItemID: "c", OwnerID: "o1", Price: 30},
	}
	merchants := map[string]*models.PaymentDetails{
		"o1": linked("M1"),
		"o2": linked("M2"),
	}

	units, total, err := BuildPurchaseUnits(lines, merchants)
	if err != nil {
		t.Fatalf("BuildPurchaseUnits: %v", err)
	}
	if len(units) != 1+1 {
		t.Fatalf("expected one unit per distinct owner, got %d", len(units))
	}
	if units[0].Amount != 40 {
		t.Fatalf("expected o1 subtotal 40, got %v", units[0].Amount)
	}
	if total != 60 {
		t.Fatalf("expected total 60, got %v", total)
	}
}

// Money must balance: sum of unit amounts equals the booking total, and each
// fee is 18% of its unit, to the cent.
func TestBuildPurchaseUnitsMoneyBalances(t *testing.T) {
	lines := []models.CartLine{
		{ItemID: "a", OwnerID: "o1", Price: 19.99},
		{ItemID: "b", OwnerID: "o2", Price: 33.33},
		{ItemID: "c", OwnerID: "o3", Price: 0.01},
		{ItemID: "d", OwnerID: "o2", Price: 12.49},
	}
	merchants := map[string]*models.PaymentDetails{
		"o1": linked("M1"),
		"o2": linked("M2"),
		"o3": linked("M3"),
	}

	units, total, err := BuildPurchaseUnits(lines, merchants)
	if err != nil {
		t.Fatalf("BuildPurchaseUnits: %v", err)
	}

	sum := 0.0
	for _, u := range units {
		sum += u.Amount
		wantFee := math.Round(u.Amount*PlatformFeeRate*100) / 100
		if u.PlatformFee != wantFee {
			t.Fatalf("fee for %s: got %v want %v", u.MerchantID, u.PlatformFee, wantFee)
		}
	}
	if math.Abs(sum-total) > 1e-9 {
		t.Fatalf("unit amounts %v do not sum to total %v", sum, total)
	}
}

func TestBuildPurchaseUnitsRejectsEmptyCart(t *testing.T) {
	_, _, err := BuildPurchaseUnits(nil, nil)
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestBuildPurchaseUnitsNamesUnpayableItem(t *testing.T) {
	lines := []models.CartLine{
		{ItemID: "a", ItemName: "Drill", OwnerID: "o1", Price: 100},
		{ItemID: "b", ItemName: "Tent", OwnerID: "o2", Price: 50},
	}
	merchants := map[string]*models.PaymentDetails{
		"o1": linked("M1"),
		"o2": {MerchantIDInPayPal: "", ConsentGranted: true}, // onboarding never finished
	}

	_, _, err := BuildPurchaseUnits(lines, merchants)
	var unpayable *UnpayableItemError
	if !errors.As(err, &unpayable) {
		t.Fatalf("expected UnpayableItemError, got %v", err)
	}
	if unpayable.ItemID != "b" || unpayable.ItemName != "Tent" {
		t.Fatalf("error should name the offending item, got %+v", unpayable)
	}
}

func TestBuildPurchaseUnitsRejectsMissingPaymentDetails(t *testing.T) {
	lines := []models.CartLine{{ItemID: "a", ItemName: "Drill", OwnerID: "o1", Price: 100}}

	_, _, err := BuildPurchaseUnits(lines, map[string]*models.PaymentDetails{})
	var unpayable *UnpayableItemError
	if !errors.As(err, &unpayable) {
		t.Fatalf("expected UnpayableItemError for absent record, got %v", err)
	}
	if unpayable.ItemID != "a" {
		t.Fatalf("expected item a named, got %+v", unpayable)
	}
}
