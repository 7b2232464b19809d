package checkout

import (
	"fmt"

	"rentora/models"
	"rentora/paypal"
	"rentora/utils"
)

// PlatformFeeRate is the marketplace cut deducted from each owner's proceeds.
const PlatformFeeRate = 0.18

// UnpayableItemError names the first cart item whose owner cannot receive
// funds, so the renter knows exactly what to remove.
type UnpayableItemError struct {
	ItemID   string
	ItemName string
}

func (e *UnpayableItemError) Error() string {
	return fmt.Sprintf("item %q (%s) belongs to an owner without a linked PayPal merchant account", e.ItemName, e.ItemID)
}

// ErrEmptyCart rejects checkout of an empty cart.
var ErrEmptyCart = fmt.Errorf("cart is empty")

// BuildPurchaseUnits groups cart lines by owning merchant and computes one
// purchase unit per merchant: subtotal = sum of flat line prices
// (quantity-insensitive), platform fee = 18% of the subtotal, rounded to
// cents. Returns the units in first-appearance order and the booking total.
func BuildPurchaseUnits(lines []models.CartLine, merchants map[string]*models.PaymentDetails) ([]paypal.PurchaseUnit, float64, error) {
	if len(lines) == 0 {
		return nil, 0, ErrEmptyCart
	}

	order := make([]string, 0, len(lines))
	subtotals := make(map[string]float64, len(lines))
	for _, line := range lines {
		pd := merchants[line.OwnerID]
		if !pd.Payable() {
			return nil, 0, &UnpayableItemError{ItemID: line.ItemID, ItemName: line.ItemName}
		}
		if _, seen := subtotals[line.OwnerID]; !seen {
			order = append(order, line.OwnerID)
		}
		subtotals[line.OwnerID] += line.Price
	}

	units := make([]paypal.PurchaseUnit, 0, len(order))
	total := 0.0
	for _, ownerID := range order {
		subtotal := utils.Round2(subtotals[ownerID])
		total += subtotal
		units = append(units, paypal.PurchaseUnit{
			ReferenceID: ownerID,
			MerchantID:  merchants[ownerID].MerchantIDInPayPal,
			Amount:      subtotal,
			PlatformFee: utils.Round2(subtotal * PlatformFeeRate),
		})
	}

	return units, utils.Round2(total), nil
}
