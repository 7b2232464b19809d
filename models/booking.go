package models

import "time"

// Booking status values
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCanceled  = "canceled"
)

// BookingLine echoes one cart line into the ledger, plus the merchant the
// funds route to.
type BookingLine struct {
	ItemID     string  `json:"itemId" bson:"itemId"`
	ItemName   string  `json:"itemName" bson:"itemName"`
	OwnerID    string  `json:"ownerId" bson:"ownerId"`
	MerchantID string  `json:"merchantId" bson:"merchantId"`
	Price      float64 `json:"price" bson:"price"`
	Quantity   int     `json:"quantity" bson:"quantity"`
	StartDate  string  `json:"startDate" bson:"startDate"`
	EndDate    string  `json:"endDate" bson:"endDate"`
}

type Booking struct {
	BookingID     string        `json:"bookingId" bson:"bookingId"`
	UserID        string        `json:"userId" bson:"userId"`
	RequesterName string        `json:"requesterName" bson:"requesterName"`
	Lines         []BookingLine `json:"lines" bson:"lines"`
	Total         float64       `json:"total" bson:"total"`
	Status        string        `json:"status" bson:"status"`
	OrderID       string        `json:"orderId,omitempty" bson:"orderId,omitempty"` // gateway order reference
	MerchantIDs   []string      `json:"merchantIds" bson:"merchantIds"`
	CartVersion   int64         `json:"cartVersion" bson:"cartVersion"` // cart snapshot the booking was built from
	CreatedAt     time.Time     `json:"createdAt" bson:"createdAt"`
	ConfirmedAt   time.Time     `json:"confirmedAt,omitempty" bson:"confirmedAt,omitempty"`
}

// PaymentDetails links an item owner to a payable PayPal merchant account.
type PaymentDetails struct {
	UserID                string    `json:"userId" bson:"userId"`
	MerchantID            string    `json:"merchantId" bson:"merchantId"` // our tracking id
	MerchantIDInPayPal    string    `json:"merchantIdInPayPal" bson:"merchantIdInPayPal"`
	PaymentsReceivable    bool      `json:"paymentsReceivable" bson:"paymentsReceivable"`
	PrimaryEmailConfirmed bool      `json:"primaryEmailConfirmed" bson:"primaryEmailConfirmed"`
	ConsentGranted        bool      `json:"consentGranted" bson:"consentGranted"`
	CreatedAt             time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Payable reports whether checkout may route funds to this merchant.
func (p *PaymentDetails) Payable() bool {
	return p != nil && p.MerchantIDInPayPal != "" && p.ConsentGranted
}
