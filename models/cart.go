package models

import "time"

// CartLine is a single rental line in the user's cart. Price and OwnerID are
// snapshots taken when the line is added so the checkout math is stable even
// if the item is edited afterwards.
type CartLine struct {
	ItemID    string  `json:"itemId" bson:"itemId"`
	ItemName  string  `json:"itemName" bson:"itemName"`
	OwnerID   string  `json:"ownerId" bson:"ownerId"`
	Price     float64 `json:"price" bson:"price"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	StartDate string  `json:"startDate" bson:"startDate"` // YYYY-MM-DD
	EndDate   string  `json:"endDate" bson:"endDate"`
}

// Cart holds one document per user. Version advances on every mutation and is
// the optimistic-concurrency token for checkout and capture.
type Cart struct {
	UserID    string     `json:"userId" bson:"userId"`
	Lines     []CartLine `json:"lines" bson:"lines"`
	Version   int64      `json:"version" bson:"version"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}
