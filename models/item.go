package models

import "time"

// Item status values
const (
	ItemAvailable = "available"
	ItemRented    = "rented"
	ItemReserved  = "reserved"
)

// GeoPoint is a GeoJSON point, coordinates are [lng, lat].
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

type Item struct {
	ItemID       string    `json:"itemId" bson:"itemId"`
	Name         string    `json:"name" bson:"name"`
	Description  string    `json:"description" bson:"description"`
	Price        float64   `json:"price" bson:"price"`
	CategoryID   string    `json:"categoryId" bson:"categoryId"`
	SubCategory  string    `json:"subCategory,omitempty" bson:"subCategory,omitempty"`
	Images       []string  `json:"images,omitempty" bson:"images,omitempty"`
	Thumbnail    string    `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	Location     *GeoPoint `json:"location,omitempty" bson:"location,omitempty"`
	Address      string    `json:"address,omitempty" bson:"address,omitempty"`
	OwnerID      string    `json:"ownerId" bson:"ownerId"`
	Status       string    `json:"status" bson:"status"`
	AvgRating    float64   `json:"avgRating" bson:"avgRating"`
	TotalReviews int       `json:"totalReviews" bson:"totalReviews"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

type Category struct {
	CategoryID    string            `json:"categoryId" bson:"categoryId"`
	Name          string            `json:"name" bson:"name"`
	Localized     map[string]string `json:"localized,omitempty" bson:"localized,omitempty"` // lang code -> translated name
	SubCategories []string          `json:"subCategories,omitempty" bson:"subCategories,omitempty"`
	Active        bool              `json:"active" bson:"active"`
	CreatedAt     time.Time         `json:"createdAt" bson:"createdAt"`
}

type Review struct {
	ReviewID  string    `json:"reviewId" bson:"reviewId"`
	ItemID    string    `json:"itemId" bson:"itemId"`
	UserID    string    `json:"userId" bson:"userId"`
	Rating    int       `json:"rating" bson:"rating"`
	Comment   string    `json:"comment" bson:"comment"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
