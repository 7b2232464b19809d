package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentora/db"
	"rentora/models"
	"rentora/utils"
)

const dateLayout = "2006-01-02"

// ValidateLine checks the client-supplied parts of a cart line. Price and
// owner are never trusted from the client; they are snapshotted from the item.
func ValidateLine(line models.CartLine) error {
	if line.ItemID == "" {
		return fmt.Errorf("itemId is required")
	}
	if line.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	start, err := time.Parse(dateLayout, line.StartDate)
	if err != nil {
		return fmt.Errorf("invalid startDate, expected YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, line.EndDate)
	if err != nil {
		return fmt.Errorf("invalid endDate, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return fmt.Errorf("endDate before startDate")
	}
	return nil
}

// GetCart returns the user's cart, creating an empty view when none exists.
//
// GET /api/cart
func GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var cart models.Cart
	err := db.CartsCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if err == mongo.ErrNoDocuments {
		cart = models.Cart{UserID: userID, Lines: []models.CartLine{}}
	} else if err != nil {
		log.Println("GetCart find error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not retrieve cart")
		return
	}
	if cart.Lines == nil {
		cart.Lines = []models.CartLine{}
	}

	utils.RespondWithJSON(w, http.StatusOK, cart)
}

// AddLine appends a rental line to the cart, snapshotting price and owner
// from the item document. Every mutation advances the cart version.
//
// POST /api/cart
func AddLine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var line models.CartLine
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := ValidateLine(line); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var item models.Item
	if err := db.ItemsCollection.FindOne(ctx, bson.M{"itemId": line.ItemID}).Decode(&item); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Item not found")
		return
	}
	if item.Status != models.ItemAvailable {
		utils.RespondWithError(w, http.StatusConflict, "Item is not available")
		return
	}
	if item.OwnerID == userID {
		utils.RespondWithError(w, http.StatusBadRequest, "You cannot rent your own item")
		return
	}

	line.ItemName = item.Name
	line.Price = item.Price
	line.OwnerID = item.OwnerID

	update := bson.M{
		"$push": bson.M{"lines": line},
		"$inc":  bson.M{"version": 1},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := db.CartsCollection.UpdateOne(ctx, bson.M{"userId": userID}, update, opts); err != nil {
		log.Println("AddLine update error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to add to cart")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

// UpdateLine changes quantity and/or dates of an existing line.
//
// PUT /api/cart/:itemid
func UpdateLine(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	itemID := ps.ByName("itemid")

	var payload struct {
		Quantity  int    `json:"quantity"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := ValidateLine(models.CartLine{
		ItemID:    itemID,
		Quantity:  payload.Quantity,
		StartDate: payload.StartDate,
		EndDate:   payload.EndDate,
	}); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := db.CartsCollection.UpdateOne(ctx,
		bson.M{"userId": userID, "lines.itemId": itemID},
		bson.M{
			"$set": bson.M{
				"lines.$.quantity":  payload.Quantity,
				"lines.$.startDate": payload.StartDate,
				"lines.$.endDate":   payload.EndDate,
				"updatedAt":         time.Now(),
			},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		log.Println("UpdateLine update error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Item not in cart")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// RemoveLine drops an item from the cart.
//
// DELETE /api/cart/:itemid
func RemoveLine(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	itemID := ps.ByName("itemid")

	res, err := db.CartsCollection.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{
			"$pull": bson.M{"lines": bson.M{"itemId": itemID}},
			"$inc":  bson.M{"version": 1},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		log.Println("RemoveLine update error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Cart not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
