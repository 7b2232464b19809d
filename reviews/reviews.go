package reviews

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentora/db"
	"rentora/models"
	"rentora/utils"
)

// GetReviews lists reviews for an item, newest first.
//
// GET /api/items/:itemid/reviews
func GetReviews(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	skip, limit := utils.ParsePagination(r, 10, 100)
	opts := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.M{"createdAt": -1})

	reviews, err := utils.FindAndDecode[models.Review](ctx, db.ReviewsCollection, bson.M{"itemId": ps.ByName("itemid")}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve reviews")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, reviews)
}

// AddReview creates a review and folds it into the item's aggregate rating.
// One review per user per item.
//
// POST /api/items/:itemid/reviews
func AddReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	itemID := ps.ByName("itemid")

	var item models.Item
	if err := db.ItemsCollection.FindOne(ctx, bson.M{"itemId": itemID}).Decode(&item); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Item not found")
		return
	}

	count, err := db.ReviewsCollection.CountDocuments(ctx, bson.M{"userId": userID, "itemId": itemID})
	if err != nil {
		log.Println("AddReview count error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if count > 0 {
		utils.RespondWithError(w, http.StatusConflict, "You have already reviewed this item")
		return
	}

	var review models.Review
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil || review.Rating < 1 || review.Rating > 5 || review.Comment == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid review data")
		return
	}

	review.ReviewID = utils.GenerateRandomString(16)
	review.ItemID = itemID
	review.UserID = userID
	review.CreatedAt = time.Now()

	if _, err := db.ReviewsCollection.InsertOne(ctx, review); err != nil {
		log.Println("AddReview insert error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save review")
		return
	}

	updateItemRating(ctx, itemID)
	utils.RespondWithJSON(w, http.StatusCreated, review)
}

// DeleteReview removes the author's own review and recomputes the aggregate.
//
// DELETE /api/items/:itemid/reviews/:reviewid
func DeleteReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	res, err := db.ReviewsCollection.DeleteOne(ctx, bson.M{
		"reviewId": ps.ByName("reviewid"),
		"userId":   userID,
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete review")
		return
	}
	if res.DeletedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Review not found")
		return
	}

	updateItemRating(ctx, ps.ByName("itemid"))
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// updateItemRating recomputes avgRating/totalReviews on the item from an
// aggregation over its reviews.
func updateItemRating(ctx context.Context, itemID string) {
	pipeline := []bson.M{
		{"$match": bson.M{"itemId": itemID}},
		{"$group": bson.M{
			"_id":   nil,
			"avg":   bson.M{"$avg": "$rating"},
			"count": bson.M{"$sum": 1},
		}},
	}

	cur, err := db.ReviewsCollection.Aggregate(ctx, pipeline)
	if err != nil {
		log.Println("updateItemRating aggregate error:", err)
		return
	}
	defer cur.Close(ctx)

	avg, count := 0.0, 0
	if cur.Next(ctx) {
		var row struct {
			Avg   float64 `bson:"avg"`
			Count int     `bson:"count"`
		}
		if err := cur.Decode(&row); err == nil {
			avg, count = utils.Round2(row.Avg), row.Count
		}
	}

	if _, err := db.ItemsCollection.UpdateOne(ctx,
		bson.M{"itemId": itemID},
		bson.M{"$set": bson.M{"avgRating": avg, "totalReviews": count}},
	); err != nil {
		log.Println("updateItemRating update error:", err)
	}
}
