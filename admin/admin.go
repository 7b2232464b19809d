package admin

import (
	"context"
	"encoding/json"
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

// stalePendingAge is how long a pending booking may sit before it is
// counted as stale on the dashboard. Stale bookings are surfaced for
// operators, never expired automatically.
const stalePendingAge = 24 * time.Hour

// GetStats returns the operator dashboard numbers.
//
// GET /api/admin/stats
func GetStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	users, err := db.UserCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to count users")
		return
	}
	items, err := db.ItemsCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to count items")
		return
	}
	openTickets, err := db.TicketsCollection.CountDocuments(ctx, bson.M{"status": bson.M{"$ne": models.TicketClosed}})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to count tickets")
		return
	}
	pendingDocs, err := db.DocumentsCollection.CountDocuments(ctx, bson.M{"status": models.DocPending})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to count documents")
		return
	}

	bookingsByStatus, err := countBookingsByStatus(ctx)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to aggregate bookings")
		return
	}

	revenue, err := confirmedRevenue(ctx)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to aggregate revenue")
		return
	}

	stale, err := db.BookingsCollection.CountDocuments(ctx, bson.M{
		"status":    models.BookingPending,
		"createdAt": bson.M{"$lt": time.Now().Add(-stalePendingAge)},
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to count stale bookings")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"users":             users,
		"items":             items,
		"openTickets":       openTickets,
		"pendingDocuments":  pendingDocs,
		"bookingsByStatus":  bookingsByStatus,
		"confirmedRevenue":  revenue,
		"stalePendingCount": stale,
	})
}

func countBookingsByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := db.BookingsCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := map[string]int64{
		models.BookingPending:   0,
		models.BookingConfirmed: 0,
		models.BookingCanceled:  0,
	}
	var row struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	for cur.Next(ctx) {
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Status] = row.Count
	}
	return counts, cur.Err()
}

func confirmedRevenue(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: models.BookingConfirmed}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$total"}}},
		}}},
	}
	cur, err := db.BookingsCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var row struct {
		Total float64 `bson:"total"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&row); err != nil {
			return 0, err
		}
	}
	return utils.Round2(row.Total), cur.Err()
}

// ListUsers pages through accounts for the admin UI.
//
// GET /api/admin/users
func ListUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if role := r.URL.Query().Get("role"); role != "" {
		filter["role"] = role
	}

	skip, limit := utils.ParsePagination(r, 20, 100)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	users, err := utils.FindAndDecode[models.User](ctx, db.UserCollection, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, users)
}

// ListStaleBookings returns pending bookings older than the stale
// threshold so operators can chase or cancel them by hand.
//
// GET /api/admin/bookings/stale
func ListStaleBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	skip, limit := utils.ParsePagination(r, 20, 100)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)

	filter := bson.M{
		"status":    models.BookingPending,
		"createdAt": bson.M{"$lt": time.Now().Add(-stalePendingAge)},
	}
	bookings, err := utils.FindAndDecode[models.Booking](ctx, db.BookingsCollection, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch stale bookings")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, bookings)
}

// SetUserRoles replaces a user's role list. Admin only.
//
// PUT /api/admin/users/:userid/roles
func SetUserRoles(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var input struct {
		Roles []string `json:"roles"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || len(input.Roles) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "roles are required")
		return
	}
	for _, role := range input.Roles {
		if role != "user" && role != "admin" {
			utils.RespondWithError(w, http.StatusBadRequest, "roles must be user or admin")
			return
		}
	}

	res, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"userid": ps.ByName("userid")},
		bson.M{"$set": bson.M{"role": input.Roles, "updated_at": time.Now()}},
	)
	if err != nil {
		log.Println("role update error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update roles")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
