package booking

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentora/db"
	"rentora/mailer"
	"rentora/models"
	"rentora/paypal"
	"rentora/utils"
)

// Handler serves the booking ledger endpoints.
type Handler struct {
	Gateway *paypal.Client
}

func NewHandler(gw *paypal.Client) *Handler {
	return &Handler{Gateway: gw}
}

// GetBookings lists the requesting user's bookings, newest first.
//
// GET /api/bookings
func (h *Handler) GetBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	skip, limit := utils.ParsePagination(r, 20, 100)
	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetSkip(skip).SetLimit(limit)

	filter := bson.M{"userId": userID}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}

	bookings, err := utils.FindAndDecode[models.Booking](ctx, db.BookingsCollection, filter, opts)
	if err != nil {
		log.Println("GetBookings find error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not retrieve bookings")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, bookings)
}

// GetBooking returns one booking; only the renter or an admin may read it.
//
// GET /api/bookings/:bookingid
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	b, ok := h.loadOwnBooking(ctx, w, r, ps.ByName("bookingid"))
	if !ok {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, b)
}

// CancelBooking moves a pending booking to canceled.
//
// PUT /api/bookings/:bookingid/cancel
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	b, ok := h.loadOwnBooking(ctx, w, r, ps.ByName("bookingid"))
	if !ok {
		return
	}
	if !CanCancel(b) {
		utils.RespondWithError(w, http.StatusConflict, "Only pending bookings can be canceled")
		return
	}

	res, err := db.BookingsCollection.UpdateOne(ctx,
		bson.M{"bookingId": b.BookingID, "status": models.BookingPending},
		bson.M{"$set": bson.M{"status": models.BookingCanceled}},
	)
	if err != nil || res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusConflict, "Booking state changed; retry")
		return
	}

	b.Status = models.BookingCanceled
	utils.RespondWithJSON(w, http.StatusOK, b)
}

// CaptureBooking captures the gateway order behind a pending booking and, on
// success, confirms the booking, clears the originating cart (only when its
// version still matches the checkout snapshot) and mails everyone involved.
// Capturing an already-confirmed booking is an idempotent no-op.
//
// POST /api/bookings/:bookingid/capture
func (h *Handler) CaptureBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 25*time.Second)
	defer cancel()

	b, ok := h.loadOwnBooking(ctx, w, r, ps.ByName("bookingid"))
	if !ok {
		return
	}

	if b.Status == models.BookingConfirmed {
		// Retried capture: report success without repeating side effects.
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": b.Status, "booking": b})
		return
	}
	if b.Status == models.BookingCanceled {
		utils.RespondWithError(w, http.StatusConflict, "Booking is canceled")
		return
	}

	seller := ""
	if len(b.MerchantIDs) > 0 {
		seller = b.MerchantIDs[0]
	}
	gatewayStatus, err := h.Gateway.CaptureOrder(ctx, b.OrderID, seller)
	if err != nil {
		var ge *paypal.GatewayError
		if errors.As(err, &ge) {
			utils.RespondWithJSON(w, http.StatusBadGateway, utils.M{
				"error":          "capture failed",
				"gatewayStatus":  ge.Status,
				"gatewayMessage": ge.Message,
			})
			return
		}
		log.Println("CaptureBooking transport error:", err)
		utils.RespondWithError(w, http.StatusBadGateway, "payment gateway unreachable")
		return
	}

	changed, err := ApplyCapture(b, gatewayStatus, time.Now())
	if err != nil {
		utils.RespondWithError(w, http.StatusBadGateway, "capture not completed: "+gatewayStatus)
		return
	}
	if !changed {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": b.Status, "booking": b})
		return
	}

	// Guard the DB transition the same way: only a still-pending document is
	// flipped, so two racing captures produce one set of side effects.
	res, err := db.BookingsCollection.UpdateOne(ctx,
		bson.M{"bookingId": b.BookingID, "status": models.BookingPending},
		bson.M{"$set": bson.M{"status": models.BookingConfirmed, "confirmedAt": b.ConfirmedAt}},
	)
	if err != nil {
		log.Println("CaptureBooking update error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to confirm booking")
		return
	}
	if res.ModifiedCount > 0 {
		h.clearCartSnapshot(ctx, b)
		go h.notifyParticipants(b)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": b.Status, "booking": b})
}

// cartClearMutation builds the clear pinned to the exact cart version the
// booking was priced from. A cart the user kept mutating after checkout
// carries a later version, matches nothing and is left alone.
func cartClearMutation(b *models.Booking, now time.Time) (bson.M, bson.M) {
	filter := bson.M{"userId": b.UserID, "version": b.CartVersion}
	update := bson.M{
		"$set": bson.M{"lines": []models.CartLine{}, "updatedAt": now},
		"$inc": bson.M{"version": 1},
	}
	return filter, update
}

// clearCartSnapshot empties the cart the booking was built from.
func (h *Handler) clearCartSnapshot(ctx context.Context, b *models.Booking) {
	filter, update := cartClearMutation(b, time.Now())
	res, err := db.CartsCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		log.Println("clearCartSnapshot error:", err)
		return
	}
	if res.MatchedCount == 0 {
		log.Printf("cart for user %s changed since booking %s; leaving it intact", b.UserID, b.BookingID)
	}
}

// notifyParticipants mails the renter and every item owner on confirmation.
func (h *Handler) notifyParticipants(b *models.Booking) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	ids := []string{b.UserID}
	seen := map[string]bool{b.UserID: true}
	for _, line := range b.Lines {
		if !seen[line.OwnerID] {
			seen[line.OwnerID] = true
			ids = append(ids, line.OwnerID)
		}
	}

	cur, err := db.UserCollection.Find(ctx, bson.M{"userid": bson.M{"$in": ids}})
	if err != nil {
		log.Println("notifyParticipants find error:", err)
		return
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil || u.Email == "" {
			continue
		}
		if err := mailer.SendBookingConfirmed(u.Email, b.BookingID, b.Total); err != nil {
			log.Printf("notifyParticipants mail to %s failed: %v", u.Email, err)
		}
	}
}

// loadOwnBooking fetches a booking and rejects readers other than the renter
// or an admin. Writes the error response itself; ok=false means stop.
func (h *Handler) loadOwnBooking(ctx context.Context, w http.ResponseWriter, r *http.Request, bookingID string) (*models.Booking, bool) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}

	var b models.Booking
	if err := db.BookingsCollection.FindOne(ctx, bson.M{"bookingId": bookingID}).Decode(&b); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Booking not found")
		return nil, false
	}

	if b.UserID != userID && !utils.Contains(utils.GetRolesFromRequest(r), "admin") {
		utils.RespondWithError(w, http.StatusForbidden, "Not your booking")
		return nil, false
	}
	return &b, true
}
