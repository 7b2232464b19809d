package checkout

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"rentora/db"
	"rentora/models"
	"rentora/paypal"
	"rentora/rdx"
	"rentora/utils"
)

// Handler runs checkout requests against the injected gateway.
type Handler struct {
	Gateway *paypal.Client
}

func NewHandler(gw *paypal.Client) *Handler {
	return &Handler{Gateway: gw}
}

type checkoutRequest struct {
	RequesterName string `json:"requesterName"`
}

// Checkout turns the user's cart into one multi-party gateway order and one
// pending booking.
//
// POST /api/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := WithTimeout(r.Context())
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	// One checkout per user at a time; a second concurrent request must not
	// race on the same cart.
	locked, err := rdx.AcquireLock(ctx, "checkout:"+userID, 30*time.Second)
	if err != nil {
		log.Println("Checkout lock error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Checkout unavailable")
		return
	}
	if !locked {
		utils.RespondWithError(w, http.StatusConflict, "Checkout already in progress")
		return
	}
	defer rdx.ReleaseLock(ctx, "checkout:"+userID)

	cctx, err := LoadContext(ctx, userID)
	if err != nil {
		log.Println("Checkout context error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load checkout data")
		return
	}

	if !cctx.User.DocumentVerified {
		utils.RespondWithError(w, http.StatusForbidden, "Identity documents not verified")
		return
	}
	if !strings.EqualFold(strings.TrimSpace(req.RequesterName), strings.TrimSpace(cctx.User.Name)) {
		utils.RespondWithError(w, http.StatusForbidden, "Requester name does not match account name")
		return
	}

	units, total, err := BuildPurchaseUnits(cctx.Cart.Lines, cctx.Merchants)
	if err != nil {
		var unpayable *UnpayableItemError
		switch {
		case errors.Is(err, ErrEmptyCart):
			utils.RespondWithError(w, http.StatusBadRequest, "Cart is empty")
		case errors.As(err, &unpayable):
			utils.RespondWithError(w, http.StatusBadRequest, unpayable.Error())
		default:
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	orderID, err := h.Gateway.CreateOrder(ctx, units)
	if err != nil {
		respondGatewayError(w, err)
		return
	}

	booking := buildBooking(cctx, units, total, orderID, req.RequesterName)
	if _, err := db.BookingsCollection.InsertOne(ctx, booking); err != nil {
		log.Println("Checkout booking insert error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to persist booking")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"orderId":     orderID,
		"total":       total,
		"booking":     booking,
		"merchantIds": booking.MerchantIDs,
	})
}

// buildBooking snapshots the checkout context into a pending ledger entry.
func buildBooking(cctx *Context, units []paypal.PurchaseUnit, total float64, orderID, requesterName string) models.Booking {
	lines := make([]models.BookingLine, 0, len(cctx.Cart.Lines))
	for _, l := range cctx.Cart.Lines {
		lines = append(lines, models.BookingLine{
			ItemID:     l.ItemID,
			ItemName:   l.ItemName,
			OwnerID:    l.OwnerID,
			MerchantID: cctx.Merchants[l.OwnerID].MerchantIDInPayPal,
			Price:      l.Price,
			Quantity:   l.Quantity,
			StartDate:  l.StartDate,
			EndDate:    l.EndDate,
		})
	}

	merchantIDs := make([]string, 0, len(units))
	for _, u := range units {
		merchantIDs = append(merchantIDs, u.MerchantID)
	}

	return models.Booking{
		BookingID:     utils.GenerateRandomDigitString(22),
		UserID:        cctx.User.UserID,
		RequesterName: requesterName,
		Lines:         lines,
		Total:         total,
		Status:        models.BookingPending,
		OrderID:       orderID,
		MerchantIDs:   merchantIDs,
		CartVersion:   cctx.Cart.Version,
		CreatedAt:     time.Now(),
	}
}

func respondGatewayError(w http.ResponseWriter, err error) {
	var ge *paypal.GatewayError
	if errors.As(err, &ge) {
		utils.RespondWithJSON(w, http.StatusBadGateway, utils.M{
			"error":          "payment gateway rejected the request",
			"gatewayStatus":  ge.Status,
			"gatewayMessage": ge.Message,
		})
		return
	}
	log.Println("Gateway transport error:", err)
	utils.RespondWithError(w, http.StatusBadGateway, "payment gateway unreachable")
}
