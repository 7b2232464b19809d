package payments

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentora/db"
	"rentora/models"
	"rentora/paypal"
	"rentora/utils"
)

// Handler serves merchant onboarding for item owners.
type Handler struct {
	Gateway *paypal.Client
}

func NewHandler(gw *paypal.Client) *Handler {
	return &Handler{Gateway: gw}
}

// StartOnboarding creates (or reuses) the owner's PaymentDetails record and
// returns the PayPal action URL the owner must visit to grant consent.
//
// POST /api/payments/onboarding
func (h *Handler) StartOnboarding(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var user models.User
	if err := db.UserCollection.FindOne(ctx, bson.M{"userid": userID}).Decode(&user); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	var pd models.PaymentDetails
	err := db.PaymentDetailsCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&pd)
	if err == mongo.ErrNoDocuments {
		pd = models.PaymentDetails{
			UserID:     userID,
			MerchantID: utils.GetUUID(),
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		if _, err := db.PaymentDetailsCollection.InsertOne(ctx, pd); err != nil {
			log.Println("StartOnboarding insert error:", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to start onboarding")
			return
		}
	} else if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load payment details")
		return
	}

	actionURL, err := h.Gateway.CreatePartnerReferral(ctx, pd.MerchantID, user.Email)
	if err != nil {
		var ge *paypal.GatewayError
		if errors.As(err, &ge) {
			utils.RespondWithJSON(w, http.StatusBadGateway, utils.M{
				"error":          "onboarding failed",
				"gatewayStatus":  ge.Status,
				"gatewayMessage": ge.Message,
			})
			return
		}
		utils.RespondWithError(w, http.StatusBadGateway, "payment gateway unreachable")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"merchantId": pd.MerchantID,
		"actionUrl":  actionURL,
	})
}

// CompleteOnboarding stores the PayPal merchant id and consent flags after
// the seller returns from the PayPal flow (or via the partner webhook relay).
//
// PUT /api/payments/onboarding
func (h *Handler) CompleteOnboarding(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var payload struct {
		MerchantIDInPayPal    string `json:"merchantIdInPayPal"`
		PaymentsReceivable    bool   `json:"paymentsReceivable"`
		PrimaryEmailConfirmed bool   `json:"primaryEmailConfirmed"`
		ConsentGranted        bool   `json:"consentGranted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.MerchantIDInPayPal == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "merchantIdInPayPal is required")
		return
	}

	update := bson.M{"$set": bson.M{
		"merchantIdInPayPal":    payload.MerchantIDInPayPal,
		"paymentsReceivable":    payload.PaymentsReceivable,
		"primaryEmailConfirmed": payload.PrimaryEmailConfirmed,
		"consentGranted":        payload.ConsentGranted,
		"updatedAt":             time.Now(),
	}}

	res, err := db.PaymentDetailsCollection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	if err != nil {
		log.Println("CompleteOnboarding update error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save merchant link")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Onboarding was never started")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "linked"})
}

// GetStatus reports whether the owner can receive checkout funds.
//
// GET /api/payments/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var pd models.PaymentDetails
	err := db.PaymentDetailsCollection.FindOne(ctx, bson.M{"userId": userID},
		options.FindOne().SetProjection(bson.M{"_id": 0})).Decode(&pd)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"linked": false})
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load payment details")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"linked":  pd.Payable(),
		"details": pd,
	})
}
