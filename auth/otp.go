package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"

	"rentora/db"
	"rentora/mailer"
	"rentora/rdx"
	"rentora/utils"
)

const otpTTL = 5 * time.Minute

func otpKey(email string) string { return "otp:" + email }

// sendOTP stores a fresh code in redis and mails it.
func sendOTP(email string) error {
	code := utils.GenerateRandomDigitString(6)
	if err := rdx.RdxSetWithTTL(otpKey(email), code, otpTTL); err != nil {
		return err
	}
	return mailer.SendOTP(email, code)
}

// RequestOTP re-sends a verification code to an unverified account.
//
// POST /api/auth/otp/request
func RequestOTP(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "email is required")
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	count, err := db.UserCollection.CountDocuments(ctx, bson.M{"email": email})
	if err != nil || count == 0 {
		// Same response either way so the endpoint can't be used to
		// probe which emails are registered.
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "otp_sent"})
		return
	}

	if err := sendOTP(email); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to send OTP")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "otp_sent"})
}

// VerifyOTP checks the emailed code and marks the account verified.
//
// POST /api/auth/otp/verify
func VerifyOTP(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var input struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Email == "" || input.Code == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "email and code are required")
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	stored, err := rdx.RdxGet(otpKey(email))
	if err != nil || stored == "" || stored != input.Code {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired OTP")
		return
	}

	res, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"email_verified": true, "updated_at": time.Now()}},
	)
	if err != nil || res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Account not found")
		return
	}

	rdx.RdxDel(otpKey(email))
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}
