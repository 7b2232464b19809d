package profile

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"

	"rentora/db"
	"rentora/models"
	"rentora/rdx"
	"rentora/utils"
)

const profileCacheTTL = 5 * time.Minute

func cacheKey(userID string) string { return "profile:" + userID }

// publicProfile is the subset of a user other people may see.
type publicProfile struct {
	UserID           string    `json:"userid"`
	Username         string    `json:"username"`
	Name             string    `json:"name,omitempty"`
	Avatar           string    `json:"avatar,omitempty"`
	DocumentVerified bool      `json:"documentVerified"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toPublic(u *models.User) publicProfile {
	return publicProfile{
		UserID:           u.UserID,
		Username:         u.Username,
		Name:             u.Name,
		Avatar:           u.Avatar,
		DocumentVerified: u.DocumentVerified,
		CreatedAt:        u.CreatedAt,
	}
}

func invalidateCache(userID string) {
	if err := rdx.RdxDel(cacheKey(userID)); err != nil {
		log.Println("profile cache invalidate:", err)
	}
}

// GetProfile returns another user's public profile, served from the
// redis cache when warm.
//
// GET /api/users/:userid
func GetProfile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := ps.ByName("userid")

	if cached, err := rdx.RdxGet(cacheKey(userID)); err == nil && cached != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(cached))
		return
	}

	var user models.User
	if err := db.UserCollection.FindOne(ctx, bson.M{"userid": userID}).Decode(&user); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	pub := toPublic(&user)
	if data, err := json.Marshal(pub); err == nil {
		if err := rdx.RdxSetWithTTL(cacheKey(userID), string(data), profileCacheTTL); err != nil {
			log.Println("profile cache set:", err)
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, pub)
}

// GetMyProfile returns the caller's full account record.
//
// GET /api/profile
func GetMyProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
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
	utils.RespondWithJSON(w, http.StatusOK, user)
}

// UpdateProfile changes the caller's display fields.
//
// PUT /api/profile
func UpdateProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var input struct {
		Name     *string `json:"name"`
		Username *string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	set := bson.M{"updated_at": time.Now()}
	if input.Name != nil {
		set["name"] = *input.Name
	}
	if input.Username != nil {
		if *input.Username == "" {
			utils.RespondWithError(w, http.StatusBadRequest, "username cannot be empty")
			return
		}
		set["username"] = *input.Username
	}
	if len(set) == 1 {
		utils.RespondWithError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	if _, err := db.UserCollection.UpdateOne(ctx, bson.M{"userid": userID}, bson.M{"$set": set}); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	invalidateCache(userID)
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
