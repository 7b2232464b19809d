package profile

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"

	"rentora/db"
	"rentora/utils"
)

const avatarDir = "./static/userpic"

// UploadAvatar replaces the caller's avatar. The stored path points at
// the generated thumbnail, not the raw upload.
//
// PUT /api/profile/avatar
func UploadAvatar(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	file, hdr, err := r.FormFile("avatar")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()

	if !utils.ValidateImageFileType(hdr.Header.Get("Content-Type")) {
		utils.RespondWithError(w, http.StatusBadRequest, "Unsupported image type")
		return
	}

	saved, err := utils.SaveUploadedFile(file, hdr.Filename, avatarDir)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save avatar")
		return
	}

	thumb, err := utils.CreateThumb(avatarDir, saved, 200, 200)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to process avatar")
		return
	}

	if _, err := db.UserCollection.UpdateOne(ctx,
		bson.M{"userid": userID},
		bson.M{"$set": bson.M{"avatar": thumb, "updated_at": time.Now()}},
	); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update avatar")
		return
	}

	invalidateCache(userID)
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"avatar": thumb})
}
