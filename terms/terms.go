package terms

import (
	"context"
	"encoding/json"
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

// GetPublishedTerms returns the latest published version. Public.
//
// GET /api/terms
func GetPublishedTerms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var terms models.Terms
	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})
	err := db.TermsCollection.FindOne(ctx, bson.M{"status": models.TermsPublished}, opts).Decode(&terms)
	if err == mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusNotFound, "No published terms")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch terms")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, terms)
}

// ListVersions returns every version, drafts included. Admin only.
//
// GET /api/admin/terms
func ListVersions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "version", Value: -1}})
	versions, err := utils.FindAndDecode[models.Terms](ctx, db.TermsCollection, bson.M{}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch terms versions")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, versions)
}

// CreateDraft opens a new draft version above the current highest. Only
// one draft may exist at a time. Admin only.
//
// POST /api/admin/terms
func CreateDraft(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var input struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Content == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "content is required")
		return
	}

	count, err := db.TermsCollection.CountDocuments(ctx, bson.M{"status": models.TermsDraft})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to check drafts")
		return
	}
	if count > 0 {
		utils.RespondWithError(w, http.StatusConflict, "A draft already exists; edit or publish it first")
		return
	}

	var latest models.Terms
	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})
	if err := db.TermsCollection.FindOne(ctx, bson.M{}, opts).Decode(&latest); err != nil && err != mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch latest version")
		return
	}

	draft := models.Terms{
		Version:   latest.Version + 1,
		Status:    models.TermsDraft,
		Content:   input.Content,
		UpdatedAt: time.Now(),
	}
	if _, err := db.TermsCollection.InsertOne(ctx, draft); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create draft")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, draft)
}

// UpdateDraft replaces the current draft's content. Admin only.
//
// PUT /api/admin/terms/draft
func UpdateDraft(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var input struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Content == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "content is required")
		return
	}

	res, err := db.TermsCollection.UpdateOne(ctx,
		bson.M{"status": models.TermsDraft},
		bson.M{"$set": bson.M{"content": input.Content, "updatedAt": time.Now()}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update draft")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "No draft to update")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// PublishDraft promotes the draft to the published version readers see.
// Earlier published versions stay in the collection for the audit trail.
// Admin only.
//
// PUT /api/admin/terms/publish
func PublishDraft(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := db.TermsCollection.UpdateOne(ctx,
		bson.M{"status": models.TermsDraft},
		bson.M{"$set": bson.M{
			"status":      models.TermsPublished,
			"publishedAt": time.Now(),
			"updatedAt":   time.Now(),
		}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to publish draft")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "No draft to publish")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "published"})
}
