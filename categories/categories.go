package categories

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"

	"rentora/db"
	"rentora/models"
	"rentora/translate"
	"rentora/utils"
)

// supportedLocales are the languages the catalog keeps localized category
// names for.
var supportedLocales = []string{"es", "fr", "de", "hi"}

// Handler carries the translation client used to localize category names.
type Handler struct {
	Translator *translate.Client
}

func NewHandler(t *translate.Client) *Handler {
	return &Handler{Translator: t}
}

// GetCategories is public: active categories for item discovery.
//
// GET /api/categories
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filter := bson.M{"active": true}
	if r.URL.Query().Get("all") == "true" {
		// Admin UI wants inactive categories too; data is not sensitive.
		filter = bson.M{}
	}

	cats, err := utils.FindAndDecode[models.Category](ctx, db.CategoriesCollection, filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not retrieve categories")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, cats)
}

// CreateCategory adds a category, localizing its name in the background.
// Admin only (enforced by route wiring).
//
// POST /api/admin/categories
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var cat models.Category
	if err := json.NewDecoder(r.Body).Decode(&cat); err != nil || strings.TrimSpace(cat.Name) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Category name is required")
		return
	}

	cat.CategoryID = utils.GenerateRandomString(12)
	cat.Active = true
	cat.CreatedAt = time.Now()

	if _, err := db.CategoriesCollection.InsertOne(ctx, cat); err != nil {
		log.Println("CreateCategory insert error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	go h.localizeName(cat.CategoryID, cat.Name)
	utils.RespondWithJSON(w, http.StatusCreated, cat)
}

// UpdateCategory edits name/subcategories/active flag. Admin only.
//
// PUT /api/admin/categories/:categoryid
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var payload struct {
		Name          *string   `json:"name"`
		SubCategories *[]string `json:"subCategories"`
		Active        *bool     `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	set := bson.M{}
	if payload.Name != nil && strings.TrimSpace(*payload.Name) != "" {
		set["name"] = *payload.Name
	}
	if payload.SubCategories != nil {
		set["subCategories"] = *payload.SubCategories
	}
	if payload.Active != nil {
		set["active"] = *payload.Active
	}
	if len(set) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	categoryID := ps.ByName("categoryid")
	res, err := db.CategoriesCollection.UpdateOne(ctx, bson.M{"categoryId": categoryID}, bson.M{"$set": set})
	if err != nil {
		log.Println("UpdateCategory update error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Category not found")
		return
	}

	if name, ok := set["name"].(string); ok {
		go h.localizeName(categoryID, name)
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// localizeName refreshes the localized names map. Runs detached; a failed
// translation just leaves that locale absent.
func (h *Handler) localizeName(categoryID, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	localized := h.Translator.LocalizeAll(ctx, name, supportedLocales)
	if len(localized) == 0 {
		return
	}

	if _, err := db.CategoriesCollection.UpdateOne(ctx,
		bson.M{"categoryId": categoryID},
		bson.M{"$set": bson.M{"localized": localized}},
	); err != nil {
		log.Println("localizeName update error:", err)
	}
}
