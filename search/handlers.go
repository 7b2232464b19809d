package search

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"

	"rentora/db"
	"rentora/models"
	"rentora/utils"
)

// SearchItems answers GET /api/search?q=. It tries the Redis inverted
// index first and falls back to the Mongo text index when Redis has
// nothing for the query.
func SearchItems(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	query := r.URL.Query().Get("q")
	if query == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "q is required")
		return
	}
	_, limit := utils.ParsePagination(r, 20, 100)

	ids, err := IndexedIDs(ctx, query, int(limit))
	if err != nil {
		log.Println("redis index lookup:", err)
	}

	var items []models.Item
	if len(ids) > 0 {
		items, err = utils.FindAndDecode[models.Item](ctx, db.ItemsCollection, bson.M{"itemId": bson.M{"$in": ids}})
	} else {
		filter := bson.M{"$text": bson.M{"$search": query}}
		items, err = utils.FindAndDecode[models.Item](ctx, db.ItemsCollection, filter)
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Search failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, items)
}

// Autocomplete answers GET /api/search/suggest?q= with item name
// completions from the Redis autocomplete set.
func Autocomplete(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names, err := SuggestNames(ctx, r.URL.Query().Get("q"), 10)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Autocomplete failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, names)
}
