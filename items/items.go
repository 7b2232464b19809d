package items

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentora/db"
	"rentora/geo"
	"rentora/models"
	"rentora/mq"
	"rentora/utils"
)

const imageDir = "./static/itempic"

// Handler carries the geocoder so listings created with only a street
// address still get a queryable point.
type Handler struct {
	Geocoder *geo.Geocoder
}

func NewHandler(g *geo.Geocoder) *Handler {
	return &Handler{Geocoder: g}
}

// CreateItem registers a listing owned by the requesting user.
//
// POST /api/items
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var item models.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if item.Name == "" || item.Price <= 0 || item.CategoryID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "name, positive price and categoryId are required")
		return
	}

	if err := validateCategory(ctx, item.CategoryID, item.SubCategory); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if item.Location == nil && item.Address != "" {
		lng, lat, err := h.Geocoder.Resolve(ctx, item.Address)
		if err != nil {
			// Listing still works without a point; near-me search just won't
			// find it.
			log.Println("CreateItem geocode failed:", err)
		} else {
			item.Location = &models.GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
		}
	}

	item.ItemID = utils.GenerateRandomString(16)
	item.OwnerID = userID
	item.Status = models.ItemAvailable
	item.AvgRating = 0
	item.TotalReviews = 0
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt

	if _, err := db.ItemsCollection.InsertOne(ctx, item); err != nil {
		log.Println("CreateItem insert error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create item")
		return
	}

	mq.Emit(ctx, "item-created", models.Index{EntityType: "item", Method: "POST", EntityId: item.ItemID, ItemName: item.Name})
	utils.RespondWithJSON(w, http.StatusCreated, item)
}

// GetItem is public item discovery.
//
// GET /api/items/:itemid
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var item models.Item
	if err := db.ItemsCollection.FindOne(ctx, bson.M{"itemId": ps.ByName("itemid")}).Decode(&item); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Item not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, item)
}

// buildListFilter translates list query params into a Mongo filter. Mongo
// rejects $text combined with $nearSphere, so when a request carries both a
// free-text and a proximity query the proximity one wins.
func buildListFilter(r *http.Request) bson.M {
	q := r.URL.Query()
	filter := bson.M{}
	if cat := q.Get("category"); cat != "" {
		filter["categoryId"] = cat
	}
	if sub := q.Get("subCategory"); sub != "" {
		filter["subCategory"] = sub
	}
	if status := q.Get("status"); status != "" {
		filter["status"] = status
	}

	lng, okLng := utils.ParseFloatQuery(r, "lng")
	lat, okLat := utils.ParseFloatQuery(r, "lat")
	if okLng && okLat {
		maxDist, ok := utils.ParseFloatQuery(r, "maxDistance")
		if !ok {
			maxDist = 10000 // meters
		}
		filter["location"] = bson.M{
			"$nearSphere": bson.M{
				"$geometry":    bson.M{"type": "Point", "coordinates": []float64{lng, lat}},
				"$maxDistance": maxDist,
			},
		}
	} else if text := q.Get("q"); text != "" {
		filter["$text"] = bson.M{"$search": text}
	}

	return filter
}

// GetItems lists items with optional category/status filters, free-text
// search, or a geospatial near-me query (?lng=&lat=&maxDistance=meters).
//
// GET /api/items
func (h *Handler) GetItems(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := buildListFilter(r)

	skip, limit := utils.ParsePagination(r, 20, 100)
	opts := options.Find().SetSkip(skip).SetLimit(limit)
	if _, near := filter["location"]; !near {
		// $nearSphere already sorts by distance; everything else is newest first.
		opts.SetSort(bson.M{"createdAt": -1})
	}

	items, err := utils.FindAndDecode[models.Item](ctx, db.ItemsCollection, filter, opts)
	if err != nil {
		log.Println("GetItems find error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Could not retrieve items")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, items)
}

// EditItem mutates a listing; owner only.
//
// PUT /api/items/:itemid
func (h *Handler) EditItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	itemID := ps.ByName("itemid")

	item, ok := loadOwnedItem(ctx, w, itemID, userID)
	if !ok {
		return
	}

	var payload struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		SubCategory *string  `json:"subCategory"`
		Status      *string  `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if payload.Name != nil && *payload.Name != "" {
		set["name"] = *payload.Name
	}
	if payload.Description != nil {
		set["description"] = *payload.Description
	}
	if payload.Price != nil {
		if *payload.Price <= 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "price must be positive")
			return
		}
		set["price"] = *payload.Price
	}
	if payload.SubCategory != nil {
		if err := validateCategory(ctx, item.CategoryID, *payload.SubCategory); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		set["subCategory"] = *payload.SubCategory
	}
	if payload.Status != nil {
		switch *payload.Status {
		case models.ItemAvailable, models.ItemRented, models.ItemReserved:
			set["status"] = *payload.Status
		default:
			utils.RespondWithError(w, http.StatusBadRequest, "invalid status")
			return
		}
	}

	if _, err := db.ItemsCollection.UpdateOne(ctx, bson.M{"itemId": itemID}, bson.M{"$set": set}); err != nil {
		log.Println("EditItem update error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update item")
		return
	}

	if name, ok := set["name"].(string); ok {
		mq.Emit(ctx, "item-updated", models.Index{EntityType: "item", Method: "PUT", EntityId: itemID, ItemName: name})
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteItem removes a listing and its stored images; owner only.
//
// DELETE /api/items/:itemid
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	itemID := ps.ByName("itemid")

	item, ok := loadOwnedItem(ctx, w, itemID, userID)
	if !ok {
		return
	}

	if _, err := db.ItemsCollection.DeleteOne(ctx, bson.M{"itemId": itemID}); err != nil {
		log.Println("DeleteItem delete error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to delete item")
		return
	}

	// Cascading cleanup: reviews and image files go with the listing.
	if _, err := db.ReviewsCollection.DeleteMany(ctx, bson.M{"itemId": itemID}); err != nil {
		log.Println("DeleteItem review cleanup error:", err)
	}
	for _, img := range item.Images {
		if err := os.Remove(filepath.Join(imageDir, filepath.Base(img))); err != nil && !os.IsNotExist(err) {
			log.Println("DeleteItem image cleanup error:", err)
		}
	}
	if item.Thumbnail != "" {
		os.Remove(filepath.Join(imageDir, filepath.Base(item.Thumbnail)))
	}

	mq.Emit(ctx, "item-deleted", models.Index{EntityType: "item", Method: "DELETE", EntityId: itemID})
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// UploadImage attaches an image to a listing and refreshes its thumbnail.
//
// POST /api/items/:itemid/images
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	itemID := ps.ByName("itemid")

	if _, ok := loadOwnedItem(ctx, w, itemID, userID); !ok {
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Image file missing")
		return
	}
	defer file.Close()

	if !utils.ValidateImageFileType(header.Header.Get("Content-Type")) {
		utils.RespondWithError(w, http.StatusBadRequest, "Supported formats: JPEG, PNG, WebP, GIF")
		return
	}

	filename, err := utils.SaveUploadedFile(file, header.Filename, imageDir)
	if err != nil {
		log.Println("UploadImage save error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Unable to save file")
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if thumb, err := utils.CreateThumb(imageDir, filename, 300, 200); err == nil {
		set["thumbnail"] = "/static/itempic/" + thumb
	} else {
		log.Println("UploadImage thumbnail error:", err)
	}

	if _, err := db.ItemsCollection.UpdateOne(ctx,
		bson.M{"itemId": itemID},
		bson.M{"$push": bson.M{"images": "/static/itempic/" + filename}, "$set": set},
	); err != nil {
		log.Println("UploadImage update error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to attach image")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, map[string]string{"imageUrl": "/static/itempic/" + filename})
}

// loadOwnedItem fetches an item and enforces ownership. Writes the error
// response itself; ok=false means stop.
func loadOwnedItem(ctx context.Context, w http.ResponseWriter, itemID, userID string) (*models.Item, bool) {
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}

	var item models.Item
	if err := db.ItemsCollection.FindOne(ctx, bson.M{"itemId": itemID}).Decode(&item); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Item not found")
		return nil, false
	}
	if item.OwnerID != userID {
		utils.RespondWithError(w, http.StatusForbidden, "Not your item")
		return nil, false
	}
	return &item, true
}

// validateCategory checks the category exists, is active, and carries the
// subcategory when one is given.
func validateCategory(ctx context.Context, categoryID, subCategory string) error {
	var cat models.Category
	if err := db.CategoriesCollection.FindOne(ctx, bson.M{"categoryId": categoryID}).Decode(&cat); err != nil {
		return &InvalidCategoryError{CategoryID: categoryID}
	}
	if !cat.Active {
		return &InvalidCategoryError{CategoryID: categoryID}
	}
	if subCategory != "" && !utils.Contains(cat.SubCategories, subCategory) {
		return &InvalidCategoryError{CategoryID: categoryID, SubCategory: subCategory}
	}
	return nil
}

// InvalidCategoryError names the category (and subcategory) that failed
// validation.
type InvalidCategoryError struct {
	CategoryID  string
	SubCategory string
}

func (e *InvalidCategoryError) Error() string {
	if e.SubCategory != "" {
		return "unknown subcategory " + e.SubCategory + " for category " + e.CategoryID
	}
	return "unknown or inactive category " + e.CategoryID
}
