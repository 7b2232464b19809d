package documents

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentora/db"
	"rentora/models"
	"rentora/utils"
)

const docDir = "./static/docs"

var allowedDocTypes = []string{"passport", "license", "id_card"}

// UploadDocument accepts an identity document for verification. Each
// upload starts a fresh pending review.
//
// POST /api/documents
func UploadDocument(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
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

	docType := r.FormValue("docType")
	if !utils.Contains(allowedDocTypes, docType) {
		utils.RespondWithError(w, http.StatusBadRequest, "docType must be passport, license or id_card")
		return
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contentType := hdr.Header.Get("Content-Type")
	if !utils.ValidateImageFileType(contentType) && contentType != "application/pdf" {
		utils.RespondWithError(w, http.StatusBadRequest, "Only images and PDFs are allowed")
		return
	}

	if err := utils.EnsureDir(docDir); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to prepare storage")
		return
	}

	fn := utils.GetUUID() + filepath.Ext(utils.SanitizeFilename(hdr.Filename))
	dst, err := os.Create(filepath.Join(docDir, fn))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}

	doc := models.Document{
		DocID:     utils.GenerateRandomString(16),
		UserID:    userID,
		DocType:   docType,
		Path:      fn,
		Status:    models.DocPending,
		CreatedAt: time.Now(),
	}
	if _, err := db.DocumentsCollection.InsertOne(ctx, doc); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to store document")
		return
	}

	// a new upload supersedes a previous approval until reviewed
	_, _ = db.UserCollection.UpdateOne(ctx,
		bson.M{"userid": userID},
		bson.M{"$set": bson.M{"document_verified": false, "updated_at": time.Now()}},
	)

	utils.RespondWithJSON(w, http.StatusCreated, doc)
}

// GetMyDocuments lists the caller's uploads, newest first.
//
// GET /api/documents
func GetMyDocuments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	docs, err := utils.FindAndDecode[models.Document](ctx, db.DocumentsCollection, bson.M{"userId": userID}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch documents")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, docs)
}

// ListPending returns documents awaiting review. Admin only.
//
// GET /api/admin/documents
func ListPending(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := r.URL.Query().Get("status")
	if status == "" {
		status = models.DocPending
	}

	skip, limit := utils.ParsePagination(r, 20, 100)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)

	docs, err := utils.FindAndDecode[models.Document](ctx, db.DocumentsCollection, bson.M{"status": status}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch documents")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, docs)
}

// ReviewDocument approves or rejects a pending document. Approval marks
// the owner verified so checkout will accept them. Admin only.
//
// PUT /api/admin/documents/:docid
func ReviewDocument(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	adminID := utils.GetUserIDFromRequest(r)
	docID := ps.ByName("docid")

	decision := r.URL.Query().Get("decision")
	if decision != models.DocApproved && decision != models.DocRejected {
		utils.RespondWithError(w, http.StatusBadRequest, "decision must be approved or rejected")
		return
	}

	var doc models.Document
	if err := db.DocumentsCollection.FindOne(ctx, bson.M{"docId": docID}).Decode(&doc); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Document not found")
		return
	}
	if doc.Status != models.DocPending {
		utils.RespondWithError(w, http.StatusConflict, "Document already reviewed")
		return
	}

	if _, err := db.DocumentsCollection.UpdateOne(ctx,
		bson.M{"docId": docID, "status": models.DocPending},
		bson.M{"$set": bson.M{"status": decision, "reviewedBy": adminID}},
	); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to review document")
		return
	}

	if decision == models.DocApproved {
		if _, err := db.UserCollection.UpdateOne(ctx,
			bson.M{"userid": doc.UserID},
			bson.M{"$set": bson.M{"document_verified": true, "updated_at": time.Now()}},
		); err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to mark user verified")
			return
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": decision})
}
