package tickets

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentora/db"
	"rentora/models"
	"rentora/utils"
)

// CreateTicket opens a support ticket.
//
// POST /api/tickets
func CreateTicket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var input struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Subject == "" || input.Body == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "subject and body are required")
		return
	}

	ticket := models.Ticket{
		TicketID:  utils.GenerateRandomString(16),
		UserID:    userID,
		Subject:   input.Subject,
		Body:      input.Body,
		Status:    models.TicketOpen,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if _, err := db.TicketsCollection.InsertOne(ctx, ticket); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create ticket")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, ticket)
}

// GetTickets lists the caller's tickets, or every ticket for admins
// asking with ?all=true.
//
// GET /api/tickets
func GetTickets(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	filter := bson.M{"userId": userID}
	if r.URL.Query().Get("all") == "true" && utils.Contains(utils.GetRolesFromRequest(r), "admin") {
		filter = bson.M{}
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}

	skip, limit := utils.ParsePagination(r, 20, 100)
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	tickets, err := utils.FindAndDecode[models.Ticket](ctx, db.TicketsCollection, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch tickets")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, tickets)
}

// GetTicket returns one ticket with its replies.
//
// GET /api/tickets/:ticketid
func GetTicket(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	ticket, status, msg := loadVisibleTicket(ctx, r, ps.ByName("ticketid"))
	if ticket == nil {
		utils.RespondWithError(w, status, msg)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, ticket)
}

// ReplyTicket appends a reply. Replying reopens work on a ticket: a
// reply from staff moves an open ticket to in_progress, but closed
// tickets stay closed.
//
// POST /api/tickets/:ticketid/replies
func ReplyTicket(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	ticket, status, msg := loadVisibleTicket(ctx, r, ps.ByName("ticketid"))
	if ticket == nil {
		utils.RespondWithError(w, status, msg)
		return
	}
	if ticket.Status == models.TicketClosed {
		utils.RespondWithError(w, http.StatusConflict, "Ticket is closed")
		return
	}

	var input struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Body == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "body is required")
		return
	}

	reply := models.TicketReply{
		AuthorID:  utils.GetUserIDFromRequest(r),
		Body:      input.Body,
		CreatedAt: time.Now(),
	}

	update := bson.M{
		"$push": bson.M{"replies": reply},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	if utils.Contains(utils.GetRolesFromRequest(r), "admin") && ticket.Status == models.TicketOpen {
		update["$set"] = bson.M{"updatedAt": time.Now(), "status": models.TicketInProgress}
	}

	if _, err := db.TicketsCollection.UpdateOne(ctx, bson.M{"ticketId": ticket.TicketID}, update); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to add reply")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, reply)
}

// CloseTicket marks a ticket closed. The owner or an admin may close it.
//
// PUT /api/tickets/:ticketid/close
func CloseTicket(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	ticket, status, msg := loadVisibleTicket(ctx, r, ps.ByName("ticketid"))
	if ticket == nil {
		utils.RespondWithError(w, status, msg)
		return
	}
	if ticket.Status == models.TicketClosed {
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": models.TicketClosed})
		return
	}

	if _, err := db.TicketsCollection.UpdateOne(ctx,
		bson.M{"ticketId": ticket.TicketID},
		bson.M{"$set": bson.M{"status": models.TicketClosed, "updatedAt": time.Now()}},
	); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to close ticket")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": models.TicketClosed})
}

// loadVisibleTicket fetches a ticket the caller may see: its owner or
// an admin.
func loadVisibleTicket(ctx context.Context, r *http.Request, ticketID string) (*models.Ticket, int, string) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		return nil, http.StatusUnauthorized, "Unauthorized"
	}

	var ticket models.Ticket
	if err := db.TicketsCollection.FindOne(ctx, bson.M{"ticketId": ticketID}).Decode(&ticket); err != nil {
		return nil, http.StatusNotFound, "Ticket not found"
	}
	if ticket.UserID != userID && !utils.Contains(utils.GetRolesFromRequest(r), "admin") {
		return nil, http.StatusForbidden, "Not your ticket"
	}
	return &ticket, 0, ""
}
