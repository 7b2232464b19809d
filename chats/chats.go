package chats

import (
	"context"
	"encoding/json"
	"log"
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

// persistMessage stores one message and bumps the chat's last activity.
func persistMessage(ctx context.Context, chatID, senderID, content, filename, path string) (*models.Message, error) {
	msg := models.Message{
		MessageID: utils.GenerateRandomString(16),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		Filename:  filename,
		Path:      path,
		Timestamp: time.Now().Unix(),
	}
	if _, err := db.MessagesCollection.InsertOne(ctx, msg); err != nil {
		return nil, err
	}
	if _, err := db.ChatsCollection.UpdateOne(ctx,
		bson.M{"chatId": chatID},
		bson.M{"$set": bson.M{"lastActivity": time.Now()}},
	); err != nil {
		log.Println("chat activity bump:", err)
	}
	return &msg, nil
}

// markMessageRead records a read receipt. Only messages someone else
// sent can be marked.
func markMessageRead(ctx context.Context, chatID, messageID, readerID string) error {
	_, err := db.MessagesCollection.UpdateOne(ctx,
		bson.M{
			"messageId": messageID,
			"chatId":    chatID,
			"senderId":  bson.M{"$ne": readerID},
			"readAt":    bson.M{"$in": bson.A{nil, int64(0)}},
		},
		bson.M{"$set": bson.M{"readAt": time.Now().Unix()}},
	)
	return err
}

// CreateChat opens (or returns) the conversation between the caller and
// another user, typically an item's owner.
//
// POST /api/chats
func CreateChat(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var input struct {
		ParticipantID string `json:"participantId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.ParticipantID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "participantId is required")
		return
	}
	if input.ParticipantID == userID {
		utils.RespondWithError(w, http.StatusBadRequest, "Cannot open a chat with yourself")
		return
	}

	count, err := db.UserCollection.CountDocuments(ctx, bson.M{"userid": input.ParticipantID})
	if err != nil || count == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	// one conversation per pair of users
	var chat models.Chat
	err = db.ChatsCollection.FindOne(ctx, bson.M{
		"participants": bson.M{"$all": bson.A{userID, input.ParticipantID}},
	}).Decode(&chat)
	if err == nil {
		utils.RespondWithJSON(w, http.StatusOK, chat)
		return
	}
	if err != mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to look up chat")
		return
	}

	chat = models.Chat{
		ChatID:       utils.GenerateRandomString(16),
		Participants: []string{userID, input.ParticipantID},
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
	}
	if _, err := db.ChatsCollection.InsertOne(ctx, chat); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create chat")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, chat)
}

// GetChats lists the caller's conversations, most recent activity first.
//
// GET /api/chats
func GetChats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	skip, limit := utils.ParsePagination(r, 20, 100)
	opts := options.Find().
		SetSort(bson.D{{Key: "lastActivity", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	chats, err := utils.FindAndDecode[models.Chat](ctx, db.ChatsCollection, bson.M{"participants": userID}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch chats")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, chats)
}

// GetMessages returns a page of a chat's history, newest first.
//
// GET /api/chats/:chatid/messages
func GetMessages(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	chatID := ps.ByName("chatid")
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !isParticipant(ctx, chatID, userID) {
		utils.RespondWithError(w, http.StatusForbidden, "Not a participant of this chat")
		return
	}

	skip, limit := utils.ParsePagination(r, 30, 100)
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	messages, err := utils.FindAndDecode[models.Message](ctx, db.MessagesCollection, bson.M{"chatId": chatID}, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, messages)
}

// SendMessage posts a message over plain HTTP for clients without an
// open websocket. The hub still broadcasts it to connected clients.
//
// POST /api/chats/:chatid/messages
func SendMessage(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		userID := utils.GetUserIDFromRequest(r)
		chatID := ps.ByName("chatid")
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !isParticipant(ctx, chatID, userID) {
			utils.RespondWithError(w, http.StatusForbidden, "Not a participant of this chat")
			return
		}

		var input struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Content == "" {
			utils.RespondWithError(w, http.StatusBadRequest, "content is required")
			return
		}

		msg, err := persistMessage(ctx, chatID, userID, input.Content, "", "")
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to send message")
			return
		}

		broadcastMessage(hub, msg)
		utils.RespondWithJSON(w, http.StatusCreated, msg)
	}
}

// MarkRead records a read receipt over plain HTTP.
//
// PUT /api/chats/:chatid/messages/:messageid/read
func MarkRead(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		userID := utils.GetUserIDFromRequest(r)
		chatID := ps.ByName("chatid")
		messageID := ps.ByName("messageid")
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !isParticipant(ctx, chatID, userID) {
			utils.RespondWithError(w, http.StatusForbidden, "Not a participant of this chat")
			return
		}

		if err := markMessageRead(ctx, chatID, messageID, userID); err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to mark message read")
			return
		}

		out := outboundPayload{
			Action:    "read",
			ID:        messageID,
			ChatID:    chatID,
			SenderID:  userID,
			Timestamp: time.Now().Unix(),
		}
		if data, err := json.Marshal(out); err == nil {
			hub.Broadcast(chatID, data)
		}
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "read"})
	}
}

func broadcastMessage(hub *Hub, msg *models.Message) {
	out := outboundPayload{
		Action:    "chat",
		ID:        msg.MessageID,
		ChatID:    msg.ChatID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		Filename:  msg.Filename,
		Path:      msg.Path,
		Timestamp: msg.Timestamp,
	}
	if data, err := json.Marshal(out); err == nil {
		hub.Broadcast(msg.ChatID, data)
	}
}
