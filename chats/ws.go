package chats

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentora/db"
	"rentora/models"
	"rentora/utils"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// inboundPayload is what connected clients send us.
type inboundPayload struct {
	Action  string `json:"action"`            // "chat" or "read"
	ID      string `json:"id,omitempty"`      // message id, for read
	Content string `json:"content,omitempty"` // for chat
}

// outboundPayload is what we broadcast to every client in the chat.
type outboundPayload struct {
	Action    string `json:"action"`
	ID        string `json:"id"`
	ChatID    string `json:"chatId,omitempty"`
	SenderID  string `json:"senderId,omitempty"`
	Content   string `json:"content,omitempty"`
	Filename  string `json:"filename,omitempty"`
	Path      string `json:"path,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// isParticipant reports whether the user belongs to the chat.
func isParticipant(ctx context.Context, chatID, userID string) bool {
	cnt, err := db.ChatsCollection.CountDocuments(ctx, bson.M{"chatId": chatID, "participants": userID})
	return err == nil && cnt > 0
}

// WebSocketHandler upgrades the connection, replays recent history and
// pumps messages through the hub.
//
// GET /ws/chats/:chatid
func WebSocketHandler(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		chatID := ps.ByName("chatid")
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		ok := isParticipant(ctx, chatID, userID)
		cancel()
		if !ok {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade:", err)
			return
		}
		client := &Client{
			Conn:   conn,
			Send:   make(chan []byte, 256),
			ChatID: chatID,
			UserID: userID,
		}

		// replay the last 30 messages, oldest first
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			opts := options.Find().
				SetSort(bson.D{{Key: "timestamp", Value: -1}}).
				SetLimit(30)

			history, err := utils.FindAndDecode[models.Message](ctx, db.MessagesCollection, bson.M{"chatId": chatID}, opts)
			if err != nil {
				log.Println("history find:", err)
				return
			}
			for i := len(history) - 1; i >= 0; i-- {
				m := history[i]
				out := outboundPayload{
					Action:    "chat",
					ID:        m.MessageID,
					ChatID:    m.ChatID,
					SenderID:  m.SenderID,
					Content:   m.Content,
					Filename:  m.Filename,
					Path:      m.Path,
					Timestamp: m.Timestamp,
				}
				if data, err := json.Marshal(out); err == nil {
					// the client may be gone before the history query
					// returns; a rejected frame means stop replaying
					if !client.trySend(data) {
						return
					}
				}
			}
		}()

		hub.register <- client
		go writePump(client)
		go readPump(client, hub)
	}
}

func writePump(c *Client) {
	defer c.Conn.Close()
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

func readPump(c *Client, hub *Hub) {
	defer func() {
		hub.unregister <- c
		c.Conn.Close()
	}()

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}

		var in inboundPayload
		if err := json.Unmarshal(raw, &in); err != nil {
			log.Println("invalid payload:", err)
			continue
		}

		switch in.Action {
		case "chat":
			if in.Content == "" {
				continue
			}
			msg, err := persistMessage(context.Background(), c.ChatID, c.UserID, in.Content, "", "")
			if err != nil {
				log.Println("insert:", err)
				continue
			}
			out := outboundPayload{
				Action:    "chat",
				ID:        msg.MessageID,
				ChatID:    msg.ChatID,
				SenderID:  msg.SenderID,
				Content:   msg.Content,
				Timestamp: msg.Timestamp,
			}
			if data, err := json.Marshal(out); err == nil {
				hub.broadcast <- broadcastMsg{ChatID: c.ChatID, Data: data}
			}

		case "read":
			if err := markMessageRead(context.Background(), c.ChatID, in.ID, c.UserID); err != nil {
				log.Println("read receipt:", err)
				continue
			}
			out := outboundPayload{
				Action:    "read",
				ID:        in.ID,
				ChatID:    c.ChatID,
				SenderID:  c.UserID,
				Timestamp: time.Now().Unix(),
			}
			if data, err := json.Marshal(out); err == nil {
				hub.broadcast <- broadcastMsg{ChatID: c.ChatID, Data: data}
			}

		default:
			log.Println("unknown action:", in.Action)
		}
	}
}
