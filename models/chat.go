package models

import "time"

// Chat is a direct conversation between two users.
type Chat struct {
	ChatID       string    `json:"chatId" bson:"chatId"`
	Participants []string  `json:"participants" bson:"participants"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	LastActivity time.Time `json:"lastActivity" bson:"lastActivity"`
}

type Message struct {
	MessageID string `json:"messageId" bson:"messageId"`
	ChatID    string `json:"chatId" bson:"chatId"`
	SenderID  string `json:"senderId" bson:"senderId"`
	Content   string `json:"content,omitempty" bson:"content,omitempty"`
	Filename  string `json:"filename,omitempty" bson:"filename,omitempty"`
	Path      string `json:"path,omitempty" bson:"path,omitempty"`
	Timestamp int64  `json:"timestamp" bson:"timestamp"`
	ReadAt    int64  `json:"readAt,omitempty" bson:"readAt,omitempty"` // unix seconds, zero until the recipient reads it
}
