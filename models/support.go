package models

import "time"

// Ticket status values
const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketClosed     = "closed"
)

type TicketReply struct {
	AuthorID  string    `json:"authorId" bson:"authorId"`
	Body      string    `json:"body" bson:"body"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type Ticket struct {
	TicketID  string        `json:"ticketId" bson:"ticketId"`
	UserID    string        `json:"userId" bson:"userId"`
	Subject   string        `json:"subject" bson:"subject"`
	Body      string        `json:"body" bson:"body"`
	Status    string        `json:"status" bson:"status"`
	Replies   []TicketReply `json:"replies,omitempty" bson:"replies,omitempty"`
	CreatedAt time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// Terms status values
const (
	TermsDraft     = "draft"
	TermsPublished = "published"
)

type Terms struct {
	Version     int       `json:"version" bson:"version"`
	Status      string    `json:"status" bson:"status"`
	Content     string    `json:"content" bson:"content"`
	PublishedAt time.Time `json:"publishedAt,omitempty" bson:"publishedAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Document status values
const (
	DocPending  = "pending"
	DocApproved = "approved"
	DocRejected = "rejected"
)

// Document is an identity document uploaded for verification.
type Document struct {
	DocID      string    `json:"docId" bson:"docId"`
	UserID     string    `json:"userId" bson:"userId"`
	DocType    string    `json:"docType" bson:"docType"` // passport, license, id_card
	Path       string    `json:"path" bson:"path"`
	Status     string    `json:"status" bson:"status"`
	ReviewedBy string    `json:"reviewedBy,omitempty" bson:"reviewedBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}
