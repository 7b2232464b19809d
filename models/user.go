package models

import "time"

type User struct {
	UserID           string    `json:"userid" bson:"userid"`
	Username         string    `json:"username" bson:"username"`
	Name             string    `json:"name,omitempty" bson:"name,omitempty"`
	Email            string    `json:"email" bson:"email"`
	Password         string    `json:"-" bson:"password"`
	Role             []string  `json:"role" bson:"role"`
	Provider         string    `json:"provider,omitempty" bson:"provider,omitempty"` // google, facebook, linkedin or empty
	Avatar           string    `json:"avatar,omitempty" bson:"avatar,omitempty"`
	EmailVerified    bool      `json:"email_verified" bson:"email_verified"`
	DocumentVerified bool      `json:"document_verified" bson:"document_verified"`
	RefreshToken     string    `json:"-" bson:"refreshtoken,omitempty"`
	RefreshExpiry    time.Time `json:"-" bson:"refreshexp,omitempty"`
	LastLogin        time.Time `json:"last_login" bson:"last_login"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}
