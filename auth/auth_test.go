package auth

import (
	"testing"

	"rentora/middleware"
	"rentora/models"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	user := models.User{
		UserID:   "user123",
		Username: "alice",
		Role:     []string{"user", "admin"},
	}
	token, err := generateAccessToken(user)
	if err != nil {
		t.Fatalf("generateAccessToken: %v", err)
	}

	claims, err := middleware.ValidateJWT("Bearer " + token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if claims.UserID != "user123" || claims.Username != "alice" {
		t.Errorf("claims = %q/%q, want user123/alice", claims.UserID, claims.Username)
	}
	if len(claims.Role) != 2 || claims.Role[1] != "admin" {
		t.Errorf("roles = %v, want [user admin]", claims.Role)
	}
}

func TestHashTokenStable(t *testing.T) {
	a := hashToken("sometoken")
	b := hashToken("sometoken")
	if a != b {
		t.Error("hashToken is not deterministic")
	}
	if a == "sometoken" {
		t.Error("hashToken must not store the raw token")
	}
	if hashToken("other") == a {
		t.Error("distinct tokens must not collide")
	}
}

func TestUsernameFromEmail(t *testing.T) {
	got := usernameFromEmail("bob@example.com", "1234567890")
	if got != "bob_123456" {
		t.Errorf("usernameFromEmail = %q, want bob_123456", got)
	}
}
