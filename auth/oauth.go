package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"rentora/db"
	"rentora/models"
	"rentora/utils"
)

// oauthProvider holds the endpoints and credentials for one identity
// provider. Credentials come from <PROVIDER>_CLIENT_ID / _CLIENT_SECRET.
type oauthProvider struct {
	name       string
	tokenURL   string
	profileURL string
	clientID   string
	secret     string
}

func providerFor(name string) (*oauthProvider, bool) {
	upper := strings.ToUpper(name)
	p := &oauthProvider{
		name:     name,
		clientID: os.Getenv(upper + "_CLIENT_ID"),
		secret:   os.Getenv(upper + "_CLIENT_SECRET"),
	}
	switch name {
	case "google":
		p.tokenURL = "https://oauth2.googleapis.com/token"
		p.profileURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	case "facebook":
		p.tokenURL = "https://graph.facebook.com/v18.0/oauth/access_token"
		p.profileURL = "https://graph.facebook.com/me?fields=id,name,email"
	case "linkedin":
		p.tokenURL = "https://www.linkedin.com/oauth/v2/accessToken"
		p.profileURL = "https://api.linkedin.com/v2/userinfo"
	default:
		return nil, false
	}
	return p, true
}

type oauthProfile struct {
	ID      string `json:"id"`
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

func (p oauthProfile) externalID() string {
	if p.ID != "" {
		return p.ID
	}
	return p.Sub
}

var oauthHTTP = &http.Client{Timeout: 15 * time.Second}

// exchangeCode trades an authorization code for the provider's access token.
func (p *oauthProvider) exchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.secret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := oauthHTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s token endpoint returned %d", p.name, resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("%s token endpoint returned no access_token", p.name)
	}
	return body.AccessToken, nil
}

// fetchProfile loads the identity behind an access token.
func (p *oauthProvider) fetchProfile(ctx context.Context, accessToken string) (*oauthProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := oauthHTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s profile endpoint returned %d", p.name, resp.StatusCode)
	}

	var profile oauthProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("%s profile has no email", p.name)
	}
	return &profile, nil
}

// OAuthLogin exchanges a provider authorization code for a local session,
// creating the account on first login. Provider accounts skip OTP since
// the provider already verified the email.
//
// POST /api/auth/oauth/:provider
func OAuthLogin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	provider, ok := providerFor(ps.ByName("provider"))
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "Unsupported provider")
		return
	}
	if provider.clientID == "" || provider.secret == "" {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Provider not configured")
		return
	}

	var input struct {
		Code        string `json:"code"`
		RedirectURI string `json:"redirectUri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Code == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "code is required")
		return
	}

	accessToken, err := provider.exchangeCode(ctx, input.Code, input.RedirectURI)
	if err != nil {
		log.Printf("OAuth %s exchange error: %v", provider.name, err)
		utils.RespondWithError(w, http.StatusBadGateway, "Provider token exchange failed")
		return
	}

	profile, err := provider.fetchProfile(ctx, accessToken)
	if err != nil {
		log.Printf("OAuth %s profile error: %v", provider.name, err)
		utils.RespondWithError(w, http.StatusBadGateway, "Provider profile fetch failed")
		return
	}

	user, err := findOrCreateOAuthUser(ctx, provider.name, profile)
	if err != nil {
		log.Println("OAuth user upsert error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	issueTokens(ctx, w, *user)
}

func findOrCreateOAuthUser(ctx context.Context, provider string, profile *oauthProfile) (*models.User, error) {
	email := strings.ToLower(profile.Email)

	var user models.User
	err := db.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == nil {
		return &user, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	user = models.User{
		UserID:        utils.GenerateRandomString(16),
		Username:      usernameFromEmail(email, profile.externalID()),
		Name:          profile.Name,
		Email:         email,
		Role:          []string{"user"},
		Provider:      provider,
		Avatar:        profile.Picture,
		EmailVerified: true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if _, err := db.UserCollection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost a race with a concurrent first login.
			err = db.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
			if err == nil {
				return &user, nil
			}
		}
		return nil, err
	}
	return &user, nil
}

func usernameFromEmail(email, externalID string) string {
	local := email
	if at := strings.Index(email, "@"); at > 0 {
		local = email[:at]
	}
	suffix := externalID
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return local + "_" + suffix
}
