package paypal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// tokenSafetyMargin is subtracted from the gateway's expires_in so a token is
// never presented right at its expiry edge.
const tokenSafetyMargin = 60 * time.Second

// PurchaseUnit routes one merchant's subtotal, with the marketplace fee
// instruction attached.
type PurchaseUnit struct {
	ReferenceID string
	MerchantID  string // merchant id in PayPal
	Amount      float64
	PlatformFee float64
	Currency    string
}

// GatewayError carries the upstream status and message for non-2xx responses.
type GatewayError struct {
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("paypal: upstream status %d: %s", e.Status, e.Message)
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

func (t cachedToken) valid(now time.Time) bool {
	return t.value != "" && now.Before(t.expiresAt)
}

// Client is the PayPal REST adapter. The bearer token is cached as a value
// with an expiry and refreshed lazily under the mutex; no module-level state.
type Client struct {
	BaseURL  string
	ClientID string
	Secret   string
	BNCode   string // partner attribution id
	HTTP     *http.Client

	mu    sync.Mutex
	token cachedToken
	now   func() time.Time
}

// New builds a client from the environment. Sandbox is the default host.
func New() *Client {
	base := os.Getenv("PAYPAL_BASE_URL")
	if base == "" {
		base = "https://api-m.sandbox.paypal.com"
	}
	return NewWithBase(base, os.Getenv("PAYPAL_CLIENT_ID"), os.Getenv("PAYPAL_SECRET"))
}

func NewWithBase(baseURL, clientID, secret string) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		ClientID: clientID,
		Secret:   secret,
		BNCode:   os.Getenv("PAYPAL_BN_CODE"),
		HTTP:     &http.Client{Timeout: 20 * time.Second},
		now:      time.Now,
	}
}

// AccessToken returns the cached bearer token or fetches a fresh one via the
// client-credentials grant.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.valid(c.now()) {
		return c.token.value, nil
	}

	if c.ClientID == "" || c.Secret == "" {
		return "", fmt.Errorf("paypal: credentials not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/v1/oauth2/token", strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.ClientID, c.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", gatewayError(resp)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}

	ttl := time.Duration(out.ExpiresIn)*time.Second - tokenSafetyMargin
	if ttl < 0 {
		ttl = 0
	}
	c.token = cachedToken{value: out.AccessToken, expiresAt: c.now().Add(ttl)}
	return c.token.value, nil
}

// CreateOrder submits one multi-party order with a purchase unit per merchant
// and returns the gateway order id.
func (c *Client) CreateOrder(ctx context.Context, units []PurchaseUnit) (string, error) {
	if len(units) == 0 {
		return "", fmt.Errorf("paypal: no purchase units")
	}

	pus := make([]map[string]any, 0, len(units))
	for _, u := range units {
		currency := u.Currency
		if currency == "" {
			currency = "USD"
		}
		pu := map[string]any{
			"reference_id": u.ReferenceID,
			"amount": map[string]any{
				"currency_code": currency,
				"value":         money(u.Amount),
			},
			"payee": map[string]any{
				"merchant_id": u.MerchantID,
			},
			"payment_instruction": map[string]any{
				"disbursement_mode": "INSTANT",
				"platform_fees": []map[string]any{
					{
						"amount": map[string]any{
							"currency_code": currency,
							"value":         money(u.PlatformFee),
						},
					},
				},
			},
		}
		pus = append(pus, pu)
	}

	body := map[string]any{
		"intent":         "CAPTURE",
		"purchase_units": pus,
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", "", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// CaptureOrder captures an approved order. A per-seller auth assertion is
// attached when sellerMerchantID is set.
func (c *Client) CaptureOrder(ctx context.Context, orderID, sellerMerchantID string) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	assertion := ""
	if sellerMerchantID != "" {
		assertion = authAssertion(c.ClientID, sellerMerchantID)
	}
	path := "/v2/checkout/orders/" + orderID + "/capture"
	if err := c.do(ctx, http.MethodPost, path, assertion, map[string]any{}, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// CreatePartnerReferral starts merchant onboarding and returns the action URL
// the seller must visit to grant consent.
func (c *Client) CreatePartnerReferral(ctx context.Context, trackingID, email string) (string, error) {
	body := map[string]any{
		"tracking_id": trackingID,
		"email":       email,
		"operations": []map[string]any{
			{
				"operation": "API_INTEGRATION",
				"api_integration_preference": map[string]any{
					"rest_api_integration": map[string]any{
						"integration_method": "PAYPAL",
						"integration_type":   "THIRD_PARTY",
						"third_party_details": map[string]any{
							"features": []string{"PAYMENT", "REFUND", "PARTNER_FEE"},
						},
					},
				},
			},
		},
		"products":       []string{"EXPRESS_CHECKOUT"},
		"legal_consents": []map[string]any{{"type": "SHARE_DATA_CONSENT", "granted": true}},
	}

	var out struct {
		Links []struct {
			Href string `json:"href"`
			Rel  string `json:"rel"`
		} `json:"links"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/customer/partner-referrals", "", body, &out); err != nil {
		return "", err
	}
	for _, l := range out.Links {
		if l.Rel == "action_url" {
			return l.Href, nil
		}
	}
	return "", fmt.Errorf("paypal: referral response missing action_url")
}

func (c *Client) do(ctx context.Context, method, path, assertion string, body, out any) error {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if c.BNCode != "" {
		req.Header.Set("PayPal-Partner-Attribution-Id", c.BNCode)
	}
	if assertion != "" {
		req.Header.Set("PayPal-Auth-Assertion", assertion)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return gatewayError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// authAssertion builds the unsigned JWS PayPal expects when acting on behalf
// of a connected seller.
func authAssertion(clientID, merchantID string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payload, _ := json.Marshal(map[string]string{
		"iss":      clientID,
		"payer_id": merchantID,
	})
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + "."
}

func gatewayError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Message != "" {
			msg = parsed.Message
		} else if parsed.Error != "" {
			msg = parsed.Error
		}
	}
	return &GatewayError{Status: resp.StatusCode, Message: msg}
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
