package paypal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestGateway(t *testing.T) (*Client, *httptest.Server, *struct {
	tokenCalls   int
	captureCalls int
	lastAuth     string
}) {
	t.Helper()

	state := &struct {
		tokenCalls   int
		captureCalls int
		lastAuth     string
	}{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			state.tokenCalls++
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok-abc",
				"expires_in":   3600,
			})
		case "/v2/checkout/orders":
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"id": "ORDER-1", "status": "CREATED"})
		case "/v2/checkout/orders/ORDER-1/capture":
			state.captureCalls++
			state.lastAuth = r.Header.Get("PayPal-Auth-Assertion")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"status": "COMPLETED"})
		case "/v2/checkout/orders/ORDER-BAD/capture":
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]any{"message": "ORDER_NOT_APPROVED"})
		default:
			http.NotFound(w, r)
		}
	}))

	c := NewWithBase(srv.URL, "client-id", "secret")
	return c, srv, state
}

func TestAccessTokenCachedUntilExpiry(t *testing.T) {
	c, srv, state := newTestGateway(t)
	defer srv.Close()

	now := time.Now()
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		tok, err := c.AccessToken(context.Background())
		if err != nil {
			t.Fatalf("AccessToken: %v", err)
		}
		if tok != "tok-abc" {
			t.Fatalf("unexpected token %q", tok)
		}
	}
	if state.tokenCalls != 1 {
		t.Fatalf("expected 1 token fetch, got %d", state.tokenCalls)
	}

	// Advance past expiry; the adapter must refresh instead of presenting a
	// stale token.
	now = now.Add(2 * time.Hour)
	if _, err := c.AccessToken(context.Background()); err != nil {
		t.Fatalf("AccessToken after expiry: %v", err)
	}
	if state.tokenCalls != 2 {
		t.Fatalf("expected refresh after expiry, got %d fetches", state.tokenCalls)
	}
}

func TestAccessTokenMissingCredentials(t *testing.T) {
	c := NewWithBase("http://127.0.0.1:0", "", "")
	if _, err := c.AccessToken(context.Background()); err == nil {
		t.Fatal("expected error with missing credentials")
	}
}

func TestCreateOrderReturnsID(t *testing.T) {
	c, srv, _ := newTestGateway(t)
	defer srv.Close()

	id, err := c.CreateOrder(context.Background(), []PurchaseUnit{
		{ReferenceID: "m1", MerchantID: "M1", Amount: 100, PlatformFee: 18},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if id != "ORDER-1" {
		t.Fatalf("unexpected order id %q", id)
	}
}

func TestCreateOrderRejectsEmptyUnits(t *testing.T) {
	c, srv, _ := newTestGateway(t)
	defer srv.Close()

	if _, err := c.CreateOrder(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty purchase units")
	}
}

func TestCaptureOrderAttachesAuthAssertion(t *testing.T) {
	c, srv, state := newTestGateway(t)
	defer srv.Close()

	status, err := c.CaptureOrder(context.Background(), "ORDER-1", "MERCH-9")
	if err != nil {
		t.Fatalf("CaptureOrder: %v", err)
	}
	if status != "COMPLETED" {
		t.Fatalf("unexpected status %q", status)
	}
	if state.lastAuth == "" {
		t.Fatal("expected PayPal-Auth-Assertion header on seller capture")
	}
	if state.lastAuth != authAssertion("client-id", "MERCH-9") {
		t.Fatalf("unexpected assertion %q", state.lastAuth)
	}
}

func TestCaptureOrderSurfacesGatewayError(t *testing.T) {
	c, srv, _ := newTestGateway(t)
	defer srv.Close()

	_, err := c.CaptureOrder(context.Background(), "ORDER-BAD", "")
	ge, ok := err.(*GatewayError)
	if !ok {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if ge.Status != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status %d", ge.Status)
	}
	if ge.Message != "ORDER_NOT_APPROVED" {
		t.Fatalf("unexpected message %q", ge.Message)
	}
}
