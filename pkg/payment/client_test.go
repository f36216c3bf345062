package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cheikhbeye/oleashop-backend/pkg/config"
	pkgerrors "github.com/cheikhbeye/oleashop-backend/pkg/errors"
)

func testConfig(baseURL string) config.PaymentConfig {
	return config.PaymentConfig{
		BaseURL:     baseURL,
		APIKey:      "key",
		APISecret:   "secret",
		SuccessURL:  "https://shop.example/merci",
		CancelURL:   "https://shop.example/panier",
		CallbackURL: "https://shop.example/api/v1/payments/callback",
		Timeout:     2 * time.Second,
	}
}

func TestOpenSessionSuccess(t *testing.T) {
	var captured requestBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != requestPaymentPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("API_KEY") != "key" || r.Header.Get("API_SECRET") != "secret" {
			t.Error("credentials not forwarded")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(responseBody{
			Success:     1,
			Token:       "tok-123",
			RedirectURL: "https://psp.example/pay/tok-123",
		})
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	session, err := client.OpenSession(context.Background(), RequestPayment{
		Reference: "CMD-2026-0001",
		ItemName:  "Commande CMD-2026-0001",
		Amount:    15000,
		Currency:  "XOF",
	})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	if session.RedirectURL != "https://psp.example/pay/tok-123" {
		t.Fatalf("unexpected redirect url %s", session.RedirectURL)
	}
	if session.Token != "tok-123" {
		t.Fatalf("unexpected token %s", session.Token)
	}
	if captured.Reference != "CMD-2026-0001" || captured.Currency != "XOF" {
		t.Fatalf("request payload not forwarded: %+v", captured)
	}
	if captured.IPNURL != "https://shop.example/api/v1/payments/callback" {
		t.Fatalf("ipn url not attached: %s", captured.IPNURL)
	}
}

func TestOpenSessionProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(responseBody{Success: 0, Message: "invalid credentials"})
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.OpenSession(context.Background(), RequestPayment{
		Reference: "CMD-1", ItemName: "x", Amount: 100, Currency: "XOF",
	})
	if err == nil {
		t.Fatal("expected rejection error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestOpenSessionUpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.OpenSession(context.Background(), RequestPayment{
		Reference: "CMD-1", ItemName: "x", Amount: 100, Currency: "XOF",
	})
	if err == nil {
		t.Fatal("expected status error")
	}
}

func TestOpenSessionValidatesInputs(t *testing.T) {
	client, err := NewClient(testConfig("https://psp.example"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	t.Run("missing reference", func(t *testing.T) {
		_, err := client.OpenSession(context.Background(), RequestPayment{Amount: 100})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
	t.Run("non positive amount", func(t *testing.T) {
		_, err := client.OpenSession(context.Background(), RequestPayment{Reference: "CMD-1"})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestNewClientValidatesConfig(t *testing.T) {
	if _, err := NewClient(config.PaymentConfig{APIKey: "key"}); err == nil {
		t.Fatal("expected base url error")
	}
	if _, err := NewClient(config.PaymentConfig{BaseURL: "https://psp.example"}); err == nil {
		t.Fatal("expected api key error")
	}
}
