package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cheikhbeye/oleashop-backend/pkg/config"
	pkgerrors "github.com/cheikhbeye/oleashop-backend/pkg/errors"
)

const requestPaymentPath = "/payment/request-payment"

var (
	errBaseURLRequired = errors.New("payment base url is required")
	errAPIKeyRequired  = errors.New("payment api key is required")
)

// RequestPayment is the payload sent to the provider when opening a
// redirect-based payment session.
type RequestPayment struct {
	Reference string  `json:"ref_command"`
	ItemName  string  `json:"item_name"`
	Amount    float64 `json:"item_price"`
	Currency  string  `json:"currency"`
}

// Session is the provider response the shopper gets redirected with.
type Session struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type requestBody struct {
	RequestPayment
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
	IPNURL     string `json:"ipn_url"`
}

type responseBody struct {
	Success     int    `json:"success"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
	Message     string `json:"message"`
}

// Client talks to the hosted payment page provider. The provider model is
// redirect-based: we open a session, send the shopper to RedirectURL, and
// the provider confirms through the IPN callback.
type Client struct {
	cfg  config.PaymentConfig
	http *http.Client
}

// NewClient validates the configured credentials and returns a ready client.
func NewClient(cfg config.PaymentConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errBaseURLRequired
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errAPIKeyRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}, nil
}

// OpenSession asks the provider for a redirect URL for the given payment.
func (c *Client) OpenSession(ctx context.Context, req RequestPayment) (*Session, error) {
	if strings.TrimSpace(req.Reference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}
	if req.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	body := requestBody{
		RequestPayment: req,
		SuccessURL:     c.cfg.SuccessURL,
		CancelURL:      c.cfg.CancelURL,
		IPNURL:         c.cfg.CallbackURL,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding payment request")
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + requestPaymentPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building payment request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("API_KEY", c.cfg.APIKey)
	httpReq.Header.Set("API_SECRET", c.cfg.APISecret)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling payment provider")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading payment response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("payment provider returned status %d", resp.StatusCode))
	}

	var decoded responseBody
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding payment response")
	}
	if decoded.Success != 1 || decoded.RedirectURL == "" {
		msg := decoded.Message
		if msg == "" {
			msg = "payment session rejected"
		}
		return nil, pkgerrors.New(pkgerrors.CodeDependency, msg)
	}

	return &Session{Token: decoded.Token, RedirectURL: decoded.RedirectURL}, nil
}

// Callback is the IPN form the provider posts once a payment settles.
type Callback struct {
	Event        string
	Reference    string
	Token        string
	KeyDigest    string
	SecretDigest string
}

// EventSaleComplete is the only IPN event that marks an order paid.
const EventSaleComplete = "sale_complete"

// ParseCallback reads the IPN form fields from the provider request.
func ParseCallback(r *http.Request) (Callback, error) {
	if err := r.ParseForm(); err != nil {
		return Callback{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing payment callback")
	}
	cb := Callback{
		Event:        r.PostFormValue("type_event"),
		Reference:    r.PostFormValue("ref_command"),
		Token:        r.PostFormValue("token"),
		KeyDigest:    r.PostFormValue("api_key_sha256"),
		SecretDigest: r.PostFormValue("api_secret_sha256"),
	}
	if cb.Reference == "" {
		return Callback{}, pkgerrors.New(pkgerrors.CodeValidation, "payment callback missing reference")
	}
	return cb, nil
}

// VerifyCallback checks the sha256 digests the provider sends against the
// configured credentials. The provider has no shared callback secret beyond
// these.
func (c *Client) VerifyCallback(cb Callback) bool {
	return digestMatches(cb.KeyDigest, c.cfg.APIKey) &&
		digestMatches(cb.SecretDigest, c.cfg.APISecret)
}

func digestMatches(got, secret string) bool {
	want := sha256.Sum256([]byte(secret))
	decoded, err := hex.DecodeString(strings.TrimSpace(got))
	if err != nil {
		return false
	}
	return hmac.Equal(decoded, want[:])
}
