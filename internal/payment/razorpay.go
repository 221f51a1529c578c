package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sportease/sportease/config"
	"github.com/sportease/sportease/internal/domain"
)

const (
	ordersURL       = "https://api.razorpay.com/v1/orders"
	defaultCurrency = "INR"
)

// Order is a gateway order reference. Kind tells downstream code whether
// the order actually exists at the gateway or was synthesized locally
// because the gateway was unreachable or unconfigured.
type Order struct {
	ID       string           `json:"id"`
	Amount   int64            `json:"amount"` // minor currency units (paise)
	Currency string           `json:"currency"`
	Kind     domain.OrderKind `json:"-"`
}

// Gateway is the narrow contract the booking workflow depends on.
type Gateway interface {
	Configured() bool
	KeyID() string
	CreateOrder(ctx context.Context, amountMinor int64, receiptID string, notes map[string]string) (*Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// Client talks to the Razorpay orders API with basic auth over the
// key/secret pair. All calls are bounded by the client timeout.
type Client struct {
	hc        *http.Client
	baseURL   string
	keyID     string
	keySecret string
}

func NewClient(cfg config.RazorpayConfig) *Client {
	return &Client{
		hc:        &http.Client{Timeout: 10 * time.Second},
		baseURL:   ordersURL,
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
	}
}

func (c *Client) Configured() bool {
	return c.keyID != "" && c.keySecret != ""
}

func (c *Client) KeyID() string {
	return c.keyID
}

func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, receiptID string, notes map[string]string) (*Order, error) {
	body, err := json.Marshal(map[string]interface{}{
		"amount":          amountMinor,
		"currency":        defaultCurrency,
		"receipt":         receiptID,
		"payment_capture": 1,
		"notes":           notes,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Description string `json:"description"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error.Description != "" {
			return nil, fmt.Errorf("razorpay order failed: %s (status=%d)", apiErr.Error.Description, resp.StatusCode)
		}
		return nil, fmt.Errorf("razorpay order failed (status=%d)", resp.StatusCode)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	order.Kind = domain.OrderKindGateway
	return &order, nil
}

// VerifySignature checks the checkout callback signature: HMAC-SHA256 over
// "orderID|paymentID" keyed by the gateway secret, hex encoded. The compare
// is constant-time.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	if c.keySecret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SynthesizedOrder builds the local fallback order used when the gateway
// is unconfigured or unreachable. Its id prefix keeps it distinguishable
// from real gateway orders, and Kind marks it as untrusted for signature
// verification.
func SynthesizedOrder(bookingID string, amountMinor int64) *Order {
	return &Order{
		ID:       "order_" + bookingID,
		Amount:   amountMinor,
		Currency: defaultCurrency,
		Kind:     domain.OrderKindSynthesized,
	}
}

var _ Gateway = (*Client)(nil)
