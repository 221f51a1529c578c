package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sportease/sportease/config"
	"github.com/sportease/sportease/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	c := NewClient(config.RazorpayConfig{KeyID: "key", KeySecret: "secret"})

	sig := signed("secret", "order_abc", "pay_xyz")
	assert.True(t, c.VerifySignature("order_abc", "pay_xyz", sig))
	assert.False(t, c.VerifySignature("order_abc", "pay_xyz", "deadbeef"))
	assert.False(t, c.VerifySignature("order_other", "pay_xyz", sig))
}

func TestVerifySignature_NoSecret(t *testing.T) {
	c := NewClient(config.RazorpayConfig{})
	assert.False(t, c.VerifySignature("order_abc", "pay_xyz", signed("", "order_abc", "pay_xyz")))
}

func TestConfigured(t *testing.T) {
	assert.False(t, NewClient(config.RazorpayConfig{}).Configured())
	assert.False(t, NewClient(config.RazorpayConfig{KeyID: "key"}).Configured())
	assert.True(t, NewClient(config.RazorpayConfig{KeyID: "key", KeySecret: "secret"}).Configured())
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(100000), body["amount"])
		assert.Equal(t, "INR", body["currency"])
		assert.Equal(t, "booking-1", body["receipt"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       "order_gw123",
			"amount":   100000,
			"currency": "INR",
		})
	}))
	defer srv.Close()

	c := &Client{
		hc:        &http.Client{Timeout: time.Second},
		baseURL:   srv.URL,
		keyID:     "key",
		keySecret: "secret",
	}

	order, err := c.CreateOrder(context.Background(), 100000, "booking-1", map[string]string{"bookingId": "booking-1"})
	require.NoError(t, err)
	assert.Equal(t, "order_gw123", order.ID)
	assert.Equal(t, int64(100000), order.Amount)
	assert.Equal(t, domain.OrderKindGateway, order.Kind)
}

func TestCreateOrder_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"description": "upstream down"},
		})
	}))
	defer srv.Close()

	c := &Client{
		hc:        &http.Client{Timeout: time.Second},
		baseURL:   srv.URL,
		keyID:     "key",
		keySecret: "secret",
	}

	_, err := c.CreateOrder(context.Background(), 5000, "booking-2", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestSynthesizedOrder(t *testing.T) {
	order := SynthesizedOrder("abc123", 5000)
	assert.Equal(t, "order_abc123", order.ID)
	assert.Equal(t, int64(5000), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, domain.OrderKindSynthesized, order.Kind)
}
