//go:build unit

package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"villa-booking/internal/infra/gateway"
	"villa-booking/internal/pkg/config"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/usecase/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	keyID     = "rzp_test_key"
	keySecret = "rzp_test_secret"
)

func newClient(t *testing.T, handler http.HandlerFunc) *gateway.RazorpayClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return gateway.NewRazorpayClient(config.GatewayConfig{
		BaseURL:   srv.URL + "/",
		KeyID:     keyID,
		KeySecret: keySecret,
		Timeout:   2 * time.Second,
	})
}

func assertBasicAuth(t *testing.T, r *http.Request) {
	t.Helper()
	user, pass, ok := r.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, keyID, user)
	assert.Equal(t, keySecret, pass)
}

func TestSign(t *testing.T) {
	sig := gateway.Sign(keySecret, "order_1", "pay_1")
	assert.Len(t, sig, 64)
	assert.Equal(t, strings.ToLower(sig), sig)
	assert.NotEqual(t, sig, gateway.Sign(keySecret, "order_1", "pay_2"))
	assert.NotEqual(t, sig, gateway.Sign("other", "order_1", "pay_1"))
}

func TestVerifySignature(t *testing.T) {
	client := gateway.NewRazorpayClient(config.GatewayConfig{KeySecret: keySecret, Timeout: time.Second})
	sig := gateway.Sign(keySecret, "order_1", "pay_1")

	assert.True(t, client.VerifySignature("order_1", "pay_1", sig))
	assert.False(t, client.VerifySignature("order_1", "pay_1", strings.ToUpper(sig)))
	assert.False(t, client.VerifySignature("order_1", "pay_1", " "+sig+"\n"))
	assert.False(t, client.VerifySignature("order_1", "pay_2", sig))
	assert.False(t, client.VerifySignature("order_1", "pay_1", sig[:63]+"0"))
	assert.False(t, client.VerifySignature("order_1", "pay_1", ""))
}

func TestCreateOrder(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assertBasicAuth(t, r)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(950000), body["amount"])
		assert.Equal(t, "INR", body["currency"])
		assert.Equal(t, "rcpt_1", body["receipt"])

		_, _ = w.Write([]byte(`{"id":"order_Nx1","amount":950000,"currency":"INR","receipt":"rcpt_1","status":"created"}`))
	})

	order, err := client.CreateOrder(context.Background(), commands.OrderRequest{Amount: 950000, Currency: "INR", Receipt: "rcpt_1"})
	require.NoError(t, err)
	assert.Equal(t, "order_Nx1", order.ID)
	assert.Equal(t, int64(950000), order.Amount)
	assert.Equal(t, "created", order.Status)
}

func TestFetchOrder(t *testing.T) {
	t.Run("notes object", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assertBasicAuth(t, r)
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/v1/orders/order_Nx1", r.URL.Path)
			_, _ = w.Write([]byte(`{"id":"order_Nx1","amount":950000,"currency":"INR","receipt":"rcpt_1","status":"paid",
				"notes":{"propertyId":"p-1","guests":"2"}}`))
		})

		order, err := client.FetchOrder(context.Background(), "order_Nx1")
		require.NoError(t, err)
		assert.Equal(t, "paid", order.Status)
		assert.Equal(t, int64(950000), order.Amount)
		assert.Equal(t, map[string]string{"propertyId": "p-1", "guests": "2"}, order.Notes)
	})

	t.Run("empty notes array", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"order_Nx2","amount":100,"currency":"INR","status":"created","notes":[]}`))
		})

		order, err := client.FetchOrder(context.Background(), "order_Nx2")
		require.NoError(t, err)
		assert.Empty(t, order.Notes)
	})
}

func TestFetchPayment(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assertBasicAuth(t, r)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payments/pay_Nx1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"pay_Nx1","order_id":"order_Nx1","amount":950000,"currency":"INR",
			"method":"upi","status":"captured","captured":true,"created_at":1747051200}`))
	})

	p, err := client.FetchPayment(context.Background(), "pay_Nx1")
	require.NoError(t, err)
	assert.Equal(t, "order_Nx1", p.OrderID)
	assert.Equal(t, "upi", p.Method)
	assert.True(t, p.Captured)
	assert.Equal(t, time.Unix(1747051200, 0).UTC(), p.CreatedAt)
}

func TestRefund(t *testing.T) {
	t.Run("processed", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assertBasicAuth(t, r)
			assert.Equal(t, "/v1/payments/pay_Nx1/refund", r.URL.Path)

			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(800000), body["amount"])
			assert.Equal(t, map[string]any{"reason": "plans changed"}, body["notes"])

			_, _ = w.Write([]byte(`{"id":"rfnd_1","payment_id":"pay_Nx1","amount":800000,"currency":"INR",
				"status":"processed","receipt":"bk_1","created_at":1747051200,"processed_at":1747051260}`))
		})

		rf, err := client.Refund(context.Background(), "pay_Nx1", commands.RefundRequest{
			Amount:  800000,
			Receipt: "bk_1",
			Notes:   map[string]string{"reason": "plans changed"},
		})
		require.NoError(t, err)
		assert.Equal(t, "rfnd_1", rf.ID)
		assert.Equal(t, "processed", rf.Status)
		require.NotNil(t, rf.Receipt)
		assert.Equal(t, "bk_1", *rf.Receipt)
		require.NotNil(t, rf.ProcessedAt)
		assert.Equal(t, time.Unix(1747051260, 0).UTC(), *rf.ProcessedAt)
	})

	t.Run("pending has no processed time", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"rfnd_2","payment_id":"pay_Nx1","amount":100,"status":"pending","created_at":1747051200,"processed_at":null}`))
		})

		rf, err := client.Refund(context.Background(), "pay_Nx1", commands.RefundRequest{Amount: 100})
		require.NoError(t, err)
		assert.Nil(t, rf.ProcessedAt)
	})
}

func TestRejectedRequests(t *testing.T) {
	t.Run("non-2xx carries the provider description", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The amount must be at least INR 1.00"}}`))
		})

		_, err := client.CreateOrder(context.Background(), commands.OrderRequest{Amount: 10, Currency: "INR"})
		require.Error(t, err)
		assert.True(t, errs.Is(err, gateway.ErrGatewayRejected))
		assert.Contains(t, err.Error(), "The amount must be at least INR 1.00")
		assert.NotContains(t, err.Error(), keySecret)
	})

	t.Run("empty error body falls back to the status text", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.FetchPayment(context.Background(), "pay_1")
		require.Error(t, err)
		assert.True(t, errs.Is(err, gateway.ErrGatewayRejected))
		assert.Contains(t, err.Error(), "Bad Gateway")
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		t.Cleanup(srv.Close)
		client := gateway.NewRazorpayClient(config.GatewayConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

		_, err := client.FetchPayment(context.Background(), "pay_1")
		require.Error(t, err)
		assert.True(t, errs.Is(err, context.DeadlineExceeded))
		assert.False(t, errs.Is(err, gateway.ErrGatewayRejected))
	})

	t.Run("malformed success body", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":`))
		})

		_, err := client.FetchPayment(context.Background(), "pay_1")
		assert.Error(t, err)
	})
}
