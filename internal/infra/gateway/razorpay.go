// Package gateway talks to a Razorpay-compatible payment API.
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"villa-booking/internal/pkg/config"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/usecase/commands"
)

// ErrGatewayRejected is returned for non-2xx responses. The message holds the
// provider's error description only; credentials never appear in it.
var ErrGatewayRejected = errs.New("payment gateway rejected the request")

type RazorpayClient struct {
	baseURL    string
	keyID      string
	keySecret  string
	timeout    time.Duration
	httpClient *http.Client
}

func NewRazorpayClient(cfg config.GatewayConfig) *RazorpayClient {
	transport := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 50,
		IdleConnTimeout:     90 * time.Second,
	}
	// No client-wide Timeout: every call is bounded by its own context.
	return &RazorpayClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{Transport: transport},
	}
}

type orderBody struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string   `json:"id"`
	Amount   int64    `json:"amount"`
	Currency string   `json:"currency"`
	Receipt  string   `json:"receipt"`
	Status   string   `json:"status"`
	Notes    notesMap `json:"notes"`
}

// notesMap decodes order notes. The provider sends an empty array instead of an
// empty object when an order has no notes.
type notesMap map[string]string

func (n *notesMap) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("[]")) {
		*n = nil
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*n = m
	return nil
}

type paymentResponse struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Method    string `json:"method"`
	Status    string `json:"status"`
	Captured  bool   `json:"captured"`
	CreatedAt int64  `json:"created_at"`
}

type refundBody struct {
	Amount  int64             `json:"amount"`
	Receipt string            `json:"receipt,omitempty"`
	Notes   map[string]string `json:"notes,omitempty"`
}

type refundResponse struct {
	ID          string  `json:"id"`
	PaymentID   string  `json:"payment_id"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Status      string  `json:"status"`
	Receipt     *string `json:"receipt"`
	CreatedAt   int64   `json:"created_at"`
	ProcessedAt *int64  `json:"processed_at"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, req commands.OrderRequest) (*commands.GatewayOrder, error) {
	var resp orderResponse
	body := orderBody{Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Notes: req.Notes}
	if err := c.do(ctx, http.MethodPost, "/v1/orders", body, &resp); err != nil {
		return nil, err
	}
	return resp.toOrder(), nil
}

func (c *RazorpayClient) FetchOrder(ctx context.Context, orderID string) (*commands.GatewayOrder, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodGet, "/v1/orders/"+url.PathEscape(orderID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.toOrder(), nil
}

func (r orderResponse) toOrder() *commands.GatewayOrder {
	return &commands.GatewayOrder{
		ID:       r.ID,
		Amount:   r.Amount,
		Currency: r.Currency,
		Receipt:  r.Receipt,
		Status:   r.Status,
		Notes:    r.Notes,
	}
}

func (c *RazorpayClient) FetchPayment(ctx context.Context, paymentID string) (*commands.GatewayPayment, error) {
	var resp paymentResponse
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, &resp); err != nil {
		return nil, err
	}
	return &commands.GatewayPayment{
		ID:        resp.ID,
		OrderID:   resp.OrderID,
		Amount:    resp.Amount,
		Currency:  resp.Currency,
		Method:    resp.Method,
		Status:    resp.Status,
		Captured:  resp.Captured,
		CreatedAt: fromEpoch(resp.CreatedAt),
	}, nil
}

func (c *RazorpayClient) Refund(ctx context.Context, paymentID string, req commands.RefundRequest) (*commands.GatewayRefund, error) {
	var resp refundResponse
	body := refundBody{Amount: req.Amount, Receipt: req.Receipt, Notes: req.Notes}
	if err := c.do(ctx, http.MethodPost, "/v1/payments/"+url.PathEscape(paymentID)+"/refund", body, &resp); err != nil {
		return nil, err
	}
	out := &commands.GatewayRefund{
		ID:        resp.ID,
		PaymentID: resp.PaymentID,
		Amount:    resp.Amount,
		Currency:  resp.Currency,
		Status:    resp.Status,
		Receipt:   resp.Receipt,
		CreatedAt: fromEpoch(resp.CreatedAt),
	}
	if resp.ProcessedAt != nil && *resp.ProcessedAt > 0 {
		t := fromEpoch(*resp.ProcessedAt)
		out.ProcessedAt = &t
	}
	return out, nil
}

// VerifySignature compares hex(HMAC-SHA256(secret, orderID|paymentID)) with the
// signature exactly as supplied, in constant time.
func (c *RazorpayClient) VerifySignature(orderID, paymentID, signature string) bool {
	expected := Sign(c.keySecret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign produces the checkout signature for an order and payment pair.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *RazorpayClient) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errs.Wrap(err, "failed to encode gateway request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errs.Wrap(err, "failed to build gateway request")
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Wrapf(err, "gateway %s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errs.Wrap(err, "failed to read gateway response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		_ = json.Unmarshal(raw, &e)
		slog.Warn("gateway request rejected",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"code", e.Error.Code)
		desc := e.Error.Description
		if desc == "" {
			desc = http.StatusText(resp.StatusCode)
		}
		return errs.Mark(errs.Newf("gateway returned %d: %s", resp.StatusCode, desc), ErrGatewayRejected)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errs.Wrap(err, "failed to decode gateway response")
	}
	return nil
}

func fromEpoch(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

var _ commands.PaymentGateway = (*RazorpayClient)(nil)
