package onepay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vientianelabs/khumsue-backend/pkg/config"
	"github.com/vientianelabs/khumsue-backend/pkg/logger"
)

// Client talks to the BCEL OnePay merchant API. Requests are signed with
// HMAC-SHA256 over the canonical field order; the gateway signs its callback
// the same way.
type Client struct {
	cfg        config.OnePayConfig
	httpClient *http.Client
	logg       *logger.Logger
}

func NewClient(cfg config.OnePayConfig, logg *logger.Logger) (*Client, error) {
	if cfg.MerchantID == "" {
		return nil, errors.New("onepay: merchant id is required")
	}
	if cfg.APISecret == "" {
		return nil, errors.New("onepay: api secret is required")
	}
	if logg == nil {
		return nil, errors.New("onepay: logger is required")
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logg:       logg,
	}, nil
}

// CreatePaymentInput starts a hosted payment for one order.
type CreatePaymentInput struct {
	OrderID     string
	Amount      int64
	Description string
	ReturnURL   string
}

// Payment is the gateway's handle for a started payment.
type Payment struct {
	TransactionID string `json:"transaction_id"`
	PaymentURL    string `json:"payment_url"`
	QRCode        string `json:"qr_code"`
}

type createRequest struct {
	MerchantID  string `json:"merchant_id"`
	OrderID     string `json:"order_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description,omitempty"`
	ReturnURL   string `json:"return_url,omitempty"`
	Signature   string `json:"signature"`
}

// CreatePayment registers the order with the gateway and returns the hosted
// payment URL the buyer is redirected to. Amounts are integer LAK.
func (c *Client) CreatePayment(ctx context.Context, in CreatePaymentInput) (*Payment, error) {
	if in.OrderID == "" {
		return nil, errors.New("onepay: order id is required")
	}
	if in.Amount <= 0 {
		return nil, errors.New("onepay: amount must be positive")
	}

	payload := createRequest{
		MerchantID:  c.cfg.MerchantID,
		OrderID:     in.OrderID,
		Amount:      in.Amount,
		Currency:    "LAK",
		Description: in.Description,
		ReturnURL:   in.ReturnURL,
	}
	payload.Signature = c.sign(payload.MerchantID, payload.OrderID, strconv.FormatInt(payload.Amount, 10), payload.Currency)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimSuffix(c.cfg.APIURL, "/") + "/payments"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("onepay request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("onepay create failed: %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var payment Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("onepay response decode failed: %w", err)
	}
	if payment.TransactionID == "" {
		return nil, errors.New("onepay response missing transaction id")
	}
	return &payment, nil
}

// Callback is the verdict the gateway posts back after the buyer pays.
type Callback struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Status        string `json:"status"`
	Signature     string `json:"signature"`
}

// Success reports whether the verdict is a completed payment.
func (c Callback) Success() bool {
	return strings.EqualFold(c.Status, "success")
}

// VerifyCallbackSignature recomputes the callback HMAC and compares in
// constant time. Callbacks failing this check must be discarded.
func (c *Client) VerifyCallbackSignature(cb Callback) bool {
	expected := c.sign(cb.OrderID, cb.TransactionID, strconv.FormatInt(cb.Amount, 10), cb.Status)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(cb.Signature))) == 1
}

func (c *Client) sign(fields ...string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.APISecret))
	mac.Write([]byte(strings.Join(fields, "")))
	return hex.EncodeToString(mac.Sum(nil))
}
