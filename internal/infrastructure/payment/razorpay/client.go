// Package razorpay opens payment intents through the processor's REST API
// ("orders" in the processor's vocabulary).
package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	dompay "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/payment"
)

const (
	DefaultBaseURL = "https://api.razorpay.com"
	ordersPath     = "/v1/orders"
	maxErrorBody   = 4 << 10
)

type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	// Timeout bounds one HTTP round trip. The caller's context may be shorter.
	Timeout time.Duration
}

type Client struct {
	http    *http.Client
	baseURL string
	keyID   string
	secret  string
	signer  dompay.Signer
}

var _ dompay.Gateway = (*Client)(nil)

func New(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, fmt.Errorf("razorpay: key id and secret are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		keyID:   cfg.KeyID,
		secret:  cfg.KeySecret,
		signer:  dompay.NewSigner(cfg.KeySecret),
	}, nil
}

type createOrderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateIntent opens a processor order with automatic capture. Any non-2xx
// reply, transport failure or malformed body wraps dompay.ErrGateway.
func (c *Client) CreateIntent(ctx context.Context, referenceID string, amountMinor int64, currency string) (dompay.Intent, error) {
	if amountMinor <= 0 {
		return dompay.Intent{}, dompay.ErrInvalidAmount
	}

	body, err := json.Marshal(createOrderRequest{
		Amount:         amountMinor,
		Currency:       currency,
		Receipt:        referenceID,
		PaymentCapture: 1,
	})
	if err != nil {
		return dompay.Intent{}, fmt.Errorf("%w: encode request: %w", dompay.ErrGateway, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ordersPath, bytes.NewReader(body))
	if err != nil {
		return dompay.Intent{}, fmt.Errorf("%w: build request: %w", dompay.ErrGateway, err)
	}
	req.SetBasicAuth(c.keyID, c.secret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return dompay.Intent{}, fmt.Errorf("%w: %w", dompay.ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var e errorResponse
		if json.Unmarshal(raw, &e) == nil && e.Error.Description != "" {
			return dompay.Intent{}, fmt.Errorf("%w: status %d: %s: %s", dompay.ErrGateway, resp.StatusCode, e.Error.Code, e.Error.Description)
		}
		return dompay.Intent{}, fmt.Errorf("%w: status %d", dompay.ErrGateway, resp.StatusCode)
	}

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return dompay.Intent{}, fmt.Errorf("%w: decode response: %w", dompay.ErrGateway, err)
	}
	if out.ID == "" {
		return dompay.Intent{}, fmt.Errorf("%w: response without order id", dompay.ErrGateway)
	}

	return dompay.Intent{
		ID:          out.ID,
		ReferenceID: out.Receipt,
		AmountMinor: out.Amount,
		Currency:    out.Currency,
	}, nil
}

func (c *Client) ComputeSignature(intentID, paymentID string) string {
	return c.signer.Sign(intentID, paymentID)
}

func (c *Client) VerifySignature(intentID, paymentID, signature string) bool {
	return c.signer.Verify(intentID, paymentID, signature)
}

func (c *Client) PublicKey() string { return c.keyID }
