// Package payapi is an HTTP client for the upstream payment gateway. It
// covers the recipient book, the user's card list, and the two-phase
// prepay/pay transfer flow.
package payapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/muzaffarq/paygent/internal/domain"
	"github.com/muzaffarq/paygent/internal/logging"
)

const defaultTimeout = 30 * time.Second

// Client talks to the payment gateway. All calls are authenticated with the
// caller's bearer token; the client itself holds no credentials.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logging.Logger
}

// NewClient creates a gateway client rooted at baseURL, e.g.
// "https://pay.sello.uz/api/v1". A zero timeout falls back to the default.
func NewClient(baseURL string, timeout time.Duration, log *logging.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log.Sub("payapi"),
	}
}

// PrepayRequest initiates a transfer. Amount is in whole currency units;
// the wire format wants the minor unit.
type PrepayRequest struct {
	Amount       float64
	RecipientID  string
	RecipientPAN string
	SenderCardID string
}

// PrepayResponse carries the payment id the second phase confirms against.
// An accepted prepay without an id is a gateway contract violation; the
// caller decides how to treat it.
type PrepayResponse struct {
	ID string `json:"id"`
}

// ListRecipients fetches the user's saved recipients.
func (c *Client) ListRecipients(ctx context.Context, token string) ([]domain.Recipient, error) {
	var out []domain.Recipient
	if err := c.getJSON(ctx, token, "/transaction-service/p2p/recipient", &out); err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	return out, nil
}

// RecipientByID fetches one recipient with its full card details.
func (c *Client) RecipientByID(ctx context.Context, token, recipientID string) (domain.Recipient, error) {
	var out domain.Recipient
	if err := c.getJSON(ctx, token, "/transaction-service/p2p/recipient/"+recipientID, &out); err != nil {
		return domain.Recipient{}, fmt.Errorf("recipient by id: %w", err)
	}
	return out, nil
}

// ListCards fetches the user's funding cards. The gateway prepends a header
// row to the card array; it is dropped, and the nested currency and bank
// objects are flattened.
func (c *Client) ListCards(ctx context.Context, token, userID string) ([]domain.Card, error) {
	var raw []rawCard
	if err := c.getJSON(ctx, token, "/dashboard/card-service/card/read-by-userId/"+userID, &raw); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	cards := make([]domain.Card, 0, len(raw)-1)
	for _, item := range raw[1:] {
		cards = append(cards, domain.Card{
			ID:         item.ID,
			Holder:     item.Holder,
			Masked:     item.Masked,
			Balance:    item.Balance,
			Processing: item.Processing,
			Main:       item.Main,
			Currency:   item.Currency.Code,
			Bank:       item.Bank.Title,
		})
	}
	return cards, nil
}

// Prepay starts a transfer and returns the payment id to confirm.
func (c *Client) Prepay(ctx context.Context, token string, req PrepayRequest) (PrepayResponse, error) {
	body := map[string]any{
		"amount":   int64(math.Round(req.Amount * 100)),
		"currency": "UZS",
		"sender":   map[string]any{"id": req.SenderCardID},
		"recipient": map[string]any{
			"id":       req.RecipientID,
			"cardType": "CARD",
			"pan":      req.RecipientPAN,
		},
	}
	var out PrepayResponse
	if err := c.postJSON(ctx, token, "/transaction-service/p2p/prepay", body, &out); err != nil {
		return PrepayResponse{}, fmt.Errorf("prepay: %w", err)
	}
	return out, nil
}

// Pay confirms a prepaid transfer with the one-time code. The gateway's
// response is passed through to the caller as-is.
func (c *Client) Pay(ctx context.Context, token, paymentID, code string) (map[string]any, error) {
	body := map[string]any{
		"id":       paymentID,
		"code":     code,
		"comments": "paygent transfer",
	}
	var out map[string]any
	if err := c.postJSON(ctx, token, "/transaction-service/p2p/pay", body, &out); err != nil {
		return nil, fmt.Errorf("pay: %w", err)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, token, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, token, out)
}

func (c *Client) postJSON(ctx context.Context, token, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, token, out)
}

func (c *Client) do(req *http.Request, token string, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("gateway call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway error (%d): %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// rawCard mirrors the gateway's nested card shape.
type rawCard struct {
	ID         string `json:"id"`
	Holder     string `json:"holder"`
	Masked     string `json:"masked"`
	Balance    int64  `json:"balance"`
	Processing string `json:"processing"`
	Main       bool   `json:"main"`
	Currency   struct {
		Code string `json:"code"`
	} `json:"currency"`
	Bank struct {
		Title string `json:"title"`
	} `json:"bank"`
}
