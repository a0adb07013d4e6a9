package client

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"zion-admin/internal/config"
)

// Dispatcher triggers the external delivery automation that sends codes
// to customers over email or WhatsApp.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload *DispatchPayload) (*DispatchResult, error)
}

type DispatchPayload struct {
	IdempotencyKey string           `json:"idempotency_key"`
	Channel        string           `json:"channel"` // email, whatsapp
	Order          DispatchOrder    `json:"order"`
	Customer       DispatchCustomer `json:"customer"`
	Items          []DispatchItem   `json:"items"`
}

type DispatchOrder struct {
	ID     uint   `json:"id"`
	Code   string `json:"code,omitempty"`
	Status string `json:"status"`
}

type DispatchCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type DispatchItem struct {
	ItemID         uint   `json:"item_id"`
	ProductName    string `json:"product_name"`
	Platform       string `json:"platform"`
	Login          string `json:"login,omitempty"`
	Password       string `json:"password,omitempty"`
	Nickname       string `json:"nickname,omitempty"`
	ActivationCode string `json:"activation_code,omitempty"`
}

type DispatchResult struct {
	OK     bool
	Status int
	Dedup  bool
}

type dispatchClientImpl struct {
	httpClient *http.Client
	webhookURL string
	hmacSecret []byte

	// in-memory idempotency cache; good enough for a single process
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDispatchClient(cfg *config.Dispatch) Dispatcher {
	return &dispatchClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		webhookURL: cfg.WebhookURL,
		hmacSecret: []byte(cfg.HMACSecret),
		seen:       make(map[string]struct{}),
	}
}

// Sign returns the hex HMAC-SHA256 of raw under the shared secret. The
// same signature scheme covers outbound dispatches and inbound status
// callbacks.
func Sign(secret []byte, raw []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(raw)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature does a constant-time comparison of the provided hex
// signature against the expected one.
func VerifySignature(secret []byte, raw []byte, provided string) bool {
	if len(secret) == 0 || provided == "" {
		return false
	}
	expected := Sign(secret, raw)
	return hmac.Equal([]byte(expected), []byte(provided))
}

func (c *dispatchClientImpl) Dispatch(ctx context.Context, payload *DispatchPayload) (*DispatchResult, error) {
	if c.webhookURL == "" || len(c.hmacSecret) == 0 {
		return nil, fmt.Errorf("dispatch webhook not configured")
	}

	if payload.IdempotencyKey == "" {
		payload.IdempotencyKey = uuid.NewString()
	}

	c.mu.Lock()
	_, dup := c.seen[payload.IdempotencyKey]
	c.mu.Unlock()
	if dup {
		return &DispatchResult{OK: true, Status: http.StatusOK, Dedup: true}, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal dispatch payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", Sign(c.hmacSecret, body))
	req.Header.Set("Idempotency-Key", payload.IdempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dispatch request failed: %w", err)
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if ok {
		c.mu.Lock()
		c.seen[payload.IdempotencyKey] = struct{}{}
		c.mu.Unlock()
	}

	return &DispatchResult{OK: ok, Status: resp.StatusCode}, nil
}
