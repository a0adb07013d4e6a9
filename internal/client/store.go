package client

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"zion-admin/internal/config"
)

// StoreForwarder relays verified storefront webhooks to the downstream
// automation endpoint.
type StoreForwarder interface {
	Forward(ctx context.Context, body []byte) error
}

type storeForwarderImpl struct {
	httpClient  *http.Client
	forwardURL  string
	internalKey string
}

func NewStoreForwarder(cfg *config.Store) StoreForwarder {
	return &storeForwarderImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		forwardURL:  cfg.ForwardURL,
		internalKey: cfg.InternalAPIKey,
	}
}

// VerifyStoreSignature checks the storefront's base64 HMAC-SHA256
// signature over the raw body, constant-time.
func VerifyStoreSignature(secret string, raw []byte, provided string) bool {
	if secret == "" || provided == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(raw)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(provided))
}

func (f *storeForwarderImpl) Forward(ctx context.Context, body []byte) error {
	if f.forwardURL == "" {
		return fmt.Errorf("forward URL not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.forwardURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-Api-Key", f.internalKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("forward request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("forward rejected: status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}
