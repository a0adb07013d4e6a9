package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"zion-admin/internal/config"
	"zion-admin/internal/model"
)

// PromoFeed fetches the current batch of storefront promotions from the
// configured upstream feed.
type PromoFeed interface {
	Fetch(ctx context.Context) ([]model.Promotion, error)
}

type promoFeedImpl struct {
	httpClient *http.Client
	feedURL    string
}

func NewPromoFeed(cfg *config.Promos) PromoFeed {
	return &promoFeedImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		feedURL: cfg.FeedURL,
	}
}

func (f *promoFeedImpl) Fetch(ctx context.Context) ([]model.Promotion, error) {
	if f.feedURL == "" {
		return nil, fmt.Errorf("promo feed URL not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status=%d", resp.StatusCode)
	}

	var promos []model.Promotion
	if err := json.NewDecoder(resp.Body).Decode(&promos); err != nil {
		return nil, fmt.Errorf("decode feed body: %w", err)
	}

	// drop rows the upstream emitted without a title, they render as blanks
	out := promos[:0]
	for _, p := range promos {
		if p.Title == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
