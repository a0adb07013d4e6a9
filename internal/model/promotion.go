package model

import "github.com/shopspring/decimal"

// Promotion is one discounted storefront listing from the external
// price-tracking feed. Promotions are not persisted in the database;
// the current batch lives in a JSON cache file between refreshes.
type Promotion struct {
	Title         string           `json:"title"`
	Platform      string           `json:"platform,omitempty"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	PromoPrice    *decimal.Decimal `json:"promo_price"`
	EndsAt        string           `json:"ends_at,omitempty"`
	Link          string           `json:"link,omitempty"`
}
