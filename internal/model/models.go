package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Platform identifies one of the four catalog slots. The trailing "s"
// marks the secondary-licence variant, matching the storefront SKUs.
type Platform string

const (
	PlatformPS4  Platform = "PS4"
	PlatformPS4s Platform = "PS4s"
	PlatformPS5  Platform = "PS5"
	PlatformPS5s Platform = "PS5s"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformPS4, PlatformPS4s, PlatformPS5, PlatformPS5s:
		return true
	}
	return false
}

// Media distinguishes the two licensing variants of an account.
func (p Platform) Media() Media {
	if p == PlatformPS4s || p == PlatformPS5s {
		return MediaSecondary
	}
	return MediaPrimary
}

type Media string

const (
	MediaPrimary   Media = "PRIMARY"
	MediaSecondary Media = "SECONDARY"
)

type Game struct {
	ID    string          `gorm:"primaryKey;size:36;not null"`
	Name  string          `gorm:"size:255;index;not null"`
	Price decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	// One SKU and one stock counter per platform slot. SKUs are stored
	// whitespace-stripped and are expected to be unique across the catalog.
	SKUPS4  string `gorm:"size:64;index"`
	SKUPS4s string `gorm:"size:64;index"`
	SKUPS5  string `gorm:"size:64;index"`
	SKUPS5s string `gorm:"size:64;index"`

	QtyPS4  int `gorm:"not null;default:0"`
	QtyPS4s int `gorm:"not null;default:0"`
	QtyPS5  int `gorm:"not null;default:0"`
	QtyPS5s int `gorm:"not null;default:0"`

	Accounts []Account `gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SKUFor returns the stored SKU for a platform slot.
func (g *Game) SKUFor(p Platform) string {
	switch p {
	case PlatformPS4:
		return g.SKUPS4
	case PlatformPS4s:
		return g.SKUPS4s
	case PlatformPS5:
		return g.SKUPS5
	case PlatformPS5s:
		return g.SKUPS5s
	}
	return ""
}

// QtyFor returns the stock counter for a platform slot.
func (g *Game) QtyFor(p Platform) int {
	switch p {
	case PlatformPS4:
		return g.QtyPS4
	case PlatformPS4s:
		return g.QtyPS4s
	case PlatformPS5:
		return g.QtyPS5
	case PlatformPS5s:
		return g.QtyPS5s
	}
	return 0
}

type Account struct {
	ID       string   `gorm:"primaryKey;size:36;not null"`
	GameID   string   `gorm:"size:36;index;not null"`
	Email    string   `gorm:"size:255;not null"`
	Nickname string   `gorm:"size:64"`
	Password string   `gorm:"size:255"`
	Media    Media    `gorm:"size:16;not null"`
	Platform Platform `gorm:"size:8;not null"`

	// FIFO pool; ordered by Position ascending.
	Codes []ActivationCode `gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ActivationCode struct {
	ID        uint   `gorm:"primaryKey"`
	AccountID string `gorm:"size:36;index;not null"`
	Position  int    `gorm:"index;not null"`
	Code      string `gorm:"size:64;not null"`
	CreatedAt time.Time
}

type Order struct {
	ID     uint   `gorm:"primaryKey"`
	Code   string `gorm:"size:64;index"`          // external storefront id, groups related orders
	Status string `gorm:"size:32;index;not null"` // PAID, PENDING, CANCELLED, REFUNDED

	OrderDate     string `gorm:"size:10;not null"` // yyyy-mm-dd
	CustomerName  string `gorm:"size:255;not null"`
	CustomerEmail string `gorm:"size:255;index;not null"`
	CustomerPhone string `gorm:"size:32"`

	// Derived from the items; re-derived on every item mutation.
	Shipped   bool `gorm:"not null;default:false"`
	ShippedAt *time.Time

	Items []OrderItem `gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID      uint `gorm:"primaryKey"`
	OrderID uint `gorm:"index;not null"`

	SKU         string          `gorm:"size:64"`
	ProductName string          `gorm:"size:255;not null"`
	Platform    Platform        `gorm:"size:8;not null"`
	Quantity    int             `gorm:"not null;default:1"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	// Delivered credentials: a copy taken from an account at allocation
	// time, not a live reference. SourceAccountID lets the fulfillment
	// flow consume the previewed code after dispatch is confirmed.
	AccountEmail    string `gorm:"size:255"`
	AccountPassword string `gorm:"size:255"`
	AccountNick     string `gorm:"size:64"`
	ActivationCode  string `gorm:"size:64"`
	SourceAccountID string `gorm:"size:36"`

	Shipped   bool `gorm:"not null;default:false"`
	ShippedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Total is the line total, rounded to 2 decimals at the currency boundary.
func (i *OrderItem) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).Round(2)
}

// Customer is a local cache derived from orders, upserted on every order
// create/update. Identity preference: email > phone > name.
type Customer struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"size:255"`
	Email string `gorm:"size:255;index"`
	Phone string `gorm:"size:32;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
