package dto

import (
	"github.com/shopspring/decimal"
)

// -------- catalog --------

type GameCreateRequest struct {
	Name  string          `json:"name" validate:"required"`
	Price decimal.Decimal `json:"price"`

	SKUPS4  string `json:"sku_ps4"`
	SKUPS4s string `json:"sku_ps4s"`
	SKUPS5  string `json:"sku_ps5"`
	SKUPS5s string `json:"sku_ps5s"`

	QtyPS4  int `json:"qty_ps4" validate:"gte=0"`
	QtyPS4s int `json:"qty_ps4s" validate:"gte=0"`
	QtyPS5  int `json:"qty_ps5" validate:"gte=0"`
	QtyPS5s int `json:"qty_ps5s" validate:"gte=0"`
}

type GameUpdateRequest struct {
	Name  *string          `json:"name"`
	Price *decimal.Decimal `json:"price"`

	SKUPS4  *string `json:"sku_ps4"`
	SKUPS4s *string `json:"sku_ps4s"`
	SKUPS5  *string `json:"sku_ps5"`
	SKUPS5s *string `json:"sku_ps5s"`

	QtyPS4  *int `json:"qty_ps4" validate:"omitempty,gte=0"`
	QtyPS4s *int `json:"qty_ps4s" validate:"omitempty,gte=0"`
	QtyPS5  *int `json:"qty_ps5" validate:"omitempty,gte=0"`
	QtyPS5s *int `json:"qty_ps5s" validate:"omitempty,gte=0"`
}

type GameResponse struct {
	ID string `json:"id"`
	// Cod is a display sequence (1..N over the catalog sorted by name),
	// recomputed per response, never persisted.
	Cod   int             `json:"cod"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`

	SKUPS4  string `json:"sku_ps4,omitempty"`
	SKUPS4s string `json:"sku_ps4s,omitempty"`
	SKUPS5  string `json:"sku_ps5,omitempty"`
	SKUPS5s string `json:"sku_ps5s,omitempty"`

	QtyPS4  int `json:"qty_ps4"`
	QtyPS4s int `json:"qty_ps4s"`
	QtyPS5  int `json:"qty_ps5"`
	QtyPS5s int `json:"qty_ps5s"`

	Accounts []AccountResponse `json:"accounts,omitempty"`
}

type AccountCreateRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Nickname string   `json:"nickname"`
	Password string   `json:"password"`
	Media    string   `json:"media" validate:"required,oneof=PRIMARY SECONDARY"`
	Platform string   `json:"platform" validate:"required,oneof=PS4 PS4s PS5 PS5s"`
	Codes    []string `json:"codes"`
}

type AccountUpdateRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Nickname *string `json:"nickname"`
	Password *string `json:"password"`
	Media    *string `json:"media" validate:"omitempty,oneof=PRIMARY SECONDARY"`
	Platform *string `json:"platform" validate:"omitempty,oneof=PS4 PS4s PS5 PS5s"`
}

type AccountResponse struct {
	ID        string   `json:"id"`
	GameID    string   `json:"game_id"`
	Email     string   `json:"email"`
	Nickname  string   `json:"nickname,omitempty"`
	Media     string   `json:"media"`
	Platform  string   `json:"platform"`
	CodeCount int      `json:"code_count"`
	Codes     []string `json:"codes,omitempty"`
}

type AppendCodesRequest struct {
	Codes []string `json:"codes" validate:"required,min=1,dive,required"`
}

type ResolveResponse struct {
	GameID   string `json:"game_id"`
	GameName string `json:"game_name"`
	Platform string `json:"platform"`
	SKU      string `json:"sku"`
}

type AllocateRequest struct {
	SKU     string `json:"sku" validate:"required"`
	Media   string `json:"media" validate:"required,oneof=PRIMARY SECONDARY"`
	Consume bool   `json:"consume"`
}

// AllocateResponse carries a credential snapshot; Code is empty when the
// selected pool had nothing left.
type AllocateResponse struct {
	GameID    string `json:"game_id"`
	GameName  string `json:"game_name"`
	Platform  string `json:"platform"`
	AccountID string `json:"account_id,omitempty"`
	Login     string `json:"login,omitempty"`
	Password  string `json:"password,omitempty"`
	Nickname  string `json:"nickname,omitempty"`
	Code      string `json:"code,omitempty"`
	Remaining int    `json:"remaining"`
	Consumed  bool   `json:"consumed"`
}

type ConsumeBySKURequest struct {
	SKU string `json:"sku" validate:"required"`
}

// -------- orders --------

type OrderCreateRequest struct {
	Code          string `json:"code"`
	Status        string `json:"status"`
	OrderDate     string `json:"order_date" validate:"required"`
	CustomerName  string `json:"customer_name" validate:"required"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	CustomerPhone string `json:"customer_phone"`
}

type OrderUpdateRequest struct {
	Code          *string `json:"code"`
	Status        *string `json:"status"`
	OrderDate     *string `json:"order_date"`
	CustomerName  *string `json:"customer_name"`
	CustomerEmail *string `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone *string `json:"customer_phone"`
}

type OrderResponse struct {
	ID            uint           `json:"id"`
	Code          string         `json:"code,omitempty"`
	Status        string         `json:"status"`
	OrderDate     string         `json:"order_date"`
	CustomerName  string         `json:"customer_name"`
	CustomerEmail string         `json:"customer_email"`
	CustomerPhone string         `json:"customer_phone,omitempty"`
	Shipped       bool           `json:"shipped"`
	ShippedAt     *string        `json:"shipped_at,omitempty"`
	Items         []ItemResponse `json:"items,omitempty"`
}

type ItemCreateRequest struct {
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name" validate:"required"`
	Platform    string          `json:"platform" validate:"required,oneof=PS4 PS4s PS5 PS5s"`
	Quantity    int             `json:"quantity" validate:"gte=1"`
	UnitPrice   decimal.Decimal `json:"unit_price"`

	AccountEmail    string `json:"account_email"`
	AccountPassword string `json:"account_password"`
	AccountNick     string `json:"account_nick"`
	ActivationCode  string `json:"activation_code"`

	Shipped bool `json:"shipped"`
}

type ItemUpdateRequest struct {
	SKU         *string          `json:"sku"`
	ProductName *string          `json:"product_name"`
	Platform    *string          `json:"platform" validate:"omitempty,oneof=PS4 PS4s PS5 PS5s"`
	Quantity    *int             `json:"quantity" validate:"omitempty,gte=1"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`

	AccountEmail    *string `json:"account_email"`
	AccountPassword *string `json:"account_password"`
	AccountNick     *string `json:"account_nick"`
	ActivationCode  *string `json:"activation_code"`

	Shipped *bool `json:"shipped"`
}

type ItemResponse struct {
	ID          uint            `json:"id"`
	OrderID     uint            `json:"order_id"`
	SKU         string          `json:"sku,omitempty"`
	ProductName string          `json:"product_name"`
	Platform    string          `json:"platform"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`

	AccountEmail    string `json:"account_email,omitempty"`
	AccountPassword string `json:"account_password,omitempty"`
	AccountNick     string `json:"account_nick,omitempty"`
	ActivationCode  string `json:"activation_code,omitempty"`

	Shipped   bool            `json:"shipped"`
	ShippedAt *string         `json:"shipped_at,omitempty"`
	Total     decimal.Decimal `json:"total"`
}

type OrderTotalResponse struct {
	OrderID uint            `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}

// OrderGroupResponse aggregates orders sharing an external code.
type OrderGroupResponse struct {
	Code        string          `json:"code,omitempty"`
	TotalOrders int             `json:"total_orders"`
	TotalItems  int             `json:"total_items"`
	TotalValue  decimal.Decimal `json:"total_value"`
	Orders      []OrderResponse `json:"orders"`
}

// SaleCreateRequest creates an order together with its single item in
// one call.
type SaleCreateRequest struct {
	Code          string `json:"code"`
	Status        string `json:"status"`
	OrderDate     string `json:"order_date" validate:"required"`
	CustomerName  string `json:"customer_name" validate:"required"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	CustomerPhone string `json:"customer_phone"`

	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name" validate:"required"`
	Platform    string          `json:"platform" validate:"required,oneof=PS4 PS4s PS5 PS5s"`
	Quantity    int             `json:"quantity" validate:"gte=1"`
	UnitPrice   decimal.Decimal `json:"unit_price"`

	AccountEmail    string `json:"account_email"`
	AccountPassword string `json:"account_password"`
	AccountNick     string `json:"account_nick"`
	ActivationCode  string `json:"activation_code"`
	Shipped         bool   `json:"shipped"`
}

type SaleResponse struct {
	Order OrderResponse `json:"order"`
	Item  ItemResponse  `json:"item"`
}

type CustomerResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// -------- fulfillment --------

type FulfillPreviewRequest struct {
	OrderID uint `json:"order_id" validate:"required"`
}

type DispatchRequest struct {
	OrderID uint   `json:"order_id" validate:"required"`
	Channel string `json:"channel" validate:"required,oneof=email whatsapp"`
}

type ItemWarning struct {
	ItemID  uint   `json:"item_id"`
	Message string `json:"message"`
}

type DispatchResponse struct {
	OK       bool          `json:"ok"`
	Status   int           `json:"status"`
	Dedup    bool          `json:"dedup,omitempty"`
	Warnings []ItemWarning `json:"warnings,omitempty"`
}

type SendItemEmailRequest struct {
	ItemID       uint   `json:"item_id" validate:"required"`
	To           string `json:"to" validate:"required"`
	CustomerName string `json:"customer_name"`
	OrderCode    string `json:"order_code"`
	Game         string `json:"game"`
	TemplateType string `json:"template_type"`
	Login        string `json:"login"`
	Password     string `json:"password"`
	Code         string `json:"code"`
}

type StatusCallbackRequest struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// -------- snapshot --------

type SnapshotImportResponse struct {
	Version  int  `json:"version"`
	Games    int  `json:"games"`
	Accounts int  `json:"accounts"`
	Codes    int  `json:"codes"`
	Corrupt  bool `json:"corrupt,omitempty"`
}

// -------- promotions --------

type PromoStatusResponse struct {
	OK          bool   `json:"ok"`
	CacheAgeMin *int   `json:"cache_age_min"`
	Count       int    `json:"count"`
	FeedURL     string `json:"feed_url,omitempty"`
}

type PromoRefreshResponse struct {
	OK          bool   `json:"ok"`
	Count       int    `json:"count"`
	Error       string `json:"error,omitempty"`
	CachedCount int    `json:"cached_count,omitempty"`
}
