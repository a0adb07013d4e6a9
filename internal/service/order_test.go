package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zion-admin/internal/dto"
	"zion-admin/pkg/apperrors"
)

func createOrder(t *testing.T, svc OrderService, code string) *dto.OrderResponse {
	t.Helper()
	order, err := svc.CreateOrder(context.Background(), &dto.OrderCreateRequest{
		Code:          code,
		OrderDate:     "2026-08-30",
		CustomerName:  "Ana Silva",
		CustomerEmail: "ana@example.com",
	})
	require.NoError(t, err)
	return order
}

func addItem(t *testing.T, svc OrderService, orderID uint, shipped bool) *dto.ItemResponse {
	t.Helper()
	item, err := svc.CreateItem(context.Background(), orderID, &dto.ItemCreateRequest{
		ProductName: "God of War",
		Platform:    "PS4",
		Quantity:    1,
		UnitPrice:   decimal.RequireFromString("19.99"),
		Shipped:     shipped,
	})
	require.NoError(t, err)
	return item
}

func TestCreateOrderDefaultsToPending(t *testing.T) {
	svc, _ := newOrderService(t)

	order := createOrder(t, svc, "EXT-1")
	assert.Equal(t, "PENDING", order.Status)
	assert.False(t, order.Shipped)
	assert.Nil(t, order.ShippedAt)
}

func TestOrderWithoutItemsIsNotShipped(t *testing.T) {
	svc, _ := newOrderService(t)
	ctx := context.Background()

	order := createOrder(t, svc, "EXT-1")

	got, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, got.Shipped)
}

func TestOrderShippedDerivedFromItems(t *testing.T) {
	svc, _ := newOrderService(t)
	ctx := context.Background()

	order := createOrder(t, svc, "EXT-1")
	addItem(t, svc, order.ID, true)
	second := addItem(t, svc, order.ID, false)

	got, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, got.Shipped)

	_, err = svc.ToggleShipped(ctx, second.ID)
	require.NoError(t, err)

	got, err = svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, got.Shipped)
	assert.NotNil(t, got.ShippedAt)

	// flipping one item back clears the derived state
	_, err = svc.ToggleShipped(ctx, second.ID)
	require.NoError(t, err)

	got, err = svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, got.Shipped)
	assert.Nil(t, got.ShippedAt)
}

func TestDeletingLastItemClearsShipped(t *testing.T) {
	svc, _ := newOrderService(t)
	ctx := context.Background()

	order := createOrder(t, svc, "EXT-1")
	item := addItem(t, svc, order.ID, true)

	got, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, got.Shipped)

	require.NoError(t, svc.DeleteItem(ctx, item.ID))

	got, err = svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, got.Shipped)
}

func TestItemTotalAndOrderTotal(t *testing.T) {
	svc, _ := newOrderService(t)
	ctx := context.Background()

	order := createOrder(t, svc, "EXT-1")

	item, err := svc.CreateItem(ctx, order.ID, &dto.ItemCreateRequest{
		ProductName: "Elden Ring",
		Platform:    "PS5",
		Quantity:    3,
		UnitPrice:   decimal.RequireFromString("19.99"),
	})
	require.NoError(t, err)
	assert.True(t, item.Total.Equal(decimal.RequireFromString("59.97")), "got %s", item.Total)

	_, err = svc.CreateItem(ctx, order.ID, &dto.ItemCreateRequest{
		ProductName: "GT7",
		Platform:    "PS5",
		Quantity:    1,
		UnitPrice:   decimal.RequireFromString("0.10"),
	})
	require.NoError(t, err)

	total, err := svc.OrderTotal(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, total.Total.Equal(decimal.RequireFromString("60.07")), "got %s", total.Total)
}

func TestCreateItemDefaultsQuantityToOne(t *testing.T) {
	svc, _ := newOrderService(t)

	order := createOrder(t, svc, "EXT-1")
	item, err := svc.CreateItem(context.Background(), order.ID, &dto.ItemCreateRequest{
		ProductName: "GT7",
		Platform:    "PS5",
		UnitPrice:   decimal.RequireFromString("9.90"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
}

func TestCreateSale(t *testing.T) {
	svc, _ := newOrderService(t)

	sale, err := svc.CreateSale(context.Background(), &dto.SaleCreateRequest{
		OrderDate:     "2026-08-30",
		CustomerName:  "Ana Silva",
		CustomerEmail: "ana@example.com",
		ProductName:   "God of War",
		Platform:      "PS4",
		Quantity:      2,
		UnitPrice:     decimal.RequireFromString("24.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "PAID", sale.Order.Status)
	assert.Equal(t, sale.Order.ID, sale.Item.OrderID)
	assert.True(t, sale.Item.Total.Equal(decimal.RequireFromString("49.00")), "got %s", sale.Item.Total)
}

func TestCustomerUpsertByEmail(t *testing.T) {
	svc, _ := newOrderService(t)
	ctx := context.Background()

	createOrder(t, svc, "EXT-1")

	_, err := svc.CreateOrder(ctx, &dto.OrderCreateRequest{
		OrderDate:     "2026-08-31",
		CustomerName:  "Ana S.",
		CustomerEmail: "ana@example.com",
	})
	require.NoError(t, err)

	customers, err := svc.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "Ana S.", customers[0].Name)
}

func TestListGrouped(t *testing.T) {
	svc, _ := newOrderService(t)
	ctx := context.Background()

	first := createOrder(t, svc, "EXT-1")
	second := createOrder(t, svc, "EXT-1")
	createOrder(t, svc, "EXT-2")

	addItem(t, svc, first.ID, false)
	addItem(t, svc, second.ID, false)

	groups, err := svc.ListGrouped(ctx, nil)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	code := "EXT-1"
	groups, err = svc.ListGrouped(ctx, &code)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].TotalOrders)
	assert.Equal(t, 2, groups[0].TotalItems)
	assert.True(t, groups[0].TotalValue.Equal(decimal.RequireFromString("39.98")), "got %s", groups[0].TotalValue)
}

func TestGetOrderNotFound(t *testing.T) {
	svc, _ := newOrderService(t)

	_, err := svc.GetOrder(context.Background(), 9999)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
}
