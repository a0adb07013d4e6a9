package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"zion-admin/internal/dto"
	"zion-admin/internal/model"
	"zion-admin/internal/notify"
	"zion-admin/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Game{},
		&model.Account{},
		&model.ActivationCode{},
		&model.Order{},
		&model.OrderItem{},
		&model.Customer{},
		&model.WebhookEvent{},
	))
	return db
}

func newCatalogService(t *testing.T) (CatalogService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewCatalogService(db, repository.NewCatalogRepository(db), notify.NewBus()), db
}

func newOrderService(t *testing.T) (OrderService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewOrderService(db, repository.NewOrderRepository(db), repository.NewCustomerRepository(db), notify.NewBus()), db
}

// seedGame creates a game with the given slot SKUs.
func seedGame(t *testing.T, svc CatalogService, name string, skus map[string]string) *dto.GameResponse {
	t.Helper()

	req := &dto.GameCreateRequest{Name: name}
	for slot, sku := range skus {
		switch slot {
		case "PS4":
			req.SKUPS4 = sku
		case "PS4s":
			req.SKUPS4s = sku
		case "PS5":
			req.SKUPS5 = sku
		case "PS5s":
			req.SKUPS5s = sku
		}
	}

	game, err := svc.CreateGame(context.Background(), req)
	require.NoError(t, err)
	return game
}

func seedAccount(t *testing.T, svc CatalogService, gameID, email, media, platform string, codes []string) *dto.AccountResponse {
	t.Helper()

	acc, err := svc.CreateAccount(context.Background(), gameID, &dto.AccountCreateRequest{
		Email:    email,
		Media:    media,
		Platform: platform,
		Codes:    codes,
	})
	require.NoError(t, err)
	return acc
}
