package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"zion-admin/internal/model"
)

// CatalogRepository persists games, their accounts and the per-account
// FIFO code pools.
type CatalogRepository interface {
	ListGames(ctx context.Context) ([]*model.Game, error)
	FindGame(ctx context.Context, id string) (*model.Game, error)
	// FindGameBySKU matches a normalized SKU against the four slot
	// columns, earliest-created game first. Returns (nil, nil) when no
	// game matches.
	FindGameBySKU(ctx context.Context, sku string) (*model.Game, error)
	// SKUInUse reports whether any game other than excludeID already
	// holds the normalized SKU in one of its slot columns.
	SKUInUse(ctx context.Context, sku string, excludeID string) (bool, error)
	CreateGame(ctx context.Context, game *model.Game) error
	SaveGame(ctx context.Context, game *model.Game) error
	DeleteGame(ctx context.Context, id string) error

	FindAccount(ctx context.Context, id string) (*model.Account, error)
	CreateAccount(ctx context.Context, account *model.Account) error
	SaveAccount(ctx context.Context, account *model.Account) error
	DeleteAccount(ctx context.Context, id string) error

	// AppendCodes adds codes to the tail of an account's pool,
	// preserving the given order.
	AppendCodes(ctx context.Context, tx *gorm.DB, accountID string, codes []string) error
	// HeadCode returns the head of the pool without mutation, or
	// (nil, nil) when the pool is empty.
	HeadCode(ctx context.Context, accountID string) (*model.ActivationCode, error)
	// PopHead removes and returns the head of the pool, or (nil, nil)
	// when the pool is empty.
	PopHead(ctx context.Context, tx *gorm.DB, accountID string) (*model.ActivationCode, error)
	CodeCount(ctx context.Context, accountID string) (int64, error)

	// AdjustSlotQty applies delta to a game's slot counter, clamped at
	// zero.
	AdjustSlotQty(ctx context.Context, tx *gorm.DB, gameID string, platform model.Platform, delta int) error
}

type catalogRepoImpl struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepoImpl{
		db: db,
	}
}

func (r *catalogRepoImpl) ListGames(ctx context.Context) ([]*model.Game, error) {
	var games []*model.Game
	err := r.db.WithContext(ctx).
		Preload("Accounts").
		Preload("Accounts.Codes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("name ASC").
		Find(&games).Error

	if err != nil {
		return nil, err
	}

	return games, nil
}

func (r *catalogRepoImpl) FindGame(ctx context.Context, id string) (*model.Game, error) {
	var game model.Game
	err := r.db.WithContext(ctx).
		Preload("Accounts").
		Preload("Accounts.Codes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&game).Error

	if err != nil {
		return nil, err
	}

	return &game, nil
}

func (r *catalogRepoImpl) FindGameBySKU(ctx context.Context, sku string) (*model.Game, error) {
	var game model.Game
	err := r.db.WithContext(ctx).
		Preload("Accounts").
		Preload("Accounts.Codes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where(
			"skups4 = ? OR skups4s = ? OR skups5 = ? OR skups5s = ?",
			sku, sku, sku, sku,
		).
		Order("created_at ASC").
		First(&game).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &game, nil
}

func (r *catalogRepoImpl) SKUInUse(ctx context.Context, sku string, excludeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Game{}).
		Where(
			"skups4 = ? OR skups4s = ? OR skups5 = ? OR skups5s = ?",
			sku, sku, sku, sku,
		).
		Where("id <> ?", excludeID).
		Count(&count).Error

	return count > 0, err
}

func (r *catalogRepoImpl) CreateGame(ctx context.Context, game *model.Game) error {
	return r.db.WithContext(ctx).Create(game).Error
}

func (r *catalogRepoImpl) SaveGame(ctx context.Context, game *model.Game) error {
	return r.db.WithContext(ctx).Save(game).Error
}

func (r *catalogRepoImpl) DeleteGame(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&model.Game{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		// sqlite foreign keys may be off; cascade by hand
		var accountIDs []string
		if err := tx.Model(&model.Account{}).Where("game_id = ?", id).Pluck("id", &accountIDs).Error; err != nil {
			return err
		}
		if len(accountIDs) > 0 {
			if err := tx.Where("account_id IN ?", accountIDs).Delete(&model.ActivationCode{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("game_id = ?", id).Delete(&model.Account{}).Error
	})
}

func (r *catalogRepoImpl) FindAccount(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).
		Preload("Codes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&account).Error

	if err != nil {
		return nil, err
	}

	return &account, nil
}

func (r *catalogRepoImpl) CreateAccount(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *catalogRepoImpl) SaveAccount(ctx context.Context, account *model.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}

func (r *catalogRepoImpl) DeleteAccount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", id).Delete(&model.ActivationCode{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.Account{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *catalogRepoImpl) AppendCodes(ctx context.Context, tx *gorm.DB, accountID string, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	if tx == nil {
		tx = r.db
	}

	var maxPos int
	row := tx.WithContext(ctx).Model(&model.ActivationCode{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(MAX(position), 0)").
		Row()
	if err := row.Scan(&maxPos); err != nil {
		return err
	}

	rows := make([]*model.ActivationCode, len(codes))
	for i, code := range codes {
		rows[i] = &model.ActivationCode{
			AccountID: accountID,
			Position:  maxPos + i + 1,
			Code:      code,
		}
	}

	return tx.WithContext(ctx).Create(&rows).Error
}

func (r *catalogRepoImpl) HeadCode(ctx context.Context, accountID string) (*model.ActivationCode, error) {
	var code model.ActivationCode
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("position ASC").
		First(&code).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &code, nil
}

func (r *catalogRepoImpl) PopHead(ctx context.Context, tx *gorm.DB, accountID string) (*model.ActivationCode, error) {
	if tx == nil {
		tx = r.db
	}

	var code model.ActivationCode
	err := tx.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("position ASC").
		First(&code).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := tx.WithContext(ctx).Delete(&model.ActivationCode{}, code.ID).Error; err != nil {
		return nil, err
	}

	return &code, nil
}

func (r *catalogRepoImpl) CodeCount(ctx context.Context, accountID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ActivationCode{}).
		Where("account_id = ?", accountID).
		Count(&count).Error

	return count, err
}

func (r *catalogRepoImpl) AdjustSlotQty(ctx context.Context, tx *gorm.DB, gameID string, platform model.Platform, delta int) error {
	if tx == nil {
		tx = r.db
	}

	var column string
	switch platform {
	case model.PlatformPS4:
		column = "qty_ps4"
	case model.PlatformPS4s:
		column = "qty_ps4s"
	case model.PlatformPS5:
		column = "qty_ps5"
	case model.PlatformPS5s:
		column = "qty_ps5s"
	default:
		return nil
	}

	// Counter stays non-negative under any sequence of allocate/return
	// operations. CASE instead of MAX/GREATEST so sqlite and mysql both
	// accept it.
	expr := "CASE WHEN " + column + " + ? < 0 THEN 0 ELSE " + column + " + ? END"
	return tx.WithContext(ctx).Model(&model.Game{}).
		Where("id = ?", gameID).
		Update(column, gorm.Expr(expr, delta, delta)).Error
}
