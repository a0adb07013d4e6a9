package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"zion-admin/internal/model"
)

type OrderRepository interface {
	List(ctx context.Context) ([]*model.Order, error)
	// ListWithItems eager-loads items, optionally filtered by external
	// code, ordered by code then id for stable grouping.
	ListWithItems(ctx context.Context, code *string) ([]*model.Order, error)
	FindByID(ctx context.Context, orderID uint) (*model.Order, error)
	FindByIDWithItems(ctx context.Context, orderID uint) (*model.Order, error)
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	Save(ctx context.Context, tx *gorm.DB, order *model.Order) error
	Delete(ctx context.Context, orderID uint) error

	ListItems(ctx context.Context, orderID uint) ([]*model.OrderItem, error)
	FindItem(ctx context.Context, itemID uint) (*model.OrderItem, error)
	CreateItem(ctx context.Context, tx *gorm.DB, item *model.OrderItem) error
	SaveItem(ctx context.Context, tx *gorm.DB, item *model.OrderItem) error
	DeleteItem(ctx context.Context, tx *gorm.DB, itemID uint) error

	// RecomputeShipped re-derives the order's shipped flag from its
	// items: shipped iff the order has at least one item and every item
	// is shipped. An order with zero items is not shipped.
	RecomputeShipped(ctx context.Context, tx *gorm.DB, orderID uint) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) List(ctx context.Context) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Order("order_date DESC, id DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) ListWithItems(ctx context.Context, code *string) ([]*model.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		})
	if code != nil {
		q = q.Where("code = ?", *code)
	}

	var orders []*model.Order
	err := q.Order("code ASC, id ASC").Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByIDWithItems(ctx context.Context, orderID uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) Save(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Save(order).Error
}

func (r *orderRepoImpl) Delete(ctx context.Context, orderID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Order{}, orderID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *orderRepoImpl) ListItems(ctx context.Context, orderID uint) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *orderRepoImpl) FindItem(ctx context.Context, itemID uint) (*model.OrderItem, error) {
	var item model.OrderItem
	err := r.db.WithContext(ctx).
		Where("id = ?", itemID).
		First(&item).Error

	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *orderRepoImpl) CreateItem(ctx context.Context, tx *gorm.DB, item *model.OrderItem) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(item).Error
}

func (r *orderRepoImpl) SaveItem(ctx context.Context, tx *gorm.DB, item *model.OrderItem) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Save(item).Error
}

func (r *orderRepoImpl) DeleteItem(ctx context.Context, tx *gorm.DB, itemID uint) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).Delete(&model.OrderItem{}, itemID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepoImpl) RecomputeShipped(ctx context.Context, tx *gorm.DB, orderID uint) error {
	if tx == nil {
		tx = r.db
	}

	var order model.Order
	if err := tx.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return err
	}

	var items []*model.OrderItem
	if err := tx.WithContext(ctx).Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}

	allShipped := len(items) > 0
	for _, item := range items {
		if !item.Shipped {
			allShipped = false
			break
		}
	}

	updates := map[string]interface{}{
		"shipped":    allShipped,
		"updated_at": time.Now(),
	}
	if allShipped {
		if order.ShippedAt == nil {
			now := time.Now().UTC()
			updates["shipped_at"] = &now
		}
	} else {
		updates["shipped_at"] = nil
	}

	return tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}
