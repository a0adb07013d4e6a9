package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"zion-admin/internal/model"
)

type CustomerRepository interface {
	List(ctx context.Context) ([]*model.Customer, error)
	// Upsert matches an existing customer by email, then phone, then
	// name, refreshing its fields, or creates a new row.
	Upsert(ctx context.Context, tx *gorm.DB, customer *model.Customer) error
}

type customerRepoImpl struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepoImpl{
		db: db,
	}
}

func (r *customerRepoImpl) List(ctx context.Context) ([]*model.Customer, error) {
	var customers []*model.Customer
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&customers).Error

	if err != nil {
		return nil, err
	}

	return customers, nil
}

func (r *customerRepoImpl) Upsert(ctx context.Context, tx *gorm.DB, customer *model.Customer) error {
	if tx == nil {
		tx = r.db
	}

	var existing model.Customer
	var err error
	switch {
	case customer.Email != "":
		err = tx.WithContext(ctx).Where("email = ?", customer.Email).First(&existing).Error
	case customer.Phone != "":
		err = tx.WithContext(ctx).Where("phone = ?", customer.Phone).First(&existing).Error
	default:
		err = tx.WithContext(ctx).Where("name = ?", customer.Name).First(&existing).Error
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.WithContext(ctx).Create(customer).Error
	}
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if customer.Name != "" {
		updates["name"] = customer.Name
	}
	if customer.Email != "" {
		updates["email"] = customer.Email
	}
	if customer.Phone != "" {
		updates["phone"] = customer.Phone
	}

	return tx.WithContext(ctx).Model(&model.Customer{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error
}
