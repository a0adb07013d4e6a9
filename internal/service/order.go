package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"zion-admin/internal/dto"
	"zion-admin/internal/model"
	"zion-admin/internal/notify"
	"zion-admin/internal/repository"
	"zion-admin/pkg/apperrors"
)

// OrderService manages orders and their line items. Monetary totals are
// computed server-side in decimal arithmetic; clients treat their own
// sums as display estimates.
type OrderService interface {
	ListOrders(ctx context.Context) ([]*dto.OrderResponse, error)
	ListGrouped(ctx context.Context, code *string) ([]*dto.OrderGroupResponse, error)
	GetOrder(ctx context.Context, orderID uint) (*dto.OrderResponse, error)
	CreateOrder(ctx context.Context, req *dto.OrderCreateRequest) (*dto.OrderResponse, error)
	UpdateOrder(ctx context.Context, orderID uint, req *dto.OrderUpdateRequest) (*dto.OrderResponse, error)
	DeleteOrder(ctx context.Context, orderID uint) error
	OrderTotal(ctx context.Context, orderID uint) (*dto.OrderTotalResponse, error)

	ListItems(ctx context.Context, orderID uint) ([]*dto.ItemResponse, error)
	CreateItem(ctx context.Context, orderID uint, req *dto.ItemCreateRequest) (*dto.ItemResponse, error)
	UpdateItem(ctx context.Context, itemID uint, req *dto.ItemUpdateRequest) (*dto.ItemResponse, error)
	DeleteItem(ctx context.Context, itemID uint) error
	ToggleShipped(ctx context.Context, itemID uint) (*dto.ItemResponse, error)

	CreateSale(ctx context.Context, req *dto.SaleCreateRequest) (*dto.SaleResponse, error)
	ListCustomers(ctx context.Context) ([]*dto.CustomerResponse, error)
}

type orderServiceImpl struct {
	db           *gorm.DB
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	bus          *notify.Bus
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	bus *notify.Bus,
) OrderService {
	return &orderServiceImpl{
		db:           db,
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		bus:          bus,
	}
}

func (s *orderServiceImpl) ListOrders(ctx context.Context) ([]*dto.OrderResponse, error) {
	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list orders", err)
	}

	out := make([]*dto.OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = orderResponse(o, false)
	}
	return out, nil
}

func (s *orderServiceImpl) ListGrouped(ctx context.Context, code *string) ([]*dto.OrderGroupResponse, error) {
	orders, err := s.orderRepo.ListWithItems(ctx, code)
	if err != nil {
		return nil, apperrors.Internal("failed to list orders", err)
	}

	groups := make([]*dto.OrderGroupResponse, 0)
	index := make(map[string]*dto.OrderGroupResponse)
	for _, o := range orders {
		grp, ok := index[o.Code]
		if !ok {
			grp = &dto.OrderGroupResponse{
				Code:       o.Code,
				TotalValue: decimal.Zero,
			}
			index[o.Code] = grp
			groups = append(groups, grp)
		}

		grp.TotalOrders++
		for i := range o.Items {
			grp.TotalItems += o.Items[i].Quantity
			grp.TotalValue = grp.TotalValue.Add(o.Items[i].Total())
		}
		grp.Orders = append(grp.Orders, *orderResponse(o, true))
	}

	return groups, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, orderID uint) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("order", err)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load order", err)
	}
	return orderResponse(order, true), nil
}

func (s *orderServiceImpl) CreateOrder(ctx context.Context, req *dto.OrderCreateRequest) (*dto.OrderResponse, error) {
	status := req.Status
	if status == "" {
		status = "PENDING"
	}

	order := &model.Order{
		Code:          req.Code,
		Status:        status,
		OrderDate:     req.OrderDate,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return err
		}
		return s.customerRepo.Upsert(ctx, tx, &model.Customer{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		})
	})
	if err != nil {
		return nil, apperrors.Internal("failed to create order", err)
	}
	s.bus.Publish("orders.changed")

	return orderResponse(order, false), nil
}

func (s *orderServiceImpl) UpdateOrder(ctx context.Context, orderID uint, req *dto.OrderUpdateRequest) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("order", err)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load order", err)
	}

	if req.Code != nil {
		order.Code = *req.Code
	}
	if req.Status != nil {
		order.Status = *req.Status
	}
	if req.OrderDate != nil {
		order.OrderDate = *req.OrderDate
	}
	if req.CustomerName != nil {
		order.CustomerName = *req.CustomerName
	}
	if req.CustomerEmail != nil {
		order.CustomerEmail = *req.CustomerEmail
	}
	if req.CustomerPhone != nil {
		order.CustomerPhone = *req.CustomerPhone
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Save(ctx, tx, order); err != nil {
			return err
		}
		return s.customerRepo.Upsert(ctx, tx, &model.Customer{
			Name:  order.CustomerName,
			Email: order.CustomerEmail,
			Phone: order.CustomerPhone,
		})
	})
	if err != nil {
		return nil, apperrors.Internal("failed to update order", err)
	}
	s.bus.Publish("orders.changed")

	return orderResponse(order, false), nil
}

func (s *orderServiceImpl) DeleteOrder(ctx context.Context, orderID uint) error {
	err := s.orderRepo.Delete(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("order", err)
	}
	if err != nil {
		return apperrors.Internal("failed to delete order", err)
	}
	s.bus.Publish("orders.changed")
	return nil
}

func (s *orderServiceImpl) OrderTotal(ctx context.Context, orderID uint) (*dto.OrderTotalResponse, error) {
	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("order", err)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load order", err)
	}

	total := decimal.Zero
	for i := range order.Items {
		total = total.Add(order.Items[i].Total())
	}

	return &dto.OrderTotalResponse{OrderID: orderID, Total: total}, nil
}

func (s *orderServiceImpl) ListItems(ctx context.Context, orderID uint) ([]*dto.ItemResponse, error) {
	if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order", err)
		}
		return nil, apperrors.Internal("failed to load order", err)
	}

	items, err := s.orderRepo.ListItems(ctx, orderID)
	if err != nil {
		return nil, apperrors.Internal("failed to list items", err)
	}

	out := make([]*dto.ItemResponse, len(items))
	for i, item := range items {
		out[i] = itemResponse(item)
	}
	return out, nil
}

func (s *orderServiceImpl) CreateItem(ctx context.Context, orderID uint, req *dto.ItemCreateRequest) (*dto.ItemResponse, error) {
	if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order", err)
		}
		return nil, apperrors.Internal("failed to load order", err)
	}

	item := &model.OrderItem{
		OrderID:         orderID,
		SKU:             NormalizeSKU(req.SKU),
		ProductName:     req.ProductName,
		Platform:        model.Platform(req.Platform),
		Quantity:        req.Quantity,
		UnitPrice:       req.UnitPrice,
		AccountEmail:    req.AccountEmail,
		AccountPassword: req.AccountPassword,
		AccountNick:     req.AccountNick,
		ActivationCode:  req.ActivationCode,
		Shipped:         req.Shipped,
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.Shipped {
		now := time.Now().UTC()
		item.ShippedAt = &now
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.CreateItem(ctx, tx, item); err != nil {
			return err
		}
		return s.orderRepo.RecomputeShipped(ctx, tx, orderID)
	})
	if err != nil {
		return nil, apperrors.Internal("failed to create item", err)
	}
	s.bus.Publish("orders.changed")

	return itemResponse(item), nil
}

func (s *orderServiceImpl) UpdateItem(ctx context.Context, itemID uint, req *dto.ItemUpdateRequest) (*dto.ItemResponse, error) {
	item, err := s.orderRepo.FindItem(ctx, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("item", err)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load item", err)
	}

	wasShipped := item.Shipped

	if req.SKU != nil {
		item.SKU = NormalizeSKU(*req.SKU)
	}
	if req.ProductName != nil {
		item.ProductName = *req.ProductName
	}
	if req.Platform != nil {
		item.Platform = model.Platform(*req.Platform)
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		item.UnitPrice = *req.UnitPrice
	}
	if req.AccountEmail != nil {
		item.AccountEmail = *req.AccountEmail
	}
	if req.AccountPassword != nil {
		item.AccountPassword = *req.AccountPassword
	}
	if req.AccountNick != nil {
		item.AccountNick = *req.AccountNick
	}
	if req.ActivationCode != nil {
		item.ActivationCode = *req.ActivationCode
	}
	if req.Shipped != nil {
		item.Shipped = *req.Shipped
		if item.Shipped && !wasShipped {
			now := time.Now().UTC()
			item.ShippedAt = &now
		}
		if !item.Shipped && wasShipped {
			item.ShippedAt = nil
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.SaveItem(ctx, tx, item); err != nil {
			return err
		}
		return s.orderRepo.RecomputeShipped(ctx, tx, item.OrderID)
	})
	if err != nil {
		return nil, apperrors.Internal("failed to update item", err)
	}
	s.bus.Publish("orders.changed")

	return itemResponse(item), nil
}

func (s *orderServiceImpl) DeleteItem(ctx context.Context, itemID uint) error {
	item, err := s.orderRepo.FindItem(ctx, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("item", err)
	}
	if err != nil {
		return apperrors.Internal("failed to load item", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.DeleteItem(ctx, tx, itemID); err != nil {
			return err
		}
		return s.orderRepo.RecomputeShipped(ctx, tx, item.OrderID)
	})
	if err != nil {
		return apperrors.Internal("failed to delete item", err)
	}
	s.bus.Publish("orders.changed")
	return nil
}

func (s *orderServiceImpl) ToggleShipped(ctx context.Context, itemID uint) (*dto.ItemResponse, error) {
	item, err := s.orderRepo.FindItem(ctx, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("item", err)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load item", err)
	}

	toggled := !item.Shipped
	return s.UpdateItem(ctx, itemID, &dto.ItemUpdateRequest{Shipped: &toggled})
}

func (s *orderServiceImpl) CreateSale(ctx context.Context, req *dto.SaleCreateRequest) (*dto.SaleResponse, error) {
	status := req.Status
	if status == "" {
		status = "PAID"
	}

	order, err := s.CreateOrder(ctx, &dto.OrderCreateRequest{
		Code:          req.Code,
		Status:        status,
		OrderDate:     req.OrderDate,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		return nil, err
	}

	item, err := s.CreateItem(ctx, order.ID, &dto.ItemCreateRequest{
		SKU:             req.SKU,
		ProductName:     req.ProductName,
		Platform:        req.Platform,
		Quantity:        req.Quantity,
		UnitPrice:       req.UnitPrice,
		AccountEmail:    req.AccountEmail,
		AccountPassword: req.AccountPassword,
		AccountNick:     req.AccountNick,
		ActivationCode:  req.ActivationCode,
		Shipped:         req.Shipped,
	})
	if err != nil {
		return nil, err
	}

	// re-read so the sale reflects the derived shipped state
	refreshed, err := s.GetOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	refreshed.Items = nil

	return &dto.SaleResponse{Order: *refreshed, Item: *item}, nil
}

func (s *orderServiceImpl) ListCustomers(ctx context.Context) ([]*dto.CustomerResponse, error) {
	customers, err := s.customerRepo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list customers", err)
	}

	out := make([]*dto.CustomerResponse, len(customers))
	for i, c := range customers {
		out[i] = &dto.CustomerResponse{
			ID:    c.ID,
			Name:  c.Name,
			Email: c.Email,
			Phone: c.Phone,
		}
	}
	return out, nil
}

func orderResponse(o *model.Order, includeItems bool) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:            o.ID,
		Code:          o.Code,
		Status:        o.Status,
		OrderDate:     o.OrderDate,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		CustomerPhone: o.CustomerPhone,
		Shipped:       o.Shipped,
		ShippedAt:     formatTime(o.ShippedAt),
	}
	if includeItems {
		items := make([]dto.ItemResponse, len(o.Items))
		for i := range o.Items {
			items[i] = *itemResponse(&o.Items[i])
		}
		resp.Items = items
	}
	return resp
}

func itemResponse(i *model.OrderItem) *dto.ItemResponse {
	return &dto.ItemResponse{
		ID:              i.ID,
		OrderID:         i.OrderID,
		SKU:             i.SKU,
		ProductName:     i.ProductName,
		Platform:        string(i.Platform),
		Quantity:        i.Quantity,
		UnitPrice:       i.UnitPrice,
		AccountEmail:    i.AccountEmail,
		AccountPassword: i.AccountPassword,
		AccountNick:     i.AccountNick,
		ActivationCode:  i.ActivationCode,
		Shipped:         i.Shipped,
		ShippedAt:       formatTime(i.ShippedAt),
		Total:           i.Total(),
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
