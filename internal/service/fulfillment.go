package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"zion-admin/internal/client"
	"zion-admin/internal/dto"
	"zion-admin/internal/repository"
	"zion-admin/pkg/apperrors"
)

// FulfillmentService orchestrates manual delivery of purchased codes:
// SKU lookup, credential/code preview, dispatch to the external delivery
// trigger, and code consumption once dispatch is confirmed. Consumption
// is gated on the dispatch acknowledgement: a failed dispatch must never
// burn a code, while a crash after dispatch at worst leaves an
// already-delivered code in the pool.
type FulfillmentService interface {
	// Preview resolves each item's SKU and copies the matched account's
	// credentials plus the next code onto the item, without consuming.
	Preview(ctx context.Context, orderID uint) (*dto.OrderResponse, error)
	// Dispatch submits the whole order to the delivery trigger. On a
	// confirmed dispatch, one code per previewed item is consumed;
	// an emptied pool surfaces a per-item warning, never a rollback.
	Dispatch(ctx context.Context, req *dto.DispatchRequest) (*dto.DispatchResponse, error)
	// SendItemEmail renders a delivery template, sends it and marks the
	// item shipped.
	SendItemEmail(ctx context.Context, req *dto.SendItemEmailRequest) (*client.SendResult, error)
	// UpdateStatus applies a delivery-status callback to an order.
	UpdateStatus(ctx context.Context, req *dto.StatusCallbackRequest) error
}

type fulfillmentServiceImpl struct {
	db         *gorm.DB
	orderRepo  repository.OrderRepository
	catalog    CatalogService
	orders     OrderService
	dispatcher client.Dispatcher
	mailer     client.Mailer
}

func NewFulfillmentService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	catalog CatalogService,
	orders OrderService,
	dispatcher client.Dispatcher,
	mailer client.Mailer,
) FulfillmentService {
	return &fulfillmentServiceImpl{
		db:         db,
		orderRepo:  orderRepo,
		catalog:    catalog,
		orders:     orders,
		dispatcher: dispatcher,
		mailer:     mailer,
	}
}

func (s *fulfillmentServiceImpl) Preview(ctx context.Context, orderID uint) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("order", err)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load order", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		if item.SKU == "" {
			continue
		}

		alloc, err := s.catalog.Allocate(ctx, &dto.AllocateRequest{
			SKU:   item.SKU,
			Media: string(item.Platform.Media()),
		})
		if apperrors.Is(err, "NOT_FOUND") {
			// manual override stays possible for unknown SKUs
			continue
		}
		if err != nil {
			return nil, err
		}
		if alloc.AccountID == "" {
			continue
		}

		item.AccountEmail = alloc.Login
		item.AccountPassword = alloc.Password
		item.AccountNick = alloc.Nickname
		item.ActivationCode = alloc.Code
		item.SourceAccountID = alloc.AccountID

		if err := s.orderRepo.SaveItem(ctx, nil, item); err != nil {
			return nil, apperrors.Internal("failed to store preview", err)
		}
	}

	return s.orders.GetOrder(ctx, orderID)
}

func (s *fulfillmentServiceImpl) Dispatch(ctx context.Context, req *dto.DispatchRequest) (*dto.DispatchResponse, error) {
	order, err := s.orderRepo.FindByIDWithItems(ctx, req.OrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("order", err)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load order", err)
	}

	payload := &client.DispatchPayload{
		Channel: req.Channel,
		Order: client.DispatchOrder{
			ID:     order.ID,
			Code:   order.Code,
			Status: order.Status,
		},
		Customer: client.DispatchCustomer{
			Name:  order.CustomerName,
			Email: order.CustomerEmail,
			Phone: order.CustomerPhone,
		},
	}
	for i := range order.Items {
		item := &order.Items[i]
		payload.Items = append(payload.Items, client.DispatchItem{
			ItemID:         item.ID,
			ProductName:    item.ProductName,
			Platform:       string(item.Platform),
			Login:          item.AccountEmail,
			Password:       item.AccountPassword,
			Nickname:       item.AccountNick,
			ActivationCode: item.ActivationCode,
		})
	}

	result, err := s.dispatcher.Dispatch(ctx, payload)
	if err != nil {
		return nil, apperrors.BadGateway("delivery trigger unreachable", err)
	}
	if !result.OK {
		// no consumption on a failed dispatch
		return &dto.DispatchResponse{OK: false, Status: result.Status}, nil
	}

	resp := &dto.DispatchResponse{OK: true, Status: result.Status, Dedup: result.Dedup}
	for i := range order.Items {
		item := &order.Items[i]
		if item.SourceAccountID == "" {
			continue
		}

		code, err := s.catalog.ConsumeNext(ctx, item.SourceAccountID)
		if err != nil {
			// dispatch already happened; warn, don't roll back
			resp.Warnings = append(resp.Warnings, dto.ItemWarning{
				ItemID:  item.ID,
				Message: fmt.Sprintf("failed to consume from account %s: %v; reconcile stock manually", item.SourceAccountID, err),
			})
			log.Error().Err(err).Uint("item_id", item.ID).Str("account_id", item.SourceAccountID).
				Msg("consume failed after dispatch")
			continue
		}
		if code == "" {
			resp.Warnings = append(resp.Warnings, dto.ItemWarning{
				ItemID:  item.ID,
				Message: fmt.Sprintf("no code left in account %s; delivered code may need manual replacement", item.SourceAccountID),
			})
			log.Warn().Uint("item_id", item.ID).Str("account_id", item.SourceAccountID).
				Msg("code pool empty at consume time")
			continue
		}
		if code != item.ActivationCode {
			resp.Warnings = append(resp.Warnings, dto.ItemWarning{
				ItemID:  item.ID,
				Message: fmt.Sprintf("consumed code %s differs from previewed %s", code, item.ActivationCode),
			})
		}

		shipped := true
		if _, err := s.orders.UpdateItem(ctx, item.ID, &dto.ItemUpdateRequest{Shipped: &shipped}); err != nil {
			return nil, err
		}
	}

	return resp, nil
}

func (s *fulfillmentServiceImpl) SendItemEmail(ctx context.Context, req *dto.SendItemEmailRequest) (*client.SendResult, error) {
	item, err := s.orderRepo.FindItem(ctx, req.ItemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("item", err)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load item", err)
	}

	templateType := req.TemplateType
	if templateType == "" {
		templateType = DefaultTemplate
	}

	login := req.Login
	if login == "" {
		login = item.AccountEmail
	}
	password := req.Password
	if password == "" {
		password = item.AccountPassword
	}
	code := req.Code
	if code == "" {
		code = item.ActivationCode
	}

	orderCode := req.OrderCode
	if orderCode == "" {
		orderCode = fmt.Sprint(item.OrderID)
	}
	game := req.Game
	if game == "" {
		game = item.ProductName
	}

	body, err := RenderDeliveryTemplate(templateType, &DeliveryData{
		Game:     game,
		Login:    login,
		Password: password,
		Code:     code,
		Customer: req.CustomerName,
	})
	if err != nil {
		return nil, apperrors.BadRequest("unknown delivery template", err)
	}

	result, err := s.mailer.Send(&client.EmailMessage{
		To:      req.To,
		Subject: DeliverySubject(orderCode, game),
		Body:    body,
	})
	if err != nil {
		return nil, apperrors.BadRequest("failed to send email", err)
	}
	if !result.OK {
		// caller falls back to a manually composed draft
		return result, nil
	}

	// mark only this item as shipped
	shipped := true
	if _, err := s.orders.UpdateItem(ctx, req.ItemID, &dto.ItemUpdateRequest{Shipped: &shipped}); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *fulfillmentServiceImpl) UpdateStatus(ctx context.Context, req *dto.StatusCallbackRequest) error {
	if req.OrderID == 0 || req.Status == "" {
		return apperrors.BadRequest("order_id and status are required", nil)
	}

	order, err := s.orderRepo.FindByID(ctx, req.OrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("order", err)
	}
	if err != nil {
		return apperrors.Internal("failed to load order", err)
	}

	order.Status = req.Status
	if err := s.orderRepo.Save(ctx, nil, order); err != nil {
		return apperrors.Internal("failed to update order status", err)
	}
	return nil
}
