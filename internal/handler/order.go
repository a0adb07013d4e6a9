package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"zion-admin/internal/dto"
	"zion-admin/internal/service"
	"zion-admin/pkg/apperrors"
	"zion-admin/pkg/response"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.BadRequest(name+" must be a positive integer", err)
	}
	return uint(id), nil
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	orders, err := h.orderService.ListOrders(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, orders)
}

func (h *OrderHandler) ListGrouped(c echo.Context) error {
	var code *string
	if v := c.QueryParam("code"); v != "" {
		code = &v
	}

	groups, err := h.orderService.ListGrouped(c.Request().Context(), code)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, groups)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderService.GetOrder(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, order)
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req dto.OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderService.CreateOrder(c.Request().Context(), &req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, order)
}

func (h *OrderHandler) UpdateOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}

	var req dto.OrderUpdateRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderService.UpdateOrder(c.Request().Context(), id, &req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, order)
}

func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.orderService.DeleteOrder(c.Request().Context(), id); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}

func (h *OrderHandler) OrderTotal(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}

	total, err := h.orderService.OrderTotal(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, total)
}

func (h *OrderHandler) ListItems(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}

	items, err := h.orderService.ListItems(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, items)
}

func (h *OrderHandler) CreateItem(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}

	var req dto.ItemCreateRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	item, err := h.orderService.CreateItem(c.Request().Context(), id, &req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, item)
}

func (h *OrderHandler) UpdateItem(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}

	var req dto.ItemUpdateRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	item, err := h.orderService.UpdateItem(c.Request().Context(), id, &req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, item)
}

func (h *OrderHandler) DeleteItem(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.orderService.DeleteItem(c.Request().Context(), id); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}

func (h *OrderHandler) ToggleShipped(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.Error(c, err)
	}

	item, err := h.orderService.ToggleShipped(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, item)
}

func (h *OrderHandler) CreateSale(c echo.Context) error {
	var req dto.SaleCreateRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	sale, err := h.orderService.CreateSale(c.Request().Context(), &req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, sale)
}

func (h *OrderHandler) ListCustomers(c echo.Context) error {
	customers, err := h.orderService.ListCustomers(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, customers)
}
