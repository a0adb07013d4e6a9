package handler

import (
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"

	"zion-admin/internal/client"
	"zion-admin/internal/config"
	"zion-admin/internal/dto"
	"zion-admin/internal/service"
	"zion-admin/pkg/apperrors"
	"zion-admin/pkg/response"
)

type FulfillmentHandler struct {
	fulfillmentService service.FulfillmentService
	dispatchCfg        *config.Dispatch
}

func NewFulfillmentHandler(fulfillmentService service.FulfillmentService, dispatchCfg *config.Dispatch) *FulfillmentHandler {
	return &FulfillmentHandler{
		fulfillmentService: fulfillmentService,
		dispatchCfg:        dispatchCfg,
	}
}

func (h *FulfillmentHandler) Preview(c echo.Context) error {
	var req dto.FulfillPreviewRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.fulfillmentService.Preview(c.Request().Context(), req.OrderID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, order)
}

func (h *FulfillmentHandler) Dispatch(c echo.Context) error {
	var req dto.DispatchRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.fulfillmentService.Dispatch(c.Request().Context(), &req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, result)
}

// Status is the delivery automation's callback. The raw body is HMAC
// verified before parsing.
func (h *FulfillmentHandler) Status(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return response.Error(c, apperrors.BadRequest("failed to read body", err))
	}

	provided := c.Request().Header.Get("X-Signature")
	if !client.VerifySignature([]byte(h.dispatchCfg.HMACSecret), raw, provided) {
		return response.Error(c, apperrors.Unauthorized("invalid signature", nil))
	}

	var req dto.StatusCallbackRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid JSON", err))
	}

	if err := h.fulfillmentService.UpdateStatus(c.Request().Context(), &req); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]bool{"ok": true})
}

func (h *FulfillmentHandler) SendItemEmail(c echo.Context) error {
	var req dto.SendItemEmailRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.fulfillmentService.SendItemEmail(c.Request().Context(), &req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, result)
}
