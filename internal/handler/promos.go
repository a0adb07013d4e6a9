package handler

import (
	"github.com/labstack/echo/v4"

	"zion-admin/internal/dto"
	"zion-admin/internal/service"
	"zion-admin/pkg/response"
)

type PromoHandler struct {
	promoService service.PromoService
}

func NewPromoHandler(promoService service.PromoService) *PromoHandler {
	return &PromoHandler{
		promoService: promoService,
	}
}

// Status reports cache health: age in minutes, cached count and the
// upstream feed URL.
func (h *PromoHandler) Status(c echo.Context) error {
	return response.Success(c, h.promoService.Status(c.Request().Context()))
}

// List serves the cached batch, optionally filtered by ?q= on the title.
func (h *PromoHandler) List(c echo.Context) error {
	promos := h.promoService.List(c.Request().Context(), c.QueryParam("q"))
	return response.Success(c, promos)
}

// Refresh fetches the feed synchronously. A failed fetch still answers
// 200 with ok=false and the surviving cached count so the panel can keep
// showing stale data.
func (h *PromoHandler) Refresh(c echo.Context) error {
	count, err := h.promoService.Refresh(c.Request().Context())
	if err != nil {
		return response.Success(c, &dto.PromoRefreshResponse{
			OK:          false,
			Error:       err.Error(),
			CachedCount: h.promoService.Status(c.Request().Context()).Count,
		})
	}
	return response.Success(c, &dto.PromoRefreshResponse{
		OK:    true,
		Count: count,
	})
}
