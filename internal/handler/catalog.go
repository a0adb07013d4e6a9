package handler

import (
	"io"

	"github.com/labstack/echo/v4"

	"zion-admin/internal/dto"
	"zion-admin/internal/service"
	"zion-admin/pkg/apperrors"
	"zion-admin/pkg/response"
)

type CatalogHandler struct {
	catalogService  service.CatalogService
	snapshotService service.SnapshotService
}

func NewCatalogHandler(catalogService service.CatalogService, snapshotService service.SnapshotService) *CatalogHandler {
	return &CatalogHandler{
		catalogService:  catalogService,
		snapshotService: snapshotService,
	}
}

func (h *CatalogHandler) ListGames(c echo.Context) error {
	games, err := h.catalogService.ListGames(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, games)
}

func (h *CatalogHandler) GetGame(c echo.Context) error {
	game, err := h.catalogService.GetGame(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, game)
}

func (h *CatalogHandler) CreateGame(c echo.Context) error {
	var req dto.GameCreateRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	game, err := h.catalogService.CreateGame(c.Request().Context(), &req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, game)
}

func (h *CatalogHandler) UpdateGame(c echo.Context) error {
	var req dto.GameUpdateRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	game, err := h.catalogService.UpdateGame(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, game)
}

func (h *CatalogHandler) DeleteGame(c echo.Context) error {
	if err := h.catalogService.DeleteGame(c.Request().Context(), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}

func (h *CatalogHandler) CreateAccount(c echo.Context) error {
	var req dto.AccountCreateRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	account, err := h.catalogService.CreateAccount(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, account)
}

func (h *CatalogHandler) UpdateAccount(c echo.Context) error {
	var req dto.AccountUpdateRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	account, err := h.catalogService.UpdateAccount(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, account)
}

func (h *CatalogHandler) DeleteAccount(c echo.Context) error {
	if err := h.catalogService.DeleteAccount(c.Request().Context(), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}

func (h *CatalogHandler) AppendCodes(c echo.Context) error {
	var req dto.AppendCodesRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	account, err := h.catalogService.AppendCodes(c.Request().Context(), c.Param("id"), req.Codes)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, account)
}

func (h *CatalogHandler) Resolve(c echo.Context) error {
	resolved, err := h.catalogService.Resolve(c.Request().Context(), c.QueryParam("sku"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, resolved)
}

func (h *CatalogHandler) PreviewNext(c echo.Context) error {
	code, err := h.catalogService.PreviewNext(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"code": code})
}

func (h *CatalogHandler) ConsumeNext(c echo.Context) error {
	code, err := h.catalogService.ConsumeNext(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"code": code})
}

func (h *CatalogHandler) Allocate(c echo.Context) error {
	var req dto.AllocateRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	alloc, err := h.catalogService.Allocate(c.Request().Context(), &req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, alloc)
}

func (h *CatalogHandler) ConsumeBySKU(c echo.Context) error {
	var req dto.ConsumeBySKURequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	alloc, err := h.catalogService.ConsumeBySKU(c.Request().Context(), req.SKU)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, alloc)
}

func (h *CatalogHandler) ImportSnapshot(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return response.Error(c, apperrors.BadRequest("failed to read body", err))
	}

	result, err := h.snapshotService.Import(c.Request().Context(), raw)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, result)
}

func (h *CatalogHandler) ExportSnapshot(c echo.Context) error {
	snapshot, err := h.snapshotService.Export(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, snapshot)
}
