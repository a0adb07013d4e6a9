package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zion-admin/internal/dto"
	"zion-admin/internal/model"
)

type fakePromoService struct {
	status     *dto.PromoStatusResponse
	promos     []model.Promotion
	refreshErr error
}

func (s *fakePromoService) Status(_ context.Context) *dto.PromoStatusResponse {
	return s.status
}

func (s *fakePromoService) List(_ context.Context, query string) []model.Promotion {
	return s.promos
}

func (s *fakePromoService) Refresh(_ context.Context) (int, error) {
	if s.refreshErr != nil {
		return 0, s.refreshErr
	}
	return len(s.promos), nil
}

func (s *fakePromoService) RunScheduler(_ context.Context) {}

func callPromo(h func(echo.Context) error, method, path string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	_ = h(e.NewContext(req, rec))
	return rec
}

func TestPromoRefreshFailureAnswersOKFalse(t *testing.T) {
	h := NewPromoHandler(&fakePromoService{
		status:     &dto.PromoStatusResponse{OK: true, Count: 3},
		refreshErr: fmt.Errorf("upstream down"),
	})

	rec := callPromo(h.Refresh, http.MethodPost, "/api/promos/refresh")
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data dto.PromoRefreshResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.OK)
	assert.Contains(t, envelope.Data.Error, "upstream down")
	assert.Equal(t, 3, envelope.Data.CachedCount)
}

func TestPromoRefreshReturnsCount(t *testing.T) {
	h := NewPromoHandler(&fakePromoService{
		promos: []model.Promotion{{Title: "Stray"}, {Title: "Returnal"}},
	})

	rec := callPromo(h.Refresh, http.MethodPost, "/api/promos/refresh")
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data dto.PromoRefreshResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.OK)
	assert.Equal(t, 2, envelope.Data.Count)
}
