package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func callWithKey(apiKey, provided string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if provided != "" {
		req.Header.Set(apiKeyHeader, provided)
	}
	rec := httptest.NewRecorder()

	handler := APIKeyAuth(apiKey)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	_ = handler(e.NewContext(req, rec))
	return rec
}

func TestAPIKeyAuth(t *testing.T) {
	assert.Equal(t, http.StatusOK, callWithKey("secret", "secret").Code)
	assert.Equal(t, http.StatusUnauthorized, callWithKey("secret", "wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, callWithKey("secret", "").Code)
}

func TestEmptyKeyDisablesAuth(t *testing.T) {
	assert.Equal(t, http.StatusOK, callWithKey("", "").Code)
	assert.Equal(t, http.StatusOK, callWithKey("", "anything").Code)
}
