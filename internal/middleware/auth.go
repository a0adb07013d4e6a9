package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"

	"zion-admin/pkg/apperrors"
	"zion-admin/pkg/response"
)

const apiKeyHeader = "X-Api-Key"

// APIKeyAuth guards the admin API with a shared key. An empty key
// disables the check.
// later we can expand this to jwt auth or session auth
func APIKeyAuth(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiKey == "" {
				return next(c)
			}
			provided := c.Request().Header.Get(apiKeyHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				return response.Error(c, apperrors.Unauthorized("invalid or missing API key", nil))
			}
			return next(c)
		}
	}
}
