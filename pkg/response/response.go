package response

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"zion-admin/pkg/apperrors"
)

type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func Success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func Error(c echo.Context, err error) error {
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		return errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", validationMessage(validationErr))
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return errorJSON(c, appErr.Status, appErr.Code, appErr.Message)
	}

	return errorJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
}

func errorJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, Response{
		Success:   false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

func validationMessage(errs validator.ValidationErrors) string {
	for _, err := range errs {
		field := strings.ToLower(err.Field())
		switch err.Tag() {
		case "required":
			return field + " is required"
		case "min":
			return field + " must be at least " + err.Param()
		case "max":
			return field + " must be at most " + err.Param()
		case "oneof":
			return field + " must be one of: " + err.Param()
		case "email":
			return field + " must be a valid email address"
		default:
			return field + " is invalid"
		}
	}
	return "Invalid input data"
}
