// Package envelope defines the JSON response shape shared by every API
// endpoint: {"success": true, "message": ..., "data": ...} on success and
// {"success": false, "error": ...} on failure.
package envelope

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// OK writes a success envelope with the given message and payload.
func OK(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Data writes a success envelope carrying only a payload.
func Data(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    data,
	})
}

// Fail writes a failure envelope. Most handlers never call this directly;
// they return typed errors and the central error handler renders them.
func Fail(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{
		Success: false,
		Error:   message,
	})
}
