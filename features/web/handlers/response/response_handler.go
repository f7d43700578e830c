package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the body shape of every admin response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

func Success(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

func Error(c echo.Context, code int, message string) error {
	return c.JSON(code, Envelope{Error: message})
}

func ErrorWithDetails(c echo.Context, code int, message string, details any) error {
	return c.JSON(code, Envelope{Error: message, Details: details})
}

func NotFound(c echo.Context, message string, input any) error {
	return c.JSON(http.StatusNotFound, Envelope{Error: message, Details: input})
}

func BadRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, Envelope{Error: message})
}
