package problem

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// customHTTPErrorHandler turns errors from echo's pipeline into JSON.
func customHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var message any

	if httpErr, ok := err.(*echo.HTTPError); ok {
		code = httpErr.Code
		message = httpErr.Message
	} else {
		message = err.Error()
	}

	switch code {
	case http.StatusNotFound:
		if handleErr := handle404(c); handleErr != nil {
			c.Logger().Error(handleErr)
		}
		return
	default:
		if code >= http.StatusInternalServerError {
			c.Logger().Error(err)
		}
		_ = c.JSON(code, map[string]any{
			"error":   http.StatusText(code),
			"message": fmt.Sprintf("%v", message),
		})
	}
}

func MapRoutes(e *echo.Echo) {
	e.HTTPErrorHandler = customHTTPErrorHandler

	e.GET("/404", handle404)
}

func handle404(c echo.Context) error {
	path := c.Request().URL.Path
	if referer := c.QueryParam("referer"); referer != "" {
		path = referer
	}

	return c.JSON(http.StatusNotFound, map[string]any{
		"error":   "Not Found",
		"message": "The requested resource was not found",
		"path":    path,
	})
}
