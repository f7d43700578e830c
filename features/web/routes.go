package web

import (
	"net/http"

	"phishcheck/features/web/handlers/admin"
	"phishcheck/features/web/handlers/check"
	"phishcheck/features/web/handlers/health"
	"phishcheck/features/web/handlers/problem"
	"phishcheck/internal/config"

	"github.com/labstack/echo/v4"
)

// ConfigureRoutes mounts every API route on e.
func ConfigureRoutes(e *echo.Echo, svcs *Services, cfg config.ServerConfig) error {
	MapHome(e)

	if err := check.MapCheckRoutes(e, svcs.Classification); err != nil {
		return err
	}
	if err := admin.MapDatasetRoutes(e, svcs.Store); err != nil {
		return err
	}

	problem.MapRoutes(e)
	health.MapHealth(e, cfg, svcs.Store)

	return nil
}

func MapHome(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "phishcheck URL classification service")
	})
}
