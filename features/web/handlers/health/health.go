package health

import (
	"net/http"

	"phishcheck/features/dataset"
	"phishcheck/internal/config"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// MapHealth sets up the healthcheck endpoint if enabled in config.
func MapHealth(e *echo.Echo, cfg config.ServerConfig, store *dataset.Store) {
	if !cfg.HealthCheck {
		log.Info().Msg("Health check disabled")
		return
	}
	g := e.Group("/health")
	g.GET("/status", StatusCheck(store))
	log.Info().Msg("Health check enabled at /health/status")
}

// StatusCheck reports "ok" together with the serving dataset version.
func StatusCheck(store *dataset.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		d := store.Snapshot()
		return c.JSON(http.StatusOK, map[string]any{
			"status":          "ok",
			"dataset_version": d.Version(),
			"dataset_entries": d.Len(),
			"dataset_loaded":  d.LoadedAt(),
		})
	}
}
