package admin

import (
	"phishcheck/features/dataset"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

func MapDatasetRoutes(e *echo.Echo, store *dataset.Store) error {
	handler := NewDatasetHandler(store)

	g := e.Group("/dataset")
	g.GET("", handler.Stats)
	g.GET("/entries", handler.List)
	g.POST("/entries", handler.Upsert)
	g.DELETE("/entries", handler.Remove)
	g.POST("/reload", handler.Reload)

	log.Info().Msg("Dataset admin routes mapped at /dataset")

	return nil
}
