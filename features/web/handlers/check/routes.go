package check

import (
	"phishcheck/features/classification"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

func MapCheckRoutes(e *echo.Echo, svc *classification.Service) error {
	handler := NewCheckHandler(svc)

	e.GET("/check", handler.Check)
	e.GET("/checking", handler.Check)

	log.Info().Msg("Check routes mapped at /check and /checking")

	return nil
}
