package check

import (
	"net/http"

	"phishcheck/features/classification"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type CheckHandler struct {
	Service *classification.Service
}

func NewCheckHandler(service *classification.Service) *CheckHandler {
	return &CheckHandler{Service: service}
}

// Check classifies the url query parameter.
func (h *CheckHandler) Check(c echo.Context) error {
	input := new(CheckInput)
	if err := c.Bind(input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error":   "Failed to bind url",
			"details": err.Error(),
		})
	}

	if err := c.Validate(input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"validation_error": err.Error(),
		})
	}

	result, err := h.Service.Check(input.URL)
	if classification.IsInvalid(err) {
		return c.JSON(http.StatusBadRequest, InvalidPayload{
			URL:    input.URL,
			Error:  "invalid_url",
			Reason: err.Error(),
		})
	} else if err != nil {
		log.Error().Err(err).Str("url", input.URL).Msg("Check failed")
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"error":   "Failed to check url",
			"details": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, result)
}
