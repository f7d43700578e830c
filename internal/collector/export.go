package collector

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ExposeMetricsHTTPHandler serves the default registry in the Prometheus
// text exposition format.
func (mc *MetricsCollector) ExposeMetricsHTTPHandler() http.Handler {
	return promhttp.Handler()
}

func (mc *MetricsCollector) ExposeReloadStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, mc.LastReload())
}

func (mc *MetricsCollector) ExposeWebMetrics(e *echo.Echo) {
	e.GET("/metrics", mc.ExposeReloadStatus)
	e.GET("/metrics/prometheus", echo.WrapHandler(mc.ExposeMetricsHTTPHandler()))
}
