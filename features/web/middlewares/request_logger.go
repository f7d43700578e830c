package middlewares

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const requestIDKey = "request_id"

// RequestLogger logs one line per request. It reuses the X-Request-ID set
// by the RequestID middleware and falls back to a fresh uuid.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
				c.Response().Header().Set(echo.HeaderXRequestID, requestID)
			}
			c.Set(requestIDKey, requestID)

			req := c.Request()
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if httpErr, ok := err.(*echo.HTTPError); ok {
				status = httpErr.Code
			}

			l := log.With().
				Str(requestIDKey, requestID).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("query", req.URL.RawQuery).
				Str("remote_ip", c.RealIP()).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("bytes_out", formatByteCount(c.Response().Size)).
				Logger()

			event := levelFor(&l, status, err)
			if err != nil {
				event = event.Err(err)
			}
			event.Msg("Request completed")

			return err
		}
	}
}

func levelFor(l *zerolog.Logger, status int, err error) *zerolog.Event {
	switch {
	case err != nil, status >= 500:
		return l.Error()
	case status >= 400:
		return l.Warn()
	default:
		return l.Debug()
	}
}

// RequestID returns the id assigned to the request by RequestLogger.
func RequestID(c echo.Context) string {
	if id, ok := c.Get(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func formatByteCount(bytes int64) string {
	if bytes == 0 {
		return "-"
	}
	return humanizeBytes(bytes)
}

func humanizeBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return strconv.FormatInt(bytes, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatInt(bytes/div, 10) + " " + string("KMGTPE"[exp]) + "B"
}
