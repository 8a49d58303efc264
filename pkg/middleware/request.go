package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const headerRequestID = "X-Request-ID"

// RequestID makes sure every request carries an X-Request-ID header, on
// both the request and the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(headerRequestID)
			if id == "" {
				id = uuid.NewString()
				c.Request().Header.Set(headerRequestID, id)
			}
			c.Response().Header().Set(headerRequestID, id)
			return next(c)
		}
	}
}

// AccessLog logs one line per request with its status and latency
func AccessLog(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			if logger != nil {
				logger.Info("http.request",
					zap.String("request_id", c.Request().Header.Get(headerRequestID)),
					zap.String("method", c.Request().Method),
					zap.String("path", c.Path()),
					zap.Int("status", c.Response().Status),
					zap.Duration("latency", time.Since(start)),
				)
			}
			return nil
		}
	}
}
