package middleware

import (
	"time"

	"salonhub/internal/common"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestLogger attaches a request-scoped logger to the context and writes
// one line per request once the handler chain returns.
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			if reqID == "" {
				reqID = req.Header.Get(echo.HeaderXRequestID)
			}
			logger := base.With().Str("request_id", reqID).Logger()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			ctx := c.Request().Context()
			status := c.Response().Status
			event := logger.Info()
			switch {
			case status >= 500:
				event = logger.Error()
			case status >= 400:
				event = logger.Warn()
			}
			if tenantID, ok := common.GetTenantIDFromContext(ctx); ok {
				event = event.Str("tenant_id", tenantID.String())
			}
			if userID, ok := common.GetUserIDFromContext(ctx); ok {
				event = event.Str("user_id", userID.String())
			}
			event.
				Str("method", req.Method).
				Str("path", c.Path()).
				Str("uri", req.RequestURI).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")
			return nil
		}
	}
}
