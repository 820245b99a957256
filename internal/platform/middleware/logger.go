package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/auth"
)

// Logger returns middleware that writes one structured event per request.
// The principal is read after the handler chain runs, so requests
// authenticated by inner middleware still log their user and role.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}
			if rid, ok := c.Get("request_id").(string); ok && rid != "" {
				evt = evt.Str("request_id", rid)
			}

			req := c.Request()
			if principal, ok := auth.PrincipalFromContext(req.Context()); ok {
				evt = evt.
					Str("user_id", principal.UserID.String()).
					Str("role", principal.Role)
			}

			evt.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}
