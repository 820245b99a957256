package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/httperr"
)

// AccountChecker reports whether an account is still active. Implemented by
// an adapter over the identity repository to avoid an import cycle.
type AccountChecker interface {
	IsActive(ctx context.Context, userID uuid.UUID) (bool, error)
}

// RequireSession returns middleware that rejects requests without a valid
// session token. On success the principal is stashed in the request context.
// Deactivated accounts are rejected even when their token has not expired.
func RequireSession(sessions *Sessions, accounts AccountChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return httperr.Unauthorized("authentication required")
			}

			principal, err := sessions.Verify(token)
			if err != nil {
				return httperr.Unauthorized("invalid or expired session")
			}

			ctx := c.Request().Context()
			if accounts != nil {
				active, err := accounts.IsActive(ctx, principal.UserID)
				if err != nil {
					return httperr.Internal(err)
				}
				if !active {
					return httperr.Unauthorized("account is deactivated")
				}
			}

			c.SetRequest(c.Request().WithContext(WithPrincipal(ctx, principal)))
			return next(c)
		}
	}
}

// RequireRole returns middleware that checks the authenticated principal has
// one of the listed roles. Must run after RequireSession.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := PrincipalFromContext(c.Request().Context())
			if !ok {
				return httperr.Unauthorized("authentication required")
			}
			for _, role := range roles {
				if principal.Role == role {
					return next(c)
				}
			}
			return httperr.Forbidden("insufficient role")
		}
	}
}
