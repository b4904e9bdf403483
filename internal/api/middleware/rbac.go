package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// RequireActive rejects callers whose account is deactivated. It must run
// after Auth.
func RequireActive() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := c.Get(IdentityKey).(domain.Identity)
			if !ok {
				return domain.ErrInvalidToken
			}
			if !id.IsActive {
				return domain.ErrInactiveUser
			}
			return next(c)
		}
	}
}
