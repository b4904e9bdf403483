package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/api/middleware"
	"github.com/99minutos/auth-service/internal/core/domain"
)

// callerIdentity returns the identity injected by the Auth middleware.
// Its absence means the route was mounted without authentication.
func callerIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := c.Get(middleware.IdentityKey).(domain.Identity)
	if !ok || id.UserID == "" {
		return domain.Identity{}, domain.ErrInvalidToken
	}
	return id, nil
}
