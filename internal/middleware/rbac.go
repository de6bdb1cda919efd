package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"dsas/internal/errors"
	"dsas/internal/model"
)

// RequireRole admits callers whose token carries one of the given roles.
// It must run after JWT.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
					Error: errors.ErrInvalidToken.Message,
					Code:  string(errors.ErrInvalidToken.Reason),
				})
			}
			for _, role := range roles {
				if id.Role == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, errors.ErrorResponse{
				Error: errors.ErrForbiddenRole.Message,
				Code:  string(errors.ErrForbiddenRole.Reason),
			})
		}
	}
}
