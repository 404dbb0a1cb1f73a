package org

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medledger/medledger/internal/platform/auth"
)

// RequireAdmin rejects requests whose principal does not hold the Admin
// capability in the role registry.
func RequireAdmin(svc *Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := auth.PrincipalFromContext(c.Request().Context())
			if principal == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing principal")
			}
			isAdmin, err := svc.IsAdmin(c.Request().Context(), principal)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "role lookup failed")
			}
			if !isAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "admin capability required")
			}
			return next(c)
		}
	}
}
