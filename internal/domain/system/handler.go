package system

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medledger/medledger/internal/platform/auth"
	"github.com/medledger/medledger/pkg/apperror"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires pause control under admin guard and status as an open
// read.
func (h *Handler) RegisterRoutes(api *echo.Group, adminGuard echo.MiddlewareFunc) {
	api.POST("/system/pause", h.Pause, adminGuard)
	api.POST("/system/unpause", h.Unpause, adminGuard)
	api.GET("/system/status", h.Status)
}

func (h *Handler) Pause(c echo.Context) error {
	caller := auth.PrincipalFromContext(c.Request().Context())
	if err := h.svc.Pause(c.Request().Context(), caller); err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, map[string]bool{"paused": true})
}

func (h *Handler) Unpause(c echo.Context) error {
	caller := auth.PrincipalFromContext(c.Request().Context())
	if err := h.svc.Unpause(c.Request().Context(), caller); err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, map[string]bool{"paused": false})
}

func (h *Handler) Status(c echo.Context) error {
	state, err := h.svc.Status(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, state)
}
