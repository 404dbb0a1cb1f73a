package audit

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medledger/medledger/pkg/apperror"
	"github.com/medledger/medledger/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the audit read API. The caller passes the admin guard
// so only administrators can read the trail.
func (h *Handler) RegisterRoutes(api *echo.Group, adminGuard echo.MiddlewareFunc) {
	api.GET("/audit-events", h.ListEvents, adminGuard)
	api.GET("/audit-events/:id", h.GetEvent, adminGuard)
}

func (h *Handler) ListEvents(c echo.Context) error {
	f := Filter{
		RecordID:  c.QueryParam("record_id"),
		Type:      EventType(c.QueryParam("type")),
		Principal: c.QueryParam("principal"),
	}
	pg := pagination.FromContext(c)

	events, total, err := h.svc.ListEvents(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(events, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetEvent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	e, err := h.svc.GetEvent(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, e)
}
