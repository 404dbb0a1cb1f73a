package org

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medledger/medledger/internal/platform/auth"
	"github.com/medledger/medledger/pkg/apperror"
	"github.com/medledger/medledger/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/organizations", h.RegisterOrganization)
	api.POST("/organizations/batch", h.BatchRegisterOrganizations)
	api.GET("/organizations", h.ListOrganizations)
	api.GET("/organizations/:id", h.GetPrincipal)
}

type registerRequest struct {
	ID string `json:"id"`
}

func (h *Handler) RegisterOrganization(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	caller := auth.PrincipalFromContext(c.Request().Context())

	p, err := h.svc.Register(c.Request().Context(), req.ID, caller)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

type batchRegisterRequest struct {
	IDs []string `json:"ids"`
}

type batchRegisterResponse struct {
	Registered []string `json:"registered"`
	Skipped    int      `json:"skipped"`
}

func (h *Handler) BatchRegisterOrganizations(c echo.Context) error {
	var req batchRegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	caller := auth.PrincipalFromContext(c.Request().Context())

	registered, err := h.svc.BatchRegister(c.Request().Context(), req.IDs, caller)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, batchRegisterResponse{
		Registered: registered,
		Skipped:    len(req.IDs) - len(registered),
	})
}

func (h *Handler) ListOrganizations(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListOrganizations(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetPrincipal(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}
