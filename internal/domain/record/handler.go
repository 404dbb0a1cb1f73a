package record

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
	api.POST("/records", h.CreateRecord)
	api.GET("/records", h.ListRecords)
	api.GET("/records/:id", h.GetRecord)
	api.PUT("/records/:id", h.UpdateRecord)
	api.DELETE("/records/:id", h.DeactivateRecord)

	api.POST("/records/:id/grants", h.GrantAccess)
	api.DELETE("/records/:id/grants/:org", h.RevokeAccess)
	api.GET("/records/:id/grants", h.ListGrants)
	api.GET("/records/:id/access/:principal", h.CheckAccess)

	api.GET("/patients/:id/records", h.PatientRecords)
	api.GET("/organizations/:id/records", h.OrganizationRecords)
}

type createRecordRequest struct {
	PatientID    string `json:"patient_id"`
	DataHash     string `json:"data_hash"`
	DataLocation string `json:"data_location"`
}

func (h *Handler) CreateRecord(c echo.Context) error {
	var req createRecordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	caller := auth.PrincipalFromContext(c.Request().Context())

	rec, err := h.svc.Create(c.Request().Context(), req.PatientID, req.DataHash, req.DataLocation, caller)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetRecord(c echo.Context) error {
	rec, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

type updateRecordRequest struct {
	DataHash     string `json:"data_hash"`
	DataLocation string `json:"data_location"`
}

func (h *Handler) UpdateRecord(c echo.Context) error {
	var req updateRecordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	caller := auth.PrincipalFromContext(c.Request().Context())

	rec, err := h.svc.Update(c.Request().Context(), c.Param("id"), req.DataHash, req.DataLocation, caller)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) DeactivateRecord(c echo.Context) error {
	caller := auth.PrincipalFromContext(c.Request().Context())

	if err := h.svc.Deactivate(c.Request().Context(), c.Param("id"), caller); err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type grantRequest struct {
	Organization string `json:"organization"`
}

func (h *Handler) GrantAccess(c echo.Context) error {
	var req grantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	caller := auth.PrincipalFromContext(c.Request().Context())

	g, err := h.svc.Grant(c.Request().Context(), c.Param("id"), req.Organization, caller)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *Handler) RevokeAccess(c echo.Context) error {
	caller := auth.PrincipalFromContext(c.Request().Context())

	if err := h.svc.Revoke(c.Request().Context(), c.Param("id"), c.Param("org"), caller); err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type grantsResponse struct {
	RecordID string   `json:"record_id"`
	Grantees []string `json:"grantees"`
}

// ListGrants returns the organizations with current access. Pass ?history=true
// to get the full grant ledger for the record instead, revoked entries
// included.
func (h *Handler) ListGrants(c echo.Context) error {
	recordID := c.Param("id")
	if c.QueryParam("history") == "true" {
		grants, err := h.svc.GrantHistory(c.Request().Context(), recordID)
		if err != nil {
			return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
		}
		return c.JSON(http.StatusOK, grants)
	}

	grantees, err := h.svc.ActiveGrantees(c.Request().Context(), recordID)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, grantsResponse{RecordID: recordID, Grantees: grantees})
}

type accessResponse struct {
	RecordID  string `json:"record_id"`
	Principal string `json:"principal"`
	HasAccess bool   `json:"has_access"`
}

func (h *Handler) CheckAccess(c echo.Context) error {
	recordID := c.Param("id")
	principal := c.Param("principal")

	ok, err := h.svc.HasAccess(c.Request().Context(), recordID, principal)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, accessResponse{RecordID: recordID, Principal: principal, HasAccess: ok})
}

func (h *Handler) PatientRecords(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.PatientRecords(c.Request().Context(), c.Param("id"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) OrganizationRecords(c echo.Context) error {
	pg := pagination.FromContext(c)
	ids, total, err := h.svc.OrganizationRecords(c.Request().Context(), c.Param("id"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(ids, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListRecords(c echo.Context) error {
	pg := pagination.FromContext(c)
	ids, total, err := h.svc.ListRecordIDs(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(ids, total, pg.Limit, pg.Offset))
}
