package org

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medledger/medledger/internal/platform/auth"
)

func newTestServer(f *fixture) *echo.Echo {
	e := echo.New()
	api := e.Group("/api/v1", auth.DevAuthMiddleware(""))
	NewHandler(f.svc).RegisterRoutes(api)
	return e
}

func doReq(e *echo.Echo, method, path, principal, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if principal != "" {
		req.Header.Set("X-Principal", principal)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	f := newFixture(t)
	e := newTestServer(f)

	rec := doReq(e, http.MethodPost, "/api/v1/organizations", "admin-1", `{"id":"org-a"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Repeat registration surfaces as a conflict.
	rec = doReq(e, http.MethodPost, "/api/v1/organizations", "admin-1", `{"id":"org-a"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate: expected 409, got %d", rec.Code)
	}
}

func TestRegisterEndpointForbidden(t *testing.T) {
	f := newFixture(t)
	e := newTestServer(f)

	rec := doReq(e, http.MethodPost, "/api/v1/organizations", "org-x", `{"id":"org-a"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestBatchRegisterEndpoint(t *testing.T) {
	f := newFixture(t)
	e := newTestServer(f)

	rec := doReq(e, http.MethodPost, "/api/v1/organizations/batch", "admin-1",
		`{"ids":["org-a","org-b","org-a",""]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp batchRegisterResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Registered) != 2 {
		t.Errorf("registered = %v, want 2 entries", resp.Registered)
	}
	if resp.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", resp.Skipped)
	}
}

func TestListOrganizationsEndpoint(t *testing.T) {
	f := newFixture(t)
	e := newTestServer(f)

	doReq(e, http.MethodPost, "/api/v1/organizations", "admin-1", `{"id":"org-a"}`)

	rec := doReq(e, http.MethodGet, "/api/v1/organizations", "admin-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Total int `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Total)
	}
}

func TestRequireAdminGuard(t *testing.T) {
	f := newFixture(t)
	e := echo.New()
	guarded := e.Group("/admin", auth.DevAuthMiddleware(""), RequireAdmin(f.svc))
	guarded.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	rec := doReq(e, http.MethodGet, "/admin/ping", "admin-1", "")
	if rec.Code != http.StatusOK {
		t.Errorf("admin: expected 200, got %d", rec.Code)
	}

	rec = doReq(e, http.MethodGet, "/admin/ping", "org-x", "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin: expected 403, got %d", rec.Code)
	}
}
