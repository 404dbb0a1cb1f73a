package record

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

func TestCreateRecordEndpoint(t *testing.T) {
	f := newFixture()
	e := newTestServer(f)

	rec := doReq(e, http.MethodPost, "/api/v1/records", "org-a",
		`{"patient_id":"patient-1","data_hash":"abc","data_location":"s3://bucket/obj"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var result map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &result)
	if result["id"] == "" {
		t.Error("expected record id in response")
	}
	if result["created_by"] != "org-a" {
		t.Errorf("created_by = %v, want org-a", result["created_by"])
	}
}

func TestCreateRecordEndpointUnauthorized(t *testing.T) {
	f := newFixture()
	e := newTestServer(f)

	rec := doReq(e, http.MethodPost, "/api/v1/records", "stranger",
		`{"patient_id":"p","data_hash":"h","data_location":"loc"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestGetRecordEndpointNotFound(t *testing.T) {
	f := newFixture()
	e := newTestServer(f)

	rec := doReq(e, http.MethodGet, "/api/v1/records/nope", "org-a", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestGrantEndpoints(t *testing.T) {
	f := newFixture()
	e := newTestServer(f)
	created := f.mustCreate(t, "patient-1", "org-a")

	rec := doReq(e, http.MethodPost, "/api/v1/records/"+created.ID+"/grants", "org-a",
		`{"organization":"org-b"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("grant: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doReq(e, http.MethodGet, "/api/v1/records/"+created.ID+"/access/org-b", "org-a", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("access check: expected 200, got %d", rec.Code)
	}
	var access accessResponse
	json.Unmarshal(rec.Body.Bytes(), &access)
	if !access.HasAccess {
		t.Error("org-b should have access after grant")
	}

	rec = doReq(e, http.MethodGet, "/api/v1/records/"+created.ID+"/grants", "org-a", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list grants: expected 200, got %d", rec.Code)
	}
	var grants grantsResponse
	json.Unmarshal(rec.Body.Bytes(), &grants)
	if len(grants.Grantees) != 2 {
		t.Errorf("grantees = %v, want creator and org-b", grants.Grantees)
	}

	rec = doReq(e, http.MethodDelete, "/api/v1/records/"+created.ID+"/grants/org-b", "org-a", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("revoke: expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doReq(e, http.MethodGet, "/api/v1/records/"+created.ID+"/access/org-b", "org-a", "")
	json.Unmarshal(rec.Body.Bytes(), &access)
	if access.HasAccess {
		t.Error("org-b should have lost access after revoke")
	}
}

func TestPatientRecordsEndpoint(t *testing.T) {
	f := newFixture()
	e := newTestServer(f)
	f.mustCreate(t, "patient-1", "org-a")
	f.mustCreate(t, "patient-1", "org-b")

	rec := doReq(e, http.MethodGet, "/api/v1/patients/patient-1/records", "org-a", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Total int `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Total)
	}
}

func TestDeactivateEndpointWhilePaused(t *testing.T) {
	f := newFixture()
	e := newTestServer(f)
	created := f.mustCreate(t, "patient-1", "org-a")

	f.pause.set(true)

	rec := doReq(e, http.MethodDelete, "/api/v1/records/"+created.ID, "org-a", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 while paused, got %d", rec.Code)
	}

	// Reads stay up during maintenance.
	rec = doReq(e, http.MethodGet, "/api/v1/records/"+created.ID, "org-a", "")
	if rec.Code != http.StatusOK {
		t.Errorf("read while paused: expected 200, got %d", rec.Code)
	}
}
