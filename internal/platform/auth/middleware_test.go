package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signToken(t *testing.T, key []byte, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: claims})
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	key := []byte("test-signing-key")
	mw := JWTMiddleware(JWTConfig{SigningKey: key})

	var gotPrincipal string
	handler := mw(func(c echo.Context) error {
		gotPrincipal = PrincipalFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	})

	tokenStr := signToken(t, key, jwt.RegisteredClaims{
		Subject:   "org-hospital-a",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPrincipal != "org-hospital-a" {
		t.Errorf("expected principal org-hospital-a, got %q", gotPrincipal)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: []byte("k")})
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	key := []byte("test-signing-key")
	mw := JWTMiddleware(JWTConfig{SigningKey: key})
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	tokenStr := signToken(t, key, jwt.RegisteredClaims{
		Subject:   "org-hospital-a",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %v", err)
	}
}

func TestJWTMiddleware_NoSubject(t *testing.T) {
	key := []byte("test-signing-key")
	mw := JWTMiddleware(JWTConfig{SigningKey: key})
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	tokenStr := signToken(t, key, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for token without subject, got %v", err)
	}
}

func TestDevAuthMiddleware_HeaderOverride(t *testing.T) {
	mw := DevAuthMiddleware("dev-admin")

	var gotPrincipal string
	handler := mw(func(c echo.Context) error {
		gotPrincipal = PrincipalFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Principal", "org-clinic-b")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPrincipal != "org-clinic-b" {
		t.Errorf("expected org-clinic-b, got %q", gotPrincipal)
	}
}

func TestDevAuthMiddleware_Default(t *testing.T) {
	mw := DevAuthMiddleware("dev-admin")

	var gotPrincipal string
	handler := mw(func(c echo.Context) error {
		gotPrincipal = PrincipalFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPrincipal != "dev-admin" {
		t.Errorf("expected dev-admin, got %q", gotPrincipal)
	}
}
