package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, subject, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: role,
	})
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newAuthedServer(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(JWTMiddleware(testSecret))
	e.GET("/whoami", func(c echo.Context) error {
		return c.String(http.StatusOK, ActorIDFromContext(c.Request().Context()))
	})
	e.GET("/doctor-only", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RequireRole("doctor"))
	return e
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	e := newAuthedServer(t)
	actorID := uuid.New().String()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, actorID, "patient"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != actorID {
		t.Errorf("expected actor id %s, got %s", actorID, rec.Body.String())
	}
}

func TestJWTMiddleware_MissingToken(t *testing.T) {
	e := newAuthedServer(t)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddleware_BadSubject(t *testing.T) {
	e := newAuthedServer(t)
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "not-a-uuid", "patient"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for non-uuid subject, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	e := newAuthedServer(t)

	req := httptest.NewRequest(http.MethodGet, "/doctor-only", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New().String(), "patient"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for patient on doctor route, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/doctor-only", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New().String(), "doctor"))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for doctor, got %d", rec.Code)
	}
}

func TestDevAuthMiddleware_HeaderActor(t *testing.T) {
	e := echo.New()
	e.Use(DevAuthMiddleware())
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, RoleFromContext(c.Request().Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Actor-Role", "doctor")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Body.String() != "doctor" {
		t.Errorf("expected role doctor, got %s", rec.Body.String())
	}
}
