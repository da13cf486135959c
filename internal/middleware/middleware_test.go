package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"salonhub/internal/common"
	"salonhub/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signed(t *testing.T, claims *JWTCustomClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newProtectedEcho(min string) *echo.Echo {
	e := echo.New()
	g := e.Group("/v1", echojwt.WithConfig(JWTConfig(testSecret)), RequireIdentity())
	g.GET("/whoami", func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, _ := common.GetUserIDFromContext(ctx)
		tenantID, _ := common.GetTenantIDFromContext(ctx)
		role, _ := common.GetRoleFromContext(ctx)
		return c.JSON(http.StatusOK, map[string]string{
			"user_id":   userID.String(),
			"tenant_id": tenantID.String(),
			"role":      role,
		})
	}, RequireRole(min))
	return e
}

func TestJWTConfig_CopiesClaimsIntoContext(t *testing.T) {
	userID, tenantID := uuid.New(), uuid.New()
	token := signed(t, NewAccessClaims(userID, tenantID, models.RoleManager, time.Now(), time.Minute), testSecret)

	e := newProtectedEcho(models.RoleStaff)
	req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), userID.String())
	assert.Contains(t, rec.Body.String(), tenantID.String())
	assert.Contains(t, rec.Body.String(), `"role":"manager"`)
}

func TestJWTConfig_RejectsBadTokens(t *testing.T) {
	userID, tenantID := uuid.New(), uuid.New()
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong secret", header: "Bearer " + signed(t, NewAccessClaims(userID, tenantID, models.RoleOwner, time.Now(), time.Minute), "other")},
		{name: "expired", header: "Bearer " + signed(t, NewAccessClaims(userID, tenantID, models.RoleOwner, time.Now().Add(-time.Hour), time.Minute), testSecret)},
	}

	e := newProtectedEcho(models.RoleStaff)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		role string
		min  string
		want int
	}{
		{role: models.RoleStaff, min: models.RoleStaff, want: http.StatusOK},
		{role: models.RoleStaff, min: models.RoleManager, want: http.StatusForbidden},
		{role: models.RoleManager, min: models.RoleManager, want: http.StatusOK},
		{role: models.RoleManager, min: models.RoleOwner, want: http.StatusForbidden},
		{role: models.RoleOwner, min: models.RoleManager, want: http.StatusOK},
		{role: "intern", min: models.RoleStaff, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role+">="+tt.min, func(t *testing.T) {
			token := signed(t, NewAccessClaims(uuid.New(), uuid.New(), tt.role, time.Now(), time.Minute), testSecret)
			e := newProtectedEcho(tt.min)
			req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestVersionMiddleware(t *testing.T) {
	vm := NewVersionMiddleware()
	e := echo.New()
	e.Use(vm.APIVersionResolver())
	v1 := e.Group("/v1", vm.VersionHeader("v1"))
	v1.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, c.Get("api_version").(string)) })
	e.GET("/v7/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))
	assert.Equal(t, "v1", rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v7/ping", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "v1", resp.Error.Details["supported_versions"])

	assert.Equal(t, "v12", extractVersionFromPath("/v12/x"))
	assert.Equal(t, "", extractVersionFromPath("/health"))
	assert.Equal(t, "", extractVersionFromPath("/v1abc"))
}

func TestRequestLogger_WritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	e.Use(RequestLogger(logger))
	e.GET("/clients/:id", func(c echo.Context) error {
		zerolog.Ctx(c.Request().Context()).Info().Msg("inside")
		return c.NoContent(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clients/42", nil))

	out := buf.String()
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, out, `"message":"inside"`)
	assert.Contains(t, out, `"path":"/clients/:id"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"level":"warn"`)
}
