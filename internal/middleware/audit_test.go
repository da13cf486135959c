package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"salonhub/internal/common"
	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) Record(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, action, entityType string, entityID uuid.UUID, details map[string]interface{}) error {
	args := m.Called(ctx, tenantID, userID, action, entityType, entityID, details)
	return args.Error(0)
}

// withIdentity stands in for the JWT middleware.
func withIdentity(userID, tenantID uuid.UUID) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := common.WithIdentity(c.Request().Context(), userID, tenantID, models.RoleManager)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func serveAudited(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuditWrite_RecordsCreateWithResponseID(t *testing.T) {
	userID, tenantID, created := uuid.New(), uuid.New(), uuid.New()
	recorder := new(mockRecorder)
	audit := NewAuditMiddleware(recorder)

	e := echo.New()
	e.POST("/v1/services", func(c echo.Context) error {
		return c.JSON(http.StatusCreated, map[string]interface{}{"id": created, "name": "Cut"})
	}, withIdentity(userID, tenantID), audit.AuditWrite(models.EntityService))

	recorder.On("Record", mock.Anything, tenantID, &userID, "service.created", models.EntityService, created,
		mock.MatchedBy(func(d map[string]interface{}) bool {
			return d["method"] == http.MethodPost && d["route"] == "/v1/services" && d["status"] == http.StatusCreated
		})).Return(nil).Once()

	rec := serveAudited(e, http.MethodPost, "/v1/services")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), created.String())
	recorder.AssertExpectations(t)
}

func TestAuditWrite_PathIDAndSubresource(t *testing.T) {
	userID, tenantID, stylistID := uuid.New(), uuid.New(), uuid.New()
	recorder := new(mockRecorder)
	audit := NewAuditMiddleware(recorder)

	e := echo.New()
	ok := func(c echo.Context) error { return c.JSON(http.StatusOK, map[string]string{"id": uuid.NewString()}) }
	mw := []echo.MiddlewareFunc{withIdentity(userID, tenantID), audit.AuditWrite(models.EntityStylist)}
	e.PUT("/v1/stylists/:id/schedule", ok, mw...)
	e.DELETE("/v1/stylists/:id", ok, mw...)

	recorder.On("Record", mock.Anything, tenantID, &userID, "stylist.schedule.updated", models.EntityStylist, stylistID, mock.Anything).Return(nil).Once()
	recorder.On("Record", mock.Anything, tenantID, &userID, "stylist.deleted", models.EntityStylist, stylistID, mock.Anything).Return(nil).Once()

	assert.Equal(t, http.StatusOK, serveAudited(e, http.MethodPut, "/v1/stylists/"+stylistID.String()+"/schedule").Code)
	assert.Equal(t, http.StatusOK, serveAudited(e, http.MethodDelete, "/v1/stylists/"+stylistID.String()).Code)
	recorder.AssertExpectations(t)
}

func TestAuditWrite_BusinessFallsBackToTenant(t *testing.T) {
	userID, tenantID := uuid.New(), uuid.New()
	recorder := new(mockRecorder)
	audit := NewAuditMiddleware(recorder)

	e := echo.New()
	e.PUT("/v1/business", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"name": "Shear Joy"})
	}, withIdentity(userID, tenantID), audit.AuditWrite(models.EntityBusiness))

	recorder.On("Record", mock.Anything, tenantID, &userID, "business.updated", models.EntityBusiness, tenantID, mock.Anything).Return(nil).Once()

	assert.Equal(t, http.StatusOK, serveAudited(e, http.MethodPut, "/v1/business").Code)
	recorder.AssertExpectations(t)
}

func TestAuditWrite_SkipsReadsAndFailures(t *testing.T) {
	userID, tenantID := uuid.New(), uuid.New()
	recorder := new(mockRecorder)
	audit := NewAuditMiddleware(recorder)

	e := echo.New()
	mw := []echo.MiddlewareFunc{withIdentity(userID, tenantID), audit.AuditWrite(models.EntityProduct)}
	e.GET("/v1/products/:id", func(c echo.Context) error { return c.JSON(http.StatusOK, map[string]string{}) }, mw...)
	e.PUT("/v1/products/:id", func(c echo.Context) error {
		return c.JSON(http.StatusConflict, common.CreateErrorResponse("CONFLICT", "sku taken", nil))
	}, mw...)
	e.DELETE("/v1/products/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound)
	}, mw...)

	id := uuid.NewString()
	assert.Equal(t, http.StatusOK, serveAudited(e, http.MethodGet, "/v1/products/"+id).Code)
	assert.Equal(t, http.StatusConflict, serveAudited(e, http.MethodPut, "/v1/products/"+id).Code)
	assert.Equal(t, http.StatusNotFound, serveAudited(e, http.MethodDelete, "/v1/products/"+id).Code)
	recorder.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuditWrite_RecorderFailureKeepsResponse(t *testing.T) {
	userID, tenantID, id := uuid.New(), uuid.New(), uuid.New()
	recorder := new(mockRecorder)
	audit := NewAuditMiddleware(recorder)

	e := echo.New()
	e.PUT("/v1/users/:id", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"id": id.String()})
	}, withIdentity(userID, tenantID), audit.AuditWrite(models.EntityUser))

	recorder.On("Record", mock.Anything, tenantID, &userID, "user.updated", models.EntityUser, id, mock.Anything).
		Return(errors.New("db down")).Once()

	rec := serveAudited(e, http.MethodPut, "/v1/users/"+id.String())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id.String())
	recorder.AssertExpectations(t)
}

func TestAuditAction(t *testing.T) {
	tests := []struct {
		method, route, want string
	}{
		{http.MethodPost, "/v1/products", "product.created"},
		{http.MethodPut, "/v1/products/:id", "product.updated"},
		{http.MethodPatch, "/v1/products/:id", "product.updated"},
		{http.MethodDelete, "/v1/products/:id", "product.deleted"},
		{http.MethodPost, "/v1/products/:id/image", "product.image.updated"},
		{http.MethodPut, "/v1/business", "product.updated"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.route, func(t *testing.T) {
			assert.Equal(t, tt.want, auditAction(models.EntityProduct, tt.method, tt.route))
		})
	}
}
