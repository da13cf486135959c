package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"salonhub/internal/common"
	"salonhub/internal/models"
	"salonhub/internal/services"

	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type mockAppointmentService struct{ mock.Mock }

func (m *mockAppointmentService) Book(ctx context.Context, actor services.Actor, req *services.BookAppointmentRequest) (*models.Appointment, error) {
	args := m.Called(ctx, actor, req)
	a, _ := args.Get(0).(*models.Appointment)
	return a, args.Error(1)
}

func (m *mockAppointmentService) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error) {
	args := m.Called(ctx, tenantID, id)
	a, _ := args.Get(0).(*models.Appointment)
	return a, args.Error(1)
}

func (m *mockAppointmentService) List(ctx context.Context, tenantID uuid.UUID, filter *models.AppointmentFilter) ([]*models.Appointment, error) {
	args := m.Called(ctx, tenantID, filter)
	a, _ := args.Get(0).([]*models.Appointment)
	return a, args.Error(1)
}

func (m *mockAppointmentService) Reschedule(ctx context.Context, actor services.Actor, id uuid.UUID, req *services.RescheduleRequest) (*models.Appointment, error) {
	args := m.Called(ctx, actor, id, req)
	a, _ := args.Get(0).(*models.Appointment)
	return a, args.Error(1)
}

func (m *mockAppointmentService) Transition(ctx context.Context, actor services.Actor, id uuid.UUID, to string, reason *string) (*models.Appointment, error) {
	args := m.Called(ctx, actor, id, to, reason)
	a, _ := args.Get(0).(*models.Appointment)
	return a, args.Error(1)
}

func (m *mockAppointmentService) Delete(ctx context.Context, actor services.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockAppointmentService) DecideDeposit(ctx context.Context, actor services.Actor, id uuid.UUID, status string, req *services.DepositDecisionRequest) (*models.Appointment, error) {
	args := m.Called(ctx, actor, id, status, req)
	a, _ := args.Get(0).(*models.Appointment)
	return a, args.Error(1)
}

func (m *mockAppointmentService) ListPendingDeposits(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Appointment, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	a, _ := args.Get(0).([]*models.Appointment)
	return a, args.Error(1)
}

func (m *mockAppointmentService) ExpireDeposits(ctx context.Context, tenantID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func (m *mockAppointmentService) MarkReminders(ctx context.Context, tenantID uuid.UUID, lead time.Duration) (int, error) {
	args := m.Called(ctx, tenantID, lead)
	return args.Int(0), args.Error(1)
}

type mockTenantService struct{ mock.Mock }

func (m *mockTenantService) Get(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, tenantID)
	t, _ := args.Get(0).(*models.Tenant)
	return t, args.Error(1)
}

func (m *mockTenantService) Update(ctx context.Context, tenantID uuid.UUID, req *models.TenantSettingsUpdate) (*models.Tenant, error) {
	args := m.Called(ctx, tenantID, req)
	t, _ := args.Get(0).(*models.Tenant)
	return t, args.Error(1)
}

type mockAvailabilityService struct{ mock.Mock }

func (m *mockAvailabilityService) Find(ctx context.Context, tenantID uuid.UUID, query *services.AvailabilityQuery) (*services.AvailabilityResponse, error) {
	args := m.Called(ctx, tenantID, query)
	r, _ := args.Get(0).(*services.AvailabilityResponse)
	return r, args.Error(1)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type AppointmentHandlersTestSuite struct {
	suite.Suite
	echo         *echo.Echo
	appointments *mockAppointmentService
	tenants      *mockTenantService
	handlers     *AppointmentHandlers
	actor        services.Actor
}

func (suite *AppointmentHandlersTestSuite) SetupTest() {
	suite.echo = echo.New()
	suite.echo.Validator = common.NewRequestValidator()
	suite.appointments = new(mockAppointmentService)
	suite.tenants = new(mockTenantService)
	suite.handlers = NewAppointmentHandlers(suite.appointments, suite.tenants)
	suite.actor = services.Actor{UserID: uuid.New(), TenantID: uuid.New(), Role: models.RoleStaff}
}

func (suite *AppointmentHandlersTestSuite) TearDownTest() {
	suite.appointments.AssertExpectations(suite.T())
	suite.tenants.AssertExpectations(suite.T())
}

// newContext builds an authenticated request context.
func (suite *AppointmentHandlersTestSuite) newContext(method, target string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	ctx := common.WithIdentity(req.Context(), suite.actor.UserID, suite.actor.TenantID, suite.actor.Role)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return suite.echo.NewContext(req, rec), rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

func (suite *AppointmentHandlersTestSuite) TestBookAppointment_Created() {
	clientID, stylistID, serviceID := uuid.New(), uuid.New(), uuid.New()
	body := `{"client_id":"` + clientID.String() + `","stylist_id":"` + stylistID.String() +
		`","start_at":"2026-03-03T10:00:00Z","service_ids":["` + serviceID.String() + `"]}`
	c, rec := suite.newContext(http.MethodPost, "/v1/appointments", strings.NewReader(body))

	booked := &models.Appointment{ID: uuid.New(), Status: models.AppointmentPending}
	suite.appointments.On("Book", mock.Anything, suite.actor, mock.MatchedBy(func(req *services.BookAppointmentRequest) bool {
		return req.ClientID == clientID && req.StylistID == stylistID &&
			len(req.ServiceIDs) == 1 && req.ServiceIDs[0] == serviceID &&
			req.StartAt.Equal(time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC))
	})).Return(booked, nil)

	suite.Require().NoError(suite.handlers.BookAppointment(c))
	suite.Equal(http.StatusCreated, rec.Code)

	var got models.Appointment
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	suite.Equal(booked.ID, got.ID)
}

func (suite *AppointmentHandlersTestSuite) TestBookAppointment_SlotTaken() {
	body := `{"client_id":"` + uuid.NewString() + `","stylist_id":"` + uuid.NewString() +
		`","start_at":"2026-03-03T10:00:00Z","service_ids":["` + uuid.NewString() + `"]}`
	c, rec := suite.newContext(http.MethodPost, "/v1/appointments", strings.NewReader(body))

	suite.appointments.On("Book", mock.Anything, suite.actor, mock.Anything).
		Return(nil, common.Conflictf("stylist is already booked at that time"))

	suite.Require().NoError(suite.handlers.BookAppointment(c))
	suite.Equal(http.StatusConflict, rec.Code)
	suite.Equal("CONFLICT", errorCode(suite.T(), rec))
}

func (suite *AppointmentHandlersTestSuite) TestBookAppointment_RequiresServices() {
	body := `{"client_id":"` + uuid.NewString() + `","stylist_id":"` + uuid.NewString() +
		`","start_at":"2026-03-03T10:00:00Z","service_ids":[]}`
	c, rec := suite.newContext(http.MethodPost, "/v1/appointments", strings.NewReader(body))

	suite.Require().NoError(suite.handlers.BookAppointment(c))
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal("VALIDATION_ERROR", errorCode(suite.T(), rec))
	suite.appointments.AssertNotCalled(suite.T(), "Book", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AppointmentHandlersTestSuite) TestListAppointments_DateOnlyRangeIsInclusive() {
	c, rec := suite.newContext(http.MethodGet, "/v1/appointments?from=2026-03-01&to=2026-03-05&status=confirmed", nil)

	suite.tenants.On("Get", mock.Anything, suite.actor.TenantID).Return(&models.Tenant{ID: suite.actor.TenantID, Timezone: "UTC"}, nil)
	suite.appointments.On("List", mock.Anything, suite.actor.TenantID, mock.MatchedBy(func(f *models.AppointmentFilter) bool {
		return f.From != nil && f.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) &&
			f.To != nil && f.To.Equal(time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)) &&
			f.Status != nil && *f.Status == models.AppointmentConfirmed &&
			f.Limit == 50 && f.Offset == 0
	})).Return([]*models.Appointment{{ID: uuid.New()}}, nil)

	suite.Require().NoError(suite.handlers.ListAppointments(c))
	suite.Equal(http.StatusOK, rec.Code)

	var resp map[string]interface{}
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	suite.EqualValues(1, resp["count"])
	suite.NotContains(resp, "total")
}

func (suite *AppointmentHandlersTestSuite) TestListAppointments_UnknownStatus() {
	c, rec := suite.newContext(http.MethodGet, "/v1/appointments?status=maybe", nil)
	suite.tenants.On("Get", mock.Anything, suite.actor.TenantID).Return(&models.Tenant{ID: suite.actor.TenantID}, nil)

	suite.Require().NoError(suite.handlers.ListAppointments(c))
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func (suite *AppointmentHandlersTestSuite) TestListAppointments_ToBeforeFrom() {
	c, rec := suite.newContext(http.MethodGet, "/v1/appointments?from=2026-03-05&to=2026-03-01", nil)
	suite.tenants.On("Get", mock.Anything, suite.actor.TenantID).Return(&models.Tenant{ID: suite.actor.TenantID}, nil)

	suite.Require().NoError(suite.handlers.ListAppointments(c))
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func (suite *AppointmentHandlersTestSuite) TestCancelAppointment_WithReason() {
	id := uuid.New()
	c, rec := suite.newContext(http.MethodPost, "/", strings.NewReader(`{"reason":"client is sick"}`))
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	suite.appointments.On("Transition", mock.Anything, suite.actor, id, models.AppointmentCancelled,
		mock.MatchedBy(func(reason *string) bool { return reason != nil && *reason == "client is sick" })).
		Return(&models.Appointment{ID: id, Status: models.AppointmentCancelled}, nil)

	suite.Require().NoError(suite.handlers.CancelAppointment(c))
	suite.Equal(http.StatusOK, rec.Code)
}

func (suite *AppointmentHandlersTestSuite) TestCancelAppointment_WithoutBody() {
	id := uuid.New()
	c, rec := suite.newContext(http.MethodPost, "/", nil)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	suite.appointments.On("Transition", mock.Anything, suite.actor, id, models.AppointmentCancelled, (*string)(nil)).
		Return(&models.Appointment{ID: id, Status: models.AppointmentCancelled}, nil)

	suite.Require().NoError(suite.handlers.CancelAppointment(c))
	suite.Equal(http.StatusOK, rec.Code)
}

func (suite *AppointmentHandlersTestSuite) TestCompleteAppointment_InvalidTransition() {
	id := uuid.New()
	c, rec := suite.newContext(http.MethodPost, "/", nil)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	suite.appointments.On("Transition", mock.Anything, suite.actor, id, models.AppointmentCompleted, (*string)(nil)).
		Return(nil, common.Conflictf("cannot move appointment from pending to completed"))

	suite.Require().NoError(suite.handlers.CompleteAppointment(c))
	suite.Equal(http.StatusConflict, rec.Code)
}

func (suite *AppointmentHandlersTestSuite) TestDepositWaived() {
	id := uuid.New()
	c, rec := suite.newContext(http.MethodPost, "/", strings.NewReader(`{"note":"regular client"}`))
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	suite.appointments.On("DecideDeposit", mock.Anything, suite.actor, id, models.DepositWaived,
		mock.MatchedBy(func(req *services.DepositDecisionRequest) bool {
			return req.Note != nil && *req.Note == "regular client"
		})).
		Return(&models.Appointment{ID: id, DepositStatus: models.DepositWaived}, nil)

	suite.Require().NoError(suite.handlers.DepositWaived(c))
	suite.Equal(http.StatusOK, rec.Code)
}

func (suite *AppointmentHandlersTestSuite) TestRescheduleAppointment() {
	id, stylistID := uuid.New(), uuid.New()
	body := `{"start_at":"2026-03-04T14:00:00Z","stylist_id":"` + stylistID.String() + `"}`
	c, rec := suite.newContext(http.MethodPut, "/", strings.NewReader(body))
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	suite.appointments.On("Reschedule", mock.Anything, suite.actor, id, mock.MatchedBy(func(req *services.RescheduleRequest) bool {
		return req.StartAt != nil && req.StartAt.Equal(time.Date(2026, 3, 4, 14, 0, 0, 0, time.UTC)) &&
			req.StylistID != nil && *req.StylistID == stylistID && len(req.ServiceIDs) == 0
	})).Return(&models.Appointment{ID: id, StylistID: stylistID}, nil)

	suite.Require().NoError(suite.handlers.RescheduleAppointment(c))
	suite.Equal(http.StatusOK, rec.Code)
}

func (suite *AppointmentHandlersTestSuite) TestRescheduleAppointment_NoLongerChangeable() {
	id := uuid.New()
	c, rec := suite.newContext(http.MethodPut, "/", strings.NewReader(`{"notes":"running late"}`))
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	suite.appointments.On("Reschedule", mock.Anything, suite.actor, id, mock.Anything).
		Return(nil, common.Conflictf("completed appointments cannot be rescheduled"))

	suite.Require().NoError(suite.handlers.RescheduleAppointment(c))
	suite.Equal(http.StatusConflict, rec.Code)
	suite.Equal("CONFLICT", errorCode(suite.T(), rec))
}

func (suite *AppointmentHandlersTestSuite) TestGetAppointment_BadID() {
	c, rec := suite.newContext(http.MethodGet, "/", nil)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	suite.Require().NoError(suite.handlers.GetAppointment(c))
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func (suite *AppointmentHandlersTestSuite) TestGetAppointment_NotFound() {
	id := uuid.New()
	c, rec := suite.newContext(http.MethodGet, "/", nil)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	suite.appointments.On("Get", mock.Anything, suite.actor.TenantID, id).Return(nil, errors.NotFoundf("appointment"))

	suite.Require().NoError(suite.handlers.GetAppointment(c))
	suite.Equal(http.StatusNotFound, rec.Code)
	suite.Equal("NOT_FOUND", errorCode(suite.T(), rec))
}

func (suite *AppointmentHandlersTestSuite) TestMissingIdentity() {
	req := httptest.NewRequest(http.MethodGet, "/v1/deposits/pending", nil)
	rec := httptest.NewRecorder()
	c := suite.echo.NewContext(req, rec)

	suite.Require().NoError(suite.handlers.ListPendingDeposits(c))
	suite.Equal(http.StatusUnauthorized, rec.Code)
}

func TestAppointmentHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(AppointmentHandlersTestSuite))
}

func TestFindSlots_Validation(t *testing.T) {
	e := echo.New()
	availability := new(mockAvailabilityService)
	h := NewAvailabilityHandlers(availability)
	tenantID := uuid.New()

	tests := []struct {
		name  string
		query string
	}{
		{"missing date", "/v1/availability?service_ids=" + uuid.NewString()},
		{"missing services", "/v1/availability?date=2026-03-03"},
		{"bad service id", "/v1/availability?date=2026-03-03&service_ids=abc"},
		{"bad stylist id", "/v1/availability?date=2026-03-03&service_ids=" + uuid.NewString() + "&stylist_id=x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.query, nil)
			req = req.WithContext(common.WithIdentity(req.Context(), uuid.New(), tenantID, models.RoleStaff))
			rec := httptest.NewRecorder()

			require.NoError(t, h.FindSlots(e.NewContext(req, rec)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	availability.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
}

func TestFindSlots_PassesQuery(t *testing.T) {
	e := echo.New()
	availability := new(mockAvailabilityService)
	h := NewAvailabilityHandlers(availability)
	tenantID := uuid.New()
	a, b := uuid.New(), uuid.New()

	availability.On("Find", mock.Anything, tenantID, mock.MatchedBy(func(q *services.AvailabilityQuery) bool {
		return q.Date == "2026-03-03" && len(q.ServiceIDs) == 2 && q.ServiceIDs[0] == a && q.ServiceIDs[1] == b && q.StylistID == nil
	})).Return(&services.AvailabilityResponse{Date: "2026-03-03", DurationMinutes: 90}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/availability?date=2026-03-03&service_ids="+a.String()+","+b.String(), nil)
	req = req.WithContext(common.WithIdentity(req.Context(), uuid.New(), tenantID, models.RoleStaff))
	rec := httptest.NewRecorder()

	require.NoError(t, h.FindSlots(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	availability.AssertExpectations(t)
}

func TestReadinessCheck(t *testing.T) {
	clk := testclock.NewClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		cache      Pinger
		wantStatus int
		wantCache  string
	}{
		{"all dependencies up", ok, http.StatusOK, "healthy"},
		{"cache down", down, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandlers(ok, tt.cache, ok, clk, "test")
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

			require.NoError(t, h.ReadinessCheck(c))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var status HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
			assert.Equal(t, tt.wantCache, status.Services["cache"])
			assert.Equal(t, "healthy", status.Services["database"])
		})
	}
}

func TestLivenessCheck(t *testing.T) {
	clk := testclock.NewClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	h := NewHealthHandlers(nil, nil, nil, clk, "test")
	e := echo.New()
	rec := httptest.NewRecorder()

	require.NoError(t, h.LivenessCheck(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2026-03-02T09:00:00Z")
}
