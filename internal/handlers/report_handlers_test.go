package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"salonhub/internal/common"
	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReportService struct{ mock.Mock }

func (m *mockReportService) Dashboard(ctx context.Context, tenantID uuid.UUID) (*models.DashboardReport, error) {
	args := m.Called(ctx, tenantID)
	r, _ := args.Get(0).(*models.DashboardReport)
	return r, args.Error(1)
}

func (m *mockReportService) RefreshDashboard(ctx context.Context, tenant *models.Tenant) (*models.DashboardReport, error) {
	args := m.Called(ctx, tenant)
	r, _ := args.Get(0).(*models.DashboardReport)
	return r, args.Error(1)
}

func (m *mockReportService) Summary(ctx context.Context, tenantID uuid.UUID, from, to string) (*models.SummaryReport, error) {
	args := m.Called(ctx, tenantID, from, to)
	r, _ := args.Get(0).(*models.SummaryReport)
	return r, args.Error(1)
}

func reportRequest(target string, tenantID uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(common.WithIdentity(req.Context(), uuid.New(), tenantID, models.RoleManager))
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestSummaryCSV(t *testing.T) {
	reports := new(mockReportService)
	h := NewReportHandlers(reports, new(mockTenantService))
	tenantID := uuid.New()

	reports.On("Summary", mock.Anything, tenantID, "2026-03-01", "2026-03-02").Return(&models.SummaryReport{
		From: "2026-03-01",
		To:   "2026-03-02",
		RevenueByDay: []models.DailyRevenue{
			{Date: "2026-03-01", ServiceRevenue: decimal.NewFromInt(120), ProductRevenue: decimal.NewFromInt(30), Total: decimal.NewFromInt(150)},
			{Date: "2026-03-02", ServiceRevenue: decimal.Zero, ProductRevenue: decimal.Zero, Total: decimal.Zero},
		},
	}, nil)

	c, rec := reportRequest("/v1/reports/summary.csv?from=2026-03-01&to=2026-03-02", tenantID)
	require.NoError(t, h.SummaryCSV(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "revenue_2026-03-01_2026-03-02.csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2026-03-01,120.00,30.00,150.00", lines[1])
	reports.AssertExpectations(t)
}

func TestSummary_InvalidRange(t *testing.T) {
	reports := new(mockReportService)
	h := NewReportHandlers(reports, new(mockTenantService))
	tenantID := uuid.New()

	reports.On("Summary", mock.Anything, tenantID, "2026-03-05", "2026-03-01").
		Return(nil, errors.NotValidf("to before from"))

	c, rec := reportRequest("/v1/reports/summary?from=2026-03-05&to=2026-03-01", tenantID)
	require.NoError(t, h.Summary(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryPDF(t *testing.T) {
	reports := new(mockReportService)
	tenants := new(mockTenantService)
	h := NewReportHandlers(reports, tenants)
	tenantID := uuid.New()

	tenants.On("Get", mock.Anything, tenantID).Return(&models.Tenant{ID: tenantID, Name: "Studio Nine", Currency: "EUR"}, nil)
	reports.On("Summary", mock.Anything, tenantID, "", "").Return(&models.SummaryReport{
		From:                 "2026-02-01",
		To:                   "2026-03-02",
		AppointmentsByStatus: map[string]int{},
	}, nil)

	c, rec := reportRequest("/v1/reports/summary.pdf", tenantID)
	require.NoError(t, h.SummaryPDF(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
}
