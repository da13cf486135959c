package analytics

import (
	"context"
	"testing"
	"time"

	"salonhub/internal/models"
	"salonhub/testhelpers"

	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ReportServiceTestSuite struct {
	suite.Suite
	clock           *testclock.Clock
	tenantRepo      *testhelpers.MockTenantRepository
	appointmentRepo *testhelpers.MockAppointmentRepository
	orderRepo       *testhelpers.MockOrderRepository
	clientRepo      *testhelpers.MockClientRepository
	productRepo     *testhelpers.MockProductRepository
	cache           *testhelpers.MockCacheService
	service         ReportService
	tenant          *models.Tenant
	ctx             context.Context
}

func (suite *ReportServiceTestSuite) SetupTest() {
	suite.clock = testclock.NewClock(time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC))
	suite.tenantRepo = &testhelpers.MockTenantRepository{}
	suite.appointmentRepo = &testhelpers.MockAppointmentRepository{}
	suite.orderRepo = &testhelpers.MockOrderRepository{}
	suite.clientRepo = &testhelpers.MockClientRepository{}
	suite.productRepo = &testhelpers.MockProductRepository{}
	suite.cache = &testhelpers.MockCacheService{}
	suite.service = NewReportService(suite.tenantRepo, suite.appointmentRepo, suite.orderRepo, suite.clientRepo,
		suite.productRepo, suite.cache, 5*time.Minute, suite.clock)
	suite.tenant = &models.Tenant{ID: uuid.New(), Name: "Cut Above", Timezone: "UTC", Status: models.TenantStatusActive}
	suite.ctx = context.Background()
}

func (suite *ReportServiceTestSuite) TearDownTest() {
	suite.tenantRepo.AssertExpectations(suite.T())
	suite.appointmentRepo.AssertExpectations(suite.T())
	suite.orderRepo.AssertExpectations(suite.T())
	suite.clientRepo.AssertExpectations(suite.T())
	suite.productRepo.AssertExpectations(suite.T())
	suite.cache.AssertExpectations(suite.T())
}

func TestReportServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReportServiceTestSuite))
}

func (suite *ReportServiceTestSuite) TestDashboard_CacheHit() {
	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenant.ID).Return(suite.tenant, nil)
	suite.cache.On("GetReport", suite.ctx, suite.tenant.ID, "dashboard:2026-03-02", mock.AnythingOfType("*models.DashboardReport")).
		Run(func(args mock.Arguments) {
			dst := args.Get(3).(*models.DashboardReport)
			dst.Date = "2026-03-02"
			dst.LowStockProducts = 7
		}).Return(true, nil)

	report, err := suite.service.Dashboard(suite.ctx, suite.tenant.ID)
	suite.Require().NoError(err)
	suite.Equal(7, report.LowStockProducts)
}

func (suite *ReportServiceTestSuite) TestDashboard_MissComputesAndCaches() {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	now := suite.clock.Now()

	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenant.ID).Return(suite.tenant, nil)
	suite.cache.On("GetReport", suite.ctx, suite.tenant.ID, "dashboard:2026-03-02", mock.Anything).Return(false, nil)
	suite.appointmentRepo.On("ListBetween", suite.ctx, suite.tenant.ID, start, end).Return([]*models.Appointment{
		{Status: models.AppointmentConfirmed, TotalPrice: dec("45.00"), StartAt: now.Add(time.Hour)},
	}, nil)
	suite.orderRepo.On("ListBetween", suite.ctx, suite.tenant.ID, start, end).Return([]*models.Order{}, nil)
	suite.appointmentRepo.On("ListPendingDeposits", suite.ctx, suite.tenant.ID, pendingPageSize, 0).Return([]*models.Appointment{}, nil)
	suite.appointmentRepo.On("List", suite.ctx, suite.tenant.ID, mock.MatchedBy(func(f *models.AppointmentFilter) bool {
		return f.From != nil && f.From.Equal(now)
	})).Return([]*models.Appointment{}, nil)
	suite.productRepo.On("CountLowStock", suite.ctx, suite.tenant.ID).Return(2, nil)
	suite.cache.On("SetReport", suite.ctx, suite.tenant.ID, "dashboard:2026-03-02", mock.AnythingOfType("*models.DashboardReport"), 5*time.Minute).Return(nil)

	report, err := suite.service.Dashboard(suite.ctx, suite.tenant.ID)
	suite.Require().NoError(err)
	suite.True(dec("45.00").Equal(report.ExpectedServiceRevenue))
	suite.Equal(2, report.LowStockProducts)
	suite.Equal(1, report.AppointmentsByStatus[models.AppointmentConfirmed])
}

func (suite *ReportServiceTestSuite) TestDashboard_CacheErrorFallsThrough() {
	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenant.ID).Return(suite.tenant, nil)
	suite.cache.On("GetReport", suite.ctx, suite.tenant.ID, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	suite.appointmentRepo.On("ListBetween", suite.ctx, suite.tenant.ID, mock.Anything, mock.Anything).Return([]*models.Appointment{}, nil)
	suite.orderRepo.On("ListBetween", suite.ctx, suite.tenant.ID, mock.Anything, mock.Anything).Return([]*models.Order{}, nil)
	suite.appointmentRepo.On("ListPendingDeposits", suite.ctx, suite.tenant.ID, pendingPageSize, 0).Return([]*models.Appointment{}, nil)
	suite.appointmentRepo.On("List", suite.ctx, suite.tenant.ID, mock.Anything).Return([]*models.Appointment{}, nil)
	suite.productRepo.On("CountLowStock", suite.ctx, suite.tenant.ID).Return(0, nil)
	suite.cache.On("SetReport", suite.ctx, suite.tenant.ID, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	report, err := suite.service.Dashboard(suite.ctx, suite.tenant.ID)
	suite.Require().NoError(err)
	suite.Equal("2026-03-02", report.Date)
}

func (suite *ReportServiceTestSuite) TestSummary_Computes() {
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	end := to.AddDate(0, 0, 1)

	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenant.ID).Return(suite.tenant, nil)
	suite.cache.On("GetReport", suite.ctx, suite.tenant.ID, "summary:2026-02-01:2026-02-28", mock.Anything).Return(false, nil)
	suite.appointmentRepo.On("ListBetween", suite.ctx, suite.tenant.ID, from, end).Return([]*models.Appointment{
		completedAppointment(uuid.New(), "Sam", from.Add(10*time.Hour), line(uuid.New(), "Cut", "50.00")),
	}, nil)
	suite.orderRepo.On("ListBetween", suite.ctx, suite.tenant.ID, from, end).Return([]*models.Order{}, nil)
	suite.clientRepo.On("CountCreatedBetween", suite.ctx, suite.tenant.ID, from, end).Return(3, nil)
	suite.cache.On("SetReport", suite.ctx, suite.tenant.ID, "summary:2026-02-01:2026-02-28", mock.AnythingOfType("*models.SummaryReport"), 5*time.Minute).Return(nil)

	report, err := suite.service.Summary(suite.ctx, suite.tenant.ID, "2026-02-01", "2026-02-28")
	suite.Require().NoError(err)
	suite.Len(report.RevenueByDay, 28)
	suite.Equal(3, report.NewClients)
	suite.True(dec("50.00").Equal(report.TotalRevenue))
}

func (suite *ReportServiceTestSuite) TestSummary_InvalidRange() {
	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenant.ID).Return(suite.tenant, nil)

	_, err := suite.service.Summary(suite.ctx, suite.tenant.ID, "2026-03-10", "2026-03-01")
	suite.True(errors.Is(err, errors.NotValid))
}

func (suite *ReportServiceTestSuite) TestSummary_UnknownTenant() {
	suite.tenantRepo.On("GetByID", suite.ctx, suite.tenant.ID).Return(nil, errors.NotFoundf("tenant"))

	_, err := suite.service.Summary(suite.ctx, suite.tenant.ID, "", "")
	suite.True(errors.Is(err, errors.NotFound))
}

func TestAllPendingDeposits_Pages(t *testing.T) {
	tenantID := uuid.New()
	repo := &testhelpers.MockAppointmentRepository{}
	full := make([]*models.Appointment, pendingPageSize)
	for i := range full {
		full[i] = &models.Appointment{ID: uuid.New()}
	}
	repo.On("ListPendingDeposits", mock.Anything, tenantID, pendingPageSize, 0).Return(full, nil)
	repo.On("ListPendingDeposits", mock.Anything, tenantID, pendingPageSize, pendingPageSize).Return([]*models.Appointment{{ID: uuid.New()}}, nil)

	svc := &reportService{appointmentRepo: repo}
	all, err := svc.allPendingDeposits(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Len(t, all, pendingPageSize+1)
	repo.AssertExpectations(t)
}
