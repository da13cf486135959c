package analytics

import (
	"context"
	"fmt"
	"time"

	"salonhub/internal/caching"
	"salonhub/internal/common"
	"salonhub/internal/models"
	"salonhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/rs/zerolog"
)

// MaxRangeDays bounds the length of a summary period.
const MaxRangeDays = 366

const pendingPageSize = 500

// ReportService computes the dashboard and period summaries, serving them
// from the report cache when a fresh copy exists.
type ReportService interface {
	Dashboard(ctx context.Context, tenantID uuid.UUID) (*models.DashboardReport, error)
	// RefreshDashboard recomputes today's dashboard and stores it in the
	// cache regardless of what is cached.
	RefreshDashboard(ctx context.Context, tenant *models.Tenant) (*models.DashboardReport, error)
	Summary(ctx context.Context, tenantID uuid.UUID, from, to string) (*models.SummaryReport, error)
}

type reportService struct {
	tenantRepo      repositories.TenantRepository
	appointmentRepo repositories.AppointmentRepository
	orderRepo       repositories.OrderRepository
	clientRepo      repositories.ClientRepository
	productRepo     repositories.ProductRepository
	cache           caching.CacheService
	ttl             time.Duration
	clock           clock.Clock
}

func NewReportService(
	tenantRepo repositories.TenantRepository,
	appointmentRepo repositories.AppointmentRepository,
	orderRepo repositories.OrderRepository,
	clientRepo repositories.ClientRepository,
	productRepo repositories.ProductRepository,
	cache caching.CacheService,
	ttl time.Duration,
	clk clock.Clock,
) ReportService {
	return &reportService{
		tenantRepo:      tenantRepo,
		appointmentRepo: appointmentRepo,
		orderRepo:       orderRepo,
		clientRepo:      clientRepo,
		productRepo:     productRepo,
		cache:           cache,
		ttl:             ttl,
		clock:           clk,
	}
}

func dashboardKey(day string) string { return "dashboard:" + day }

func summaryKey(from, to string) string { return fmt.Sprintf("summary:%s:%s", from, to) }

func (s *reportService) Dashboard(ctx context.Context, tenantID uuid.UUID) (*models.DashboardReport, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	day := s.clock.Now().In(tenant.Location()).Format(dateLayout)
	var cached models.DashboardReport
	if s.readCache(ctx, tenantID, dashboardKey(day), &cached) {
		return &cached, nil
	}
	return s.RefreshDashboard(ctx, tenant)
}

func (s *reportService) RefreshDashboard(ctx context.Context, tenant *models.Tenant) (*models.DashboardReport, error) {
	now := s.clock.Now()
	loc := tenant.Location()
	start, end := dayBounds(now, loc)

	today, err := s.appointmentRepo.ListBetween(ctx, tenant.ID, start, end)
	if err != nil {
		return nil, errors.Annotate(err, "list today's appointments")
	}
	orders, err := s.orderRepo.ListBetween(ctx, tenant.ID, start, end)
	if err != nil {
		return nil, errors.Annotate(err, "list today's orders")
	}
	pending, err := s.allPendingDeposits(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.appointmentRepo.List(ctx, tenant.ID, &models.AppointmentFilter{From: &now, Limit: 50})
	if err != nil {
		return nil, errors.Annotate(err, "list upcoming appointments")
	}
	lowStock, err := s.productRepo.CountLowStock(ctx, tenant.ID)
	if err != nil {
		return nil, errors.Annotate(err, "count low stock")
	}

	report := BuildDashboard(now, loc, today, orders, pending, upcoming, lowStock)
	s.writeCache(ctx, tenant.ID, dashboardKey(report.Date), report)
	return report, nil
}

func (s *reportService) allPendingDeposits(ctx context.Context, tenantID uuid.UUID) ([]*models.Appointment, error) {
	var all []*models.Appointment
	for offset := 0; ; offset += pendingPageSize {
		page, err := s.appointmentRepo.ListPendingDeposits(ctx, tenantID, pendingPageSize, offset)
		if err != nil {
			return nil, errors.Annotate(err, "list pending deposits")
		}
		all = append(all, page...)
		if len(page) < pendingPageSize {
			return all, nil
		}
	}
}

func (s *reportService) Summary(ctx context.Context, tenantID uuid.UUID, fromParam, toParam string) (*models.SummaryReport, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	loc := tenant.Location()

	from, to, err := ParseRange(fromParam, toParam, s.clock.Now(), loc)
	if err != nil {
		return nil, err
	}

	key := summaryKey(from.Format(dateLayout), to.Format(dateLayout))
	var cached models.SummaryReport
	if s.readCache(ctx, tenantID, key, &cached) {
		return &cached, nil
	}

	end := to.AddDate(0, 0, 1)
	appointments, err := s.appointmentRepo.ListBetween(ctx, tenantID, from, end)
	if err != nil {
		return nil, errors.Annotate(err, "list appointments")
	}
	orders, err := s.orderRepo.ListBetween(ctx, tenantID, from, end)
	if err != nil {
		return nil, errors.Annotate(err, "list orders")
	}
	newClients, err := s.clientRepo.CountCreatedBetween(ctx, tenantID, from, end)
	if err != nil {
		return nil, errors.Annotate(err, "count new clients")
	}

	report := Summarize(from, to, loc, appointments, orders, newClients)
	s.writeCache(ctx, tenantID, key, report)
	return report, nil
}

// ParseRange resolves the from/to query values into midnights in loc. Both
// default to the last 30 days ending today.
func ParseRange(fromParam, toParam string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	today, _ := dayBounds(now, loc)
	to := today
	if toParam != "" {
		t, err := common.ParseDateOrTime(toParam, loc)
		if err != nil {
			return time.Time{}, time.Time{}, errors.NewNotValid(err, "invalid to")
		}
		to, _ = dayBounds(t, loc)
	}
	from := to.AddDate(0, 0, -29)
	if fromParam != "" {
		f, err := common.ParseDateOrTime(fromParam, loc)
		if err != nil {
			return time.Time{}, time.Time{}, errors.NewNotValid(err, "invalid from")
		}
		from, _ = dayBounds(f, loc)
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.NotValidf("to before from")
	}
	if days := daysBetween(from, to) + 1; days > MaxRangeDays {
		return time.Time{}, time.Time{}, errors.NotValidf("range of %d days (max %d)", days, MaxRangeDays)
	}
	return from, to, nil
}

// daysBetween counts calendar days, which differ from 24h periods across DST.
func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// readCache reports a hit. Cache failures are logged and treated as misses.
func (s *reportService) readCache(ctx context.Context, tenantID uuid.UUID, name string, dst interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.GetReport(ctx, tenantID, name, dst)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("report", name).Msg("report cache read failed")
		return false
	}
	return hit
}

func (s *reportService) writeCache(ctx context.Context, tenantID uuid.UUID, name string, value interface{}) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	if err := s.cache.SetReport(ctx, tenantID, name, value, s.ttl); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("report", name).Msg("report cache write failed")
	}
}
