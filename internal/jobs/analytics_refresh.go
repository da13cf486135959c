package jobs

import (
	"context"

	"salonhub/internal/models"
	"salonhub/internal/repositories"

	"github.com/rs/zerolog"
)

const warmupConcurrency = 5

// DashboardRefresher recomputes and caches a tenant's dashboard.
type DashboardRefresher interface {
	RefreshDashboard(ctx context.Context, tenant *models.Tenant) (*models.DashboardReport, error)
}

type AnalyticsRefreshService struct {
	tenantRepo repositories.TenantRepository
	reports    DashboardRefresher
	logger     zerolog.Logger
}

func NewAnalyticsRefreshService(tenantRepo repositories.TenantRepository, reports DashboardRefresher, logger zerolog.Logger) *AnalyticsRefreshService {
	return &AnalyticsRefreshService{
		tenantRepo: tenantRepo,
		reports:    reports,
		logger:     logger,
	}
}

// WarmDashboards precomputes today's dashboard for every active tenant so
// the first request of the hour is served from cache.
func (a *AnalyticsRefreshService) WarmDashboards(ctx context.Context) (*SweepResult, error) {
	result, err := sweepTenants(ctx, a.tenantRepo, a.logger, "report-warmup", warmupConcurrency,
		func(ctx context.Context, tenant *models.Tenant) (int, error) {
			if _, err := a.reports.RefreshDashboard(ctx, tenant); err != nil {
				return 0, err
			}
			return 1, nil
		})
	if err != nil {
		return result, err
	}
	a.logger.Debug().Int("tenants", result.TenantsProcessed).Int("failed", result.TenantsFailed).Msg("dashboards warmed")
	return result, nil
}
