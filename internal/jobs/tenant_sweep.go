// Package jobs holds the periodic work run by the background scheduler.
// Every job walks the active tenants and keeps going when one tenant fails.
package jobs

import (
	"context"
	"sync"

	"salonhub/internal/models"
	"salonhub/internal/repositories"

	"github.com/rs/zerolog"
)

// SweepResult summarises one run of a per-tenant job.
type SweepResult struct {
	TenantsProcessed int
	TenantsFailed    int
	Affected         int
}

// sweepTenants runs fn for every active tenant with at most concurrency
// tenants in flight. fn returns how many records it touched.
func sweepTenants(ctx context.Context, tenantRepo repositories.TenantRepository, logger zerolog.Logger, job string,
	concurrency int, fn func(ctx context.Context, tenant *models.Tenant) (int, error)) (*SweepResult, error) {
	tenants, err := tenantRepo.ListActive(ctx)
	if err != nil {
		logger.Error().Err(err).Str("job", job).Msg("failed to list tenants")
		return nil, err
	}
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = &SweepResult{}
		sem    = make(chan struct{}, concurrency)
	)
	for _, tenant := range tenants {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(tenant *models.Tenant) {
			defer wg.Done()
			defer func() { <-sem }()

			n, err := fn(ctx, tenant)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.TenantsFailed++
				logger.Warn().Err(err).Str("job", job).Str("tenant_id", tenant.ID.String()).Msg("tenant failed")
				return
			}
			result.TenantsProcessed++
			result.Affected += n
		}(tenant)
	}
	wg.Wait()

	return result, ctx.Err()
}
