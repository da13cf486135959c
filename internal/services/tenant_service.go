package services

import (
	"context"
	"strings"
	"time"

	"salonhub/internal/caching"
	"salonhub/internal/models"
	"salonhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TenantService manages the business profile and settings.
type TenantService interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)
	Update(ctx context.Context, tenantID uuid.UUID, req *models.TenantSettingsUpdate) (*models.Tenant, error)
}

type tenantService struct {
	tenantRepo repositories.TenantRepository
	cacheSvc   caching.CacheService
}

func NewTenantService(tenantRepo repositories.TenantRepository, cacheSvc caching.CacheService) TenantService {
	return &tenantService{tenantRepo: tenantRepo, cacheSvc: cacheSvc}
}

func (s *tenantService) Get(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	return s.tenantRepo.GetByID(ctx, tenantID)
}

var hundred = decimal.NewFromInt(100)

func percentInRange(field string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return errors.NotValidf("%s must be between 0 and 100, got %s", field, v)
	}
	return nil
}

func (s *tenantService) Update(ctx context.Context, tenantID uuid.UUID, req *models.TenantSettingsUpdate) (*models.Tenant, error) {
	existing, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		existing.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		existing.Email = req.Email
	}
	if req.Phone != nil {
		existing.Phone = req.Phone
	}
	if req.Address != nil {
		existing.Address = req.Address
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil || *req.Timezone == "" {
			return nil, errors.NotValidf("timezone %q", *req.Timezone)
		}
		existing.Timezone = *req.Timezone
	}
	if req.Currency != nil {
		existing.Currency = strings.ToUpper(*req.Currency)
	}
	if req.TaxRate != nil {
		if err := percentInRange("tax_rate", *req.TaxRate); err != nil {
			return nil, err
		}
		existing.TaxRate = req.TaxRate.Round(2)
	}
	if req.SlotIntervalMinutes != nil {
		if !allowedInterval(*req.SlotIntervalMinutes) {
			return nil, errors.NotValidf("slot_interval_minutes %d", *req.SlotIntervalMinutes)
		}
		existing.SlotIntervalMinutes = *req.SlotIntervalMinutes
	}
	if req.BookingLeadMinutes != nil {
		existing.BookingLeadMinutes = *req.BookingLeadMinutes
	}
	if req.DepositRequired != nil {
		existing.DepositRequired = *req.DepositRequired
	}
	if req.DepositPercent != nil {
		if err := percentInRange("deposit_percent", *req.DepositPercent); err != nil {
			return nil, err
		}
		existing.DepositPercent = req.DepositPercent.Round(2)
	}
	if req.DepositDeadlineHours != nil {
		existing.DepositDeadlineHours = *req.DepositDeadlineHours
	}
	if req.BankDetails != nil {
		existing.BankDetails = req.BankDetails
	}

	if existing.DepositRequired && !existing.DepositPercent.IsPositive() {
		return nil, errors.NotValidf("deposit_percent must be positive when deposits are required")
	}

	if err := s.tenantRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	// Timezone and tax changes alter cached reports.
	if err := s.cacheSvc.InvalidateReports(ctx, tenantID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("invalidate report cache")
	}
	return existing, nil
}

func allowedInterval(minutes int) bool {
	for _, m := range models.AllowedSlotIntervals {
		if m == minutes {
			return true
		}
	}
	return false
}
