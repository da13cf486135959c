package jobs

import (
	"context"
	"time"

	"salonhub/internal/models"
	"salonhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AppointmentSweeper is the part of the appointment service the sweeps need.
type AppointmentSweeper interface {
	ExpireDeposits(ctx context.Context, tenantID uuid.UUID) (int, error)
	MarkReminders(ctx context.Context, tenantID uuid.UUID, lead time.Duration) (int, error)
}

type AppointmentSweepService struct {
	tenantRepo   repositories.TenantRepository
	appointments AppointmentSweeper
	reminderLead time.Duration
	logger       zerolog.Logger
}

func NewAppointmentSweepService(tenantRepo repositories.TenantRepository, appointments AppointmentSweeper,
	reminderLead time.Duration, logger zerolog.Logger) *AppointmentSweepService {
	return &AppointmentSweepService{
		tenantRepo:   tenantRepo,
		appointments: appointments,
		reminderLead: reminderLead,
		logger:       logger,
	}
}

// ExpireDeposits cancels every appointment whose deposit deadline has
// passed, tenant by tenant.
func (s *AppointmentSweepService) ExpireDeposits(ctx context.Context) (*SweepResult, error) {
	result, err := sweepTenants(ctx, s.tenantRepo, s.logger, "deposit-expiry", 1,
		func(ctx context.Context, tenant *models.Tenant) (int, error) {
			return s.appointments.ExpireDeposits(ctx, tenant.ID)
		})
	if err != nil {
		return result, err
	}
	if result.Affected > 0 {
		s.logger.Info().Int("expired", result.Affected).Int("tenants", result.TenantsProcessed).Msg("expired unpaid deposits")
	}
	return result, nil
}

// MarkReminders flags confirmed appointments starting within the reminder
// lead time.
func (s *AppointmentSweepService) MarkReminders(ctx context.Context) (*SweepResult, error) {
	result, err := sweepTenants(ctx, s.tenantRepo, s.logger, "appointment-reminders", 1,
		func(ctx context.Context, tenant *models.Tenant) (int, error) {
			return s.appointments.MarkReminders(ctx, tenant.ID, s.reminderLead)
		})
	if err != nil {
		return result, err
	}
	if result.Affected > 0 {
		s.logger.Info().Int("reminders", result.Affected).Dur("lead", s.reminderLead).Msg("appointment reminders due")
	}
	return result, nil
}
