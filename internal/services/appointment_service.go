package services

import (
	"context"
	"time"

	"salonhub/internal/availability"
	"salonhub/internal/caching"
	"salonhub/internal/common"
	"salonhub/internal/metrics"
	"salonhub/internal/models"
	"salonhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AppointmentService books appointments and moves them and their deposits
// through their lifecycles.
type AppointmentService interface {
	Book(ctx context.Context, actor Actor, req *BookAppointmentRequest) (*models.Appointment, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error)
	List(ctx context.Context, tenantID uuid.UUID, filter *models.AppointmentFilter) ([]*models.Appointment, error)
	Reschedule(ctx context.Context, actor Actor, id uuid.UUID, req *RescheduleRequest) (*models.Appointment, error)
	Transition(ctx context.Context, actor Actor, id uuid.UUID, to string, reason *string) (*models.Appointment, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error

	DecideDeposit(ctx context.Context, actor Actor, id uuid.UUID, status string, req *DepositDecisionRequest) (*models.Appointment, error)
	ListPendingDeposits(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Appointment, error)

	// ExpireDeposits cancels appointments whose deposit deadline has passed.
	ExpireDeposits(ctx context.Context, tenantID uuid.UUID) (int, error)
	// MarkReminders flags confirmed appointments starting within lead.
	MarkReminders(ctx context.Context, tenantID uuid.UUID, lead time.Duration) (int, error)
}

type BookAppointmentRequest struct {
	ClientID    uuid.UUID   `json:"client_id" validate:"required"`
	StylistID   uuid.UUID   `json:"stylist_id" validate:"required"`
	StartAt     time.Time   `json:"start_at" validate:"required"`
	ServiceIDs  []uuid.UUID `json:"service_ids" validate:"required,min=1,max=20"`
	Notes       *string     `json:"notes" validate:"omitempty,max=2000"`
	SkipDeposit bool        `json:"skip_deposit"`
}

type RescheduleRequest struct {
	StartAt    *time.Time  `json:"start_at"`
	StylistID  *uuid.UUID  `json:"stylist_id"`
	ServiceIDs []uuid.UUID `json:"service_ids" validate:"omitempty,max=20"`
	Notes      *string     `json:"notes" validate:"omitempty,max=2000"`
}

type DepositDecisionRequest struct {
	Reference *string `json:"reference" validate:"omitempty,max=120"`
	Note      *string `json:"note" validate:"omitempty,max=1000"`
}

const (
	reasonDepositRejected = "deposit rejected"
)

type appointmentService struct {
	tx              repositories.Transactor
	tenantRepo      repositories.TenantRepository
	clientRepo      repositories.ClientRepository
	stylistRepo     repositories.StylistRepository
	serviceRepo     repositories.ServiceRepository
	appointmentRepo repositories.AppointmentRepository
	audit           AuditLogsService
	cacheSvc        caching.CacheService
	clock           clock.Clock
}

func NewAppointmentService(tx repositories.Transactor, tenantRepo repositories.TenantRepository, clientRepo repositories.ClientRepository,
	stylistRepo repositories.StylistRepository, serviceRepo repositories.ServiceRepository, appointmentRepo repositories.AppointmentRepository,
	audit AuditLogsService, cacheSvc caching.CacheService, clk clock.Clock) AppointmentService {
	return &appointmentService{
		tx:              tx,
		tenantRepo:      tenantRepo,
		clientRepo:      clientRepo,
		stylistRepo:     stylistRepo,
		serviceRepo:     serviceRepo,
		appointmentRepo: appointmentRepo,
		audit:           audit,
		cacheSvc:        cacheSvc,
		clock:           clk,
	}
}

// DepositAmount is percent of total, rounded half away from zero to cents.
func DepositAmount(total, percent decimal.Decimal) decimal.Decimal {
	return total.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
}

// DepositDueAt is the deadline for a deposit: deadlineHours after booking,
// but never later than the appointment itself.
func DepositDueAt(bookedAt, startAt time.Time, deadlineHours int) time.Time {
	due := bookedAt.Add(time.Duration(deadlineHours) * time.Hour)
	if startAt.Before(due) {
		return startAt
	}
	return due
}

func buildLines(appointmentID uuid.UUID, services []*models.Service) ([]*models.AppointmentService, decimal.Decimal) {
	lines := make([]*models.AppointmentService, 0, len(services))
	total := decimal.Zero
	for i, svc := range services {
		lines = append(lines, &models.AppointmentService{
			ID:              uuid.New(),
			AppointmentID:   appointmentID,
			ServiceID:       svc.ID,
			ServiceName:     svc.Name,
			DurationMinutes: svc.DurationMinutes,
			Price:           svc.Price,
			Position:        i,
		})
		total = total.Add(svc.Price)
	}
	return lines, total.Round(2)
}

func lineDuration(lines []*models.AppointmentService) time.Duration {
	var minutes int
	for _, l := range lines {
		minutes += l.DurationMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// reserve locks the stylist and checks that [start, start+duration) fits
// their schedule without overlapping other bookings. It must run inside the
// transaction that writes the appointment.
func (s *appointmentService) reserve(ctx context.Context, tenant *models.Tenant, stylistID uuid.UUID, start time.Time, duration time.Duration, exclude *uuid.UUID) error {
	if err := s.appointmentRepo.LockStylist(ctx, tenant.ID, stylistID); err != nil {
		return err
	}
	loc := tenant.Location()
	local := start.In(loc)
	schedule, err := s.stylistRepo.GetScheduleForDay(ctx, tenant.ID, stylistID, int(local.Weekday()))
	if err != nil {
		return err
	}
	day, err := availability.DayFor(local, loc, schedule)
	if err != nil {
		return err
	}
	booked, err := s.appointmentRepo.ListBlocking(ctx, tenant.ID, []uuid.UUID{stylistID}, start, start.Add(duration), exclude)
	if err != nil {
		return err
	}

	switch err := availability.Check(day, availability.Windows(booked), start, duration); {
	case err == nil:
		return nil
	case errors.Is(err, availability.ErrOverlap):
		metrics.BookingConflict()
		return common.Conflictf("booking conflict")
	case errors.Is(err, availability.ErrDuringBreak):
		return common.Conflictf("appointment overlaps the stylist's break")
	default:
		return common.Conflictf("appointment is outside the stylist's working hours")
	}
}

func (s *appointmentService) activeStylist(ctx context.Context, tenantID, id uuid.UUID) error {
	st, err := s.stylistRepo.GetByID(ctx, tenantID, id)
	if errors.Is(err, errors.NotFound) {
		return errors.NotValidf("stylist_id %s", id)
	}
	if err != nil {
		return err
	}
	if !st.Active {
		return errors.NotValidf("stylist %q is inactive", st.Name)
	}
	return nil
}

func (s *appointmentService) Book(ctx context.Context, actor Actor, req *BookAppointmentRequest) (*models.Appointment, error) {
	if req.SkipDeposit && models.RoleRank(actor.Role) < models.RoleRank(models.RoleManager) {
		return nil, errors.Forbiddenf("only managers can skip the deposit")
	}
	tenant, err := s.tenantRepo.GetByID(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	if _, err := s.clientRepo.GetByID(ctx, actor.TenantID, req.ClientID); err != nil {
		if errors.Is(err, errors.NotFound) {
			return nil, errors.NotValidf("client_id %s", req.ClientID)
		}
		return nil, err
	}
	if err := s.activeStylist(ctx, actor.TenantID, req.StylistID); err != nil {
		return nil, err
	}
	services, err := loadServices(ctx, s.serviceRepo, actor.TenantID, req.ServiceIDs)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	a := &models.Appointment{
		ID:            uuid.New(),
		TenantID:      actor.TenantID,
		ClientID:      req.ClientID,
		StylistID:     req.StylistID,
		StartAt:       req.StartAt.UTC(),
		Notes:         req.Notes,
		Status:        models.AppointmentConfirmed,
		DepositStatus: models.DepositNotRequired,
		DepositAmount: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	a.Services, a.TotalPrice = buildLines(a.ID, services)
	a.EndAt = a.StartAt.Add(lineDuration(a.Services))

	if tenant.DepositRequired && a.TotalPrice.IsPositive() && !req.SkipDeposit {
		amount := DepositAmount(a.TotalPrice, tenant.DepositPercent)
		if amount.IsPositive() {
			due := DepositDueAt(now, a.StartAt, tenant.DepositDeadlineHours)
			a.Status = models.AppointmentPending
			a.DepositStatus = models.DepositPending
			a.DepositAmount = amount
			a.DepositDueAt = &due
		}
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.reserve(ctx, tenant, a.StylistID, a.StartAt, a.Duration(), nil); err != nil {
			return err
		}
		return s.appointmentRepo.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	metrics.AppointmentBooked()
	s.invalidateReports(ctx, actor.TenantID)
	zerolog.Ctx(ctx).Info().
		Str("appointment_id", a.ID.String()).
		Str("stylist_id", a.StylistID.String()).
		Time("start_at", a.StartAt).
		Str("deposit_status", a.DepositStatus).
		Msg("appointment booked")
	return s.Get(ctx, actor.TenantID, a.ID)
}

func (s *appointmentService) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error) {
	a, err := s.appointmentRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	a.FillDepositCountdown(s.clock.Now())
	return a, nil
}

func (s *appointmentService) List(ctx context.Context, tenantID uuid.UUID, filter *models.AppointmentFilter) ([]*models.Appointment, error) {
	if filter == nil {
		filter = &models.AppointmentFilter{}
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, errors.NotValidf("to before from")
	}
	appointments, err := s.appointmentRepo.List(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	for _, a := range appointments {
		a.FillDepositCountdown(now)
	}
	return appointments, nil
}

func (s *appointmentService) Reschedule(ctx context.Context, actor Actor, id uuid.UUID, req *RescheduleRequest) (*models.Appointment, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	a, err := s.appointmentRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if a.Status != models.AppointmentPending && a.Status != models.AppointmentConfirmed {
		return nil, common.Conflictf("%s appointments cannot be rescheduled", a.Status)
	}
	fromStatus, fromDeposit := a.Status, a.DepositStatus

	if req.StylistID != nil && *req.StylistID != a.StylistID {
		if err := s.activeStylist(ctx, actor.TenantID, *req.StylistID); err != nil {
			return nil, err
		}
		a.StylistID = *req.StylistID
	}
	if req.StartAt != nil {
		a.StartAt = req.StartAt.UTC()
	}
	if req.Notes != nil {
		a.Notes = req.Notes
	}
	if len(req.ServiceIDs) > 0 {
		services, err := loadServices(ctx, s.serviceRepo, actor.TenantID, req.ServiceIDs)
		if err != nil {
			return nil, err
		}
		a.Services, a.TotalPrice = buildLines(a.ID, services)
	} else {
		for _, line := range a.Services {
			line.ID = uuid.New()
		}
	}
	a.EndAt = a.StartAt.Add(lineDuration(a.Services))

	if a.DepositStatus == models.DepositPending {
		a.DepositAmount = DepositAmount(a.TotalPrice, tenant.DepositPercent)
		if a.DepositAmount.IsPositive() {
			due := DepositDueAt(a.CreatedAt, a.StartAt, tenant.DepositDeadlineHours)
			a.DepositDueAt = &due
		} else {
			// nothing left to collect
			a.DepositStatus = models.DepositNotRequired
			a.DepositAmount = decimal.Zero
			a.DepositDueAt = nil
			a.Status = models.AppointmentConfirmed
		}
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.reserve(ctx, tenant, a.StylistID, a.StartAt, a.Duration(), &a.ID); err != nil {
			return err
		}
		return s.appointmentRepo.Reschedule(ctx, a, fromStatus, fromDeposit)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx, actor.TenantID)
	return s.Get(ctx, actor.TenantID, id)
}

func (s *appointmentService) Transition(ctx context.Context, actor Actor, id uuid.UUID, to string, reason *string) (*models.Appointment, error) {
	a, err := s.appointmentRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	if !models.CanTransition(a.Status, to) {
		return nil, common.Conflictf("cannot move a %s appointment to %s", a.Status, to)
	}
	switch to {
	case models.AppointmentConfirmed:
		if a.DepositStatus == models.DepositPending {
			return nil, common.Conflictf("deposit is still pending")
		}
	case models.AppointmentCompleted, models.AppointmentNoShow:
		if a.StartAt.After(now) {
			return nil, common.Conflictf("appointment has not started yet")
		}
	}

	change := models.StatusChange{From: a.Status, To: to, At: now}
	if to == models.AppointmentCancelled {
		change.CancelReason = reason
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.appointmentRepo.UpdateStatus(ctx, actor.TenantID, id, change); err != nil {
			return err
		}
		if to == models.AppointmentCompleted {
			if err := s.clientRepo.TouchLastVisit(ctx, actor.TenantID, a.ClientID, now); err != nil {
				return err
			}
		}
		details := map[string]interface{}{"from": change.From, "to": change.To}
		if reason != nil {
			details["reason"] = *reason
		}
		return s.audit.Record(ctx, actor.TenantID, actor.UserRef(), models.AuditAppointmentStatus, models.EntityAppointment, id, details)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx, actor.TenantID)
	return s.Get(ctx, actor.TenantID, id)
}

func (s *appointmentService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	a, err := s.appointmentRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	if a.Status != models.AppointmentCancelled {
		return common.Conflictf("only cancelled appointments can be deleted")
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.appointmentRepo.Delete(ctx, actor.TenantID, id); err != nil {
			return err
		}
		details := map[string]interface{}{"client_id": a.ClientID.String(), "start_at": a.StartAt}
		return s.audit.Record(ctx, actor.TenantID, actor.UserRef(), models.AuditAppointmentDeleted, models.EntityAppointment, id, details)
	})
	if err != nil {
		return err
	}
	s.invalidateReports(ctx, actor.TenantID)
	return nil
}

var depositAuditActions = map[string]string{
	models.DepositReceived: models.AuditDepositReceived,
	models.DepositWaived:   models.AuditDepositWaived,
	models.DepositRejected: models.AuditDepositRejected,
}

func (s *appointmentService) DecideDeposit(ctx context.Context, actor Actor, id uuid.UUID, status string, req *DepositDecisionRequest) (*models.Appointment, error) {
	action, ok := depositAuditActions[status]
	if !ok {
		return nil, errors.NotValidf("deposit decision %q", status)
	}
	if status == models.DepositWaived && models.RoleRank(actor.Role) < models.RoleRank(models.RoleManager) {
		return nil, errors.Forbiddenf("only managers can waive deposits")
	}
	if status == models.DepositRejected && (req.Note == nil || *req.Note == "") {
		return nil, errors.NotValidf("note is required when rejecting a deposit")
	}

	a, err := s.appointmentRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if a.DepositStatus != models.DepositPending {
		return nil, common.Conflictf("deposit is %s, not pending", a.DepositStatus)
	}
	if a.Status != models.AppointmentPending && a.Status != models.AppointmentConfirmed {
		return nil, common.Conflictf("appointment is %s", a.Status)
	}

	now := s.clock.Now().UTC()
	decision := models.DepositDecision{
		Status:    status,
		Reference: req.Reference,
		Note:      req.Note,
		DecidedBy: actor.UserRef(),
		At:        now,
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.appointmentRepo.DecideDeposit(ctx, actor.TenantID, id, decision); err != nil {
			return err
		}

		var change *models.StatusChange
		switch {
		case status == models.DepositRejected:
			reason := reasonDepositRejected
			change = &models.StatusChange{From: a.Status, To: models.AppointmentCancelled, At: now, CancelReason: &reason}
		case a.Status == models.AppointmentPending:
			change = &models.StatusChange{From: a.Status, To: models.AppointmentConfirmed, At: now}
		}
		if change != nil {
			if err := s.appointmentRepo.UpdateStatus(ctx, actor.TenantID, id, *change); err != nil {
				return err
			}
		}

		details := map[string]interface{}{"amount": a.DepositAmount.StringFixed(2)}
		if req.Reference != nil {
			details["reference"] = *req.Reference
		}
		if req.Note != nil {
			details["note"] = *req.Note
		}
		if change != nil {
			details["appointment_status"] = change.To
		}
		return s.audit.Record(ctx, actor.TenantID, actor.UserRef(), action, models.EntityAppointment, id, details)
	})
	if err != nil {
		return nil, err
	}

	metrics.DepositDecided(status)
	s.invalidateReports(ctx, actor.TenantID)
	return s.Get(ctx, actor.TenantID, id)
}

func (s *appointmentService) ListPendingDeposits(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Appointment, error) {
	appointments, err := s.appointmentRepo.ListPendingDeposits(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	for _, a := range appointments {
		a.FillDepositCountdown(now)
	}
	return appointments, nil
}

func (s *appointmentService) ExpireDeposits(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var expired []*models.Appointment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		expired, err = s.appointmentRepo.ExpireDeposits(ctx, tenantID, s.clock.Now().UTC())
		if err != nil {
			return err
		}
		for _, a := range expired {
			details := map[string]interface{}{
				"amount":             a.DepositAmount.StringFixed(2),
				"appointment_status": models.AppointmentCancelled,
			}
			if a.DepositDueAt != nil {
				details["due_at"] = a.DepositDueAt.UTC()
			}
			if err := s.audit.Record(ctx, tenantID, nil, models.AuditDepositExpired, models.EntityAppointment, a.ID, details); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for range expired {
		metrics.DepositDecided(models.DepositExpired)
	}
	if len(expired) > 0 {
		s.invalidateReports(ctx, tenantID)
	}
	return len(expired), nil
}

func (s *appointmentService) MarkReminders(ctx context.Context, tenantID uuid.UUID, lead time.Duration) (int, error) {
	now := s.clock.Now().UTC()
	due, err := s.appointmentRepo.ListDueReminders(ctx, tenantID, now, now.Add(lead))
	if err != nil {
		return 0, err
	}
	logger := zerolog.Ctx(ctx)
	marked := 0
	for _, a := range due {
		ok, err := s.appointmentRepo.MarkReminderSent(ctx, tenantID, a.ID, now)
		if err != nil {
			return marked, err
		}
		if !ok {
			continue
		}
		marked++
		logger.Info().
			Str("tenant_id", tenantID.String()).
			Str("appointment_id", a.ID.String()).
			Str("client", a.ClientName).
			Time("start_at", a.StartAt).
			Msg("appointment reminder due")
	}
	return marked, nil
}

func (s *appointmentService) invalidateReports(ctx context.Context, tenantID uuid.UUID) {
	if err := s.cacheSvc.InvalidateReports(ctx, tenantID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("invalidate report cache")
	}
}
