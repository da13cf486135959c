package repositories

import (
	"context"
	"fmt"
	"time"

	"salonhub/internal/common"
	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/juju/errors"
)

type AppointmentRepository interface {
	// LockStylist serialises bookings for one stylist until the surrounding
	// transaction ends.
	LockStylist(ctx context.Context, tenantID, stylistID uuid.UUID) error
	// ListBlocking returns appointments that occupy time for the given
	// stylists and overlap [from, to).
	ListBlocking(ctx context.Context, tenantID uuid.UUID, stylistIDs []uuid.UUID, from, to time.Time, excludeID *uuid.UUID) ([]*models.Appointment, error)

	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error)
	List(ctx context.Context, tenantID uuid.UUID, filter *models.AppointmentFilter) ([]*models.Appointment, error)
	ListBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.Appointment, error)
	Reschedule(ctx context.Context, appointment *models.Appointment, fromStatus, fromDeposit string) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// UpdateStatus applies change only if the appointment is still in
	// change.From; otherwise it returns a conflict.
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, change models.StatusChange) error
	// DecideDeposit settles a pending deposit; a deposit that is no longer
	// pending yields a conflict.
	DecideDeposit(ctx context.Context, tenantID, id uuid.UUID, decision models.DepositDecision) error
	ListPendingDeposits(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Appointment, error)
	ExpireDeposits(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]*models.Appointment, error)

	CountUpcomingForStylist(ctx context.Context, tenantID, stylistID uuid.UUID, now time.Time) (int, error)
	CountUpcomingForClient(ctx context.Context, tenantID, clientID uuid.UUID, now time.Time) (int, error)

	ListDueReminders(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.Appointment, error)
	MarkReminderSent(ctx context.Context, tenantID, id uuid.UUID, at time.Time) (bool, error)
}

type appointmentRepo struct {
	db DBTX
}

func NewAppointmentRepo(db DBTX) AppointmentRepository {
	return &appointmentRepo{db: db}
}

const appointmentSelect = `
	SELECT a.id, a.tenant_id, a.client_id, a.stylist_id, a.start_at, a.end_at, a.status, a.notes, a.total_price,
		a.deposit_status, a.deposit_amount, a.deposit_due_at, a.deposit_reference, a.deposit_decided_by,
		a.deposit_decided_at, a.deposit_note, a.cancel_reason, a.cancelled_at, a.completed_at, a.reminder_sent_at,
		a.created_at, a.updated_at,
		TRIM(COALESCE(c.first_name, '') || ' ' || COALESCE(c.last_name, '')), COALESCE(s.name, '')
	FROM appointments a
	LEFT JOIN clients c ON c.id = a.client_id
	LEFT JOIN stylists s ON s.id = a.stylist_id`

func scanAppointment(row pgx.Row) (*models.Appointment, error) {
	a := &models.Appointment{}
	err := row.Scan(&a.ID, &a.TenantID, &a.ClientID, &a.StylistID, &a.StartAt, &a.EndAt, &a.Status, &a.Notes, &a.TotalPrice,
		&a.DepositStatus, &a.DepositAmount, &a.DepositDueAt, &a.DepositReference, &a.DepositDecidedBy,
		&a.DepositDecidedAt, &a.DepositNote, &a.CancelReason, &a.CancelledAt, &a.CompletedAt, &a.ReminderSentAt,
		&a.CreatedAt, &a.UpdatedAt, &a.ClientName, &a.StylistName)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *appointmentRepo) collect(ctx context.Context, query string, args ...interface{}) ([]*models.Appointment, error) {
	rows, err := executor(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err, "appointment")
	}
	defer rows.Close()

	var appointments []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachServices(ctx, appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepo) attachServices(ctx context.Context, appointments []*models.Appointment) error {
	if len(appointments) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(appointments))
	byID := make(map[uuid.UUID]*models.Appointment, len(appointments))
	for _, a := range appointments {
		ids = append(ids, a.ID)
		byID[a.ID] = a
		a.Services = []*models.AppointmentService{}
	}

	query := `
		SELECT id, appointment_id, service_id, service_name, duration_minutes, price, position
		FROM appointment_services
		WHERE appointment_id = ANY($1)
		ORDER BY appointment_id, position
	`
	rows, err := executor(ctx, r.db).Query(ctx, query, ids)
	if err != nil {
		return translateError(err, "appointment services")
	}
	defer rows.Close()

	for rows.Next() {
		line := &models.AppointmentService{}
		if err := rows.Scan(&line.ID, &line.AppointmentID, &line.ServiceID, &line.ServiceName, &line.DurationMinutes, &line.Price, &line.Position); err != nil {
			return err
		}
		if a, ok := byID[line.AppointmentID]; ok {
			a.Services = append(a.Services, line)
		}
	}
	return rows.Err()
}

func (r *appointmentRepo) LockStylist(ctx context.Context, tenantID, stylistID uuid.UUID) error {
	_, err := executor(ctx, r.db).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, tenantID.String()+":"+stylistID.String())
	return errors.Annotate(err, "lock stylist calendar")
}

func (r *appointmentRepo) ListBlocking(ctx context.Context, tenantID uuid.UUID, stylistIDs []uuid.UUID, from, to time.Time, excludeID *uuid.UUID) ([]*models.Appointment, error) {
	query := `
		SELECT id, stylist_id, start_at, end_at, status
		FROM appointments
		WHERE tenant_id = $1 AND stylist_id = ANY($2) AND status = ANY($3)
			AND start_at < $5 AND end_at > $4
	`
	args := []interface{}{tenantID, stylistIDs, models.BlockingStatuses, from, to}
	if excludeID != nil {
		query += ` AND id <> $6`
		args = append(args, *excludeID)
	}
	query += ` ORDER BY start_at`

	rows, err := executor(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err, "appointment")
	}
	defer rows.Close()

	var appointments []*models.Appointment
	for rows.Next() {
		a := &models.Appointment{TenantID: tenantID}
		if err := rows.Scan(&a.ID, &a.StylistID, &a.StartAt, &a.EndAt, &a.Status); err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

func (r *appointmentRepo) Create(ctx context.Context, a *models.Appointment) error {
	db := executor(ctx, r.db)
	query := `
		INSERT INTO appointments (id, tenant_id, client_id, stylist_id, start_at, end_at, status, notes, total_price,
			deposit_status, deposit_amount, deposit_due_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`
	if _, err := db.Exec(ctx, query, a.ID, a.TenantID, a.ClientID, a.StylistID, a.StartAt, a.EndAt, a.Status, a.Notes,
		a.TotalPrice, a.DepositStatus, a.DepositAmount, a.DepositDueAt, a.CreatedAt); err != nil {
		return translateError(err, "appointment")
	}
	return r.insertServices(ctx, a)
}

func (r *appointmentRepo) insertServices(ctx context.Context, a *models.Appointment) error {
	db := executor(ctx, r.db)
	query := `
		INSERT INTO appointment_services (id, appointment_id, service_id, service_name, duration_minutes, price, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i, line := range a.Services {
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.AppointmentID = a.ID
		line.Position = i
		if _, err := db.Exec(ctx, query, line.ID, a.ID, line.ServiceID, line.ServiceName, line.DurationMinutes, line.Price, line.Position); err != nil {
			return translateError(err, "appointment service")
		}
	}
	return nil
}

func (r *appointmentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error) {
	query := appointmentSelect + ` WHERE a.tenant_id = $1 AND a.id = $2`
	a, err := scanAppointment(executor(ctx, r.db).QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return nil, translateError(err, "appointment")
	}
	if err := r.attachServices(ctx, []*models.Appointment{a}); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *appointmentRepo) List(ctx context.Context, tenantID uuid.UUID, filter *models.AppointmentFilter) ([]*models.Appointment, error) {
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	query := appointmentSelect + ` WHERE a.tenant_id = $1`
	args := []interface{}{tenantID}
	conditionCount := 1

	if filter.From != nil {
		conditionCount++
		query += fmt.Sprintf(` AND a.start_at >= $%d`, conditionCount)
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditionCount++
		query += fmt.Sprintf(` AND a.start_at < $%d`, conditionCount)
		args = append(args, *filter.To)
	}
	if filter.StylistID != nil {
		conditionCount++
		query += fmt.Sprintf(` AND a.stylist_id = $%d`, conditionCount)
		args = append(args, *filter.StylistID)
	}
	if filter.ClientID != nil {
		conditionCount++
		query += fmt.Sprintf(` AND a.client_id = $%d`, conditionCount)
		args = append(args, *filter.ClientID)
	}
	if filter.Status != nil {
		conditionCount++
		query += fmt.Sprintf(` AND a.status = $%d`, conditionCount)
		args = append(args, *filter.Status)
	}
	if filter.DepositStatus != nil {
		conditionCount++
		query += fmt.Sprintf(` AND a.deposit_status = $%d`, conditionCount)
		args = append(args, *filter.DepositStatus)
	}

	order := "ASC"
	if filter.ClientID != nil && filter.From == nil {
		// history views read newest first
		order = "DESC"
	}
	query += ` ORDER BY a.start_at ` + order
	conditionCount++
	query += fmt.Sprintf(` LIMIT $%d`, conditionCount)
	args = append(args, filter.Limit)
	conditionCount++
	query += fmt.Sprintf(` OFFSET $%d`, conditionCount)
	args = append(args, filter.Offset)

	return r.collect(ctx, query, args...)
}

func (r *appointmentRepo) ListBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.Appointment, error) {
	query := appointmentSelect + ` WHERE a.tenant_id = $1 AND a.start_at >= $2 AND a.start_at < $3 ORDER BY a.start_at`
	return r.collect(ctx, query, tenantID, from, to)
}

// Reschedule rewrites the appointment's slot, lines and deposit terms. It
// only applies while the row still has fromStatus and fromDeposit.
func (r *appointmentRepo) Reschedule(ctx context.Context, a *models.Appointment, fromStatus, fromDeposit string) error {
	db := executor(ctx, r.db)
	query := `
		UPDATE appointments
		SET stylist_id = $1, start_at = $2, end_at = $3, notes = $4, total_price = $5,
			status = $6, deposit_status = $7, deposit_amount = $8, deposit_due_at = $9, updated_at = NOW()
		WHERE tenant_id = $10 AND id = $11 AND status = $12 AND deposit_status = $13
	`
	tag, err := db.Exec(ctx, query, a.StylistID, a.StartAt, a.EndAt, a.Notes, a.TotalPrice,
		a.Status, a.DepositStatus, a.DepositAmount, a.DepositDueAt,
		a.TenantID, a.ID, fromStatus, fromDeposit)
	if err != nil {
		return translateError(err, "appointment")
	}
	if tag.RowsAffected() == 0 {
		return common.Conflictf("appointment can no longer be changed")
	}

	if _, err := db.Exec(ctx, `DELETE FROM appointment_services WHERE appointment_id = $1`, a.ID); err != nil {
		return translateError(err, "appointment services")
	}
	return r.insertServices(ctx, a)
}

func (r *appointmentRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM appointments WHERE tenant_id = $1 AND id = $2 AND status = $3`
	tag, err := executor(ctx, r.db).Exec(ctx, query, tenantID, id, models.AppointmentCancelled)
	if err != nil {
		return translateError(err, "appointment")
	}
	if tag.RowsAffected() == 0 {
		return common.Conflictf("only cancelled appointments can be deleted")
	}
	return nil
}

func (r *appointmentRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, change models.StatusChange) error {
	query := `
		UPDATE appointments
		SET status = $1,
			cancel_reason = CASE WHEN $1 = 'cancelled' THEN $2 ELSE cancel_reason END,
			cancelled_at = CASE WHEN $1 = 'cancelled' THEN $3 ELSE cancelled_at END,
			completed_at = CASE WHEN $1 = 'completed' THEN $3 ELSE completed_at END,
			updated_at = $3
		WHERE tenant_id = $4 AND id = $5 AND status = $6
	`
	tag, err := executor(ctx, r.db).Exec(ctx, query, change.To, change.CancelReason, change.At, tenantID, id, change.From)
	if err != nil {
		return translateError(err, "appointment")
	}
	if tag.RowsAffected() == 0 {
		return common.Conflictf("appointment is no longer %s", change.From)
	}
	return nil
}

func (r *appointmentRepo) DecideDeposit(ctx context.Context, tenantID, id uuid.UUID, d models.DepositDecision) error {
	query := `
		UPDATE appointments
		SET deposit_status = $1, deposit_reference = COALESCE($2, deposit_reference), deposit_note = $3,
			deposit_decided_by = $4, deposit_decided_at = $5, updated_at = $5
		WHERE tenant_id = $6 AND id = $7 AND deposit_status = $8
	`
	tag, err := executor(ctx, r.db).Exec(ctx, query, d.Status, d.Reference, d.Note, d.DecidedBy, d.At, tenantID, id, models.DepositPending)
	if err != nil {
		return translateError(err, "appointment")
	}
	if tag.RowsAffected() == 0 {
		return common.Conflictf("deposit has already been decided")
	}
	return nil
}

func (r *appointmentRepo) ListPendingDeposits(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Appointment, error) {
	query := appointmentSelect + `
		WHERE a.tenant_id = $1 AND a.deposit_status = $2 AND a.status IN ('pending', 'confirmed')
		ORDER BY a.deposit_due_at ASC NULLS LAST
		LIMIT $3 OFFSET $4`
	return r.collect(ctx, query, tenantID, models.DepositPending, limit, offset)
}

func (r *appointmentRepo) ExpireDeposits(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]*models.Appointment, error) {
	query := `
		UPDATE appointments
		SET deposit_status = $1, status = $2, cancel_reason = $3, cancelled_at = $4, updated_at = $4
		WHERE tenant_id = $5 AND deposit_status = $6 AND deposit_due_at < $4 AND status = ANY($7)
		RETURNING id, client_id, stylist_id, start_at, end_at, deposit_amount, deposit_due_at
	`
	rows, err := executor(ctx, r.db).Query(ctx, query, models.DepositExpired, models.AppointmentCancelled, "deposit expired", now,
		tenantID, models.DepositPending, []string{models.AppointmentPending, models.AppointmentConfirmed})
	if err != nil {
		return nil, translateError(err, "appointment")
	}
	defer rows.Close()

	var expired []*models.Appointment
	for rows.Next() {
		a := &models.Appointment{TenantID: tenantID, Status: models.AppointmentCancelled, DepositStatus: models.DepositExpired}
		if err := rows.Scan(&a.ID, &a.ClientID, &a.StylistID, &a.StartAt, &a.EndAt, &a.DepositAmount, &a.DepositDueAt); err != nil {
			return nil, err
		}
		expired = append(expired, a)
	}
	return expired, rows.Err()
}

func (r *appointmentRepo) countUpcoming(ctx context.Context, column string, tenantID, id uuid.UUID, now time.Time) (int, error) {
	var count int
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM appointments
		WHERE tenant_id = $1 AND %s = $2 AND start_at >= $3 AND status = ANY($4)
	`, column)
	err := executor(ctx, r.db).QueryRow(ctx, query, tenantID, id, now, []string{models.AppointmentPending, models.AppointmentConfirmed}).Scan(&count)
	if err != nil {
		return 0, translateError(err, "appointment")
	}
	return count, nil
}

func (r *appointmentRepo) CountUpcomingForStylist(ctx context.Context, tenantID, stylistID uuid.UUID, now time.Time) (int, error) {
	return r.countUpcoming(ctx, "stylist_id", tenantID, stylistID, now)
}

func (r *appointmentRepo) CountUpcomingForClient(ctx context.Context, tenantID, clientID uuid.UUID, now time.Time) (int, error) {
	return r.countUpcoming(ctx, "client_id", tenantID, clientID, now)
}

func (r *appointmentRepo) ListDueReminders(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.Appointment, error) {
	query := appointmentSelect + `
		WHERE a.tenant_id = $1 AND a.status = $2 AND a.reminder_sent_at IS NULL
			AND a.start_at >= $3 AND a.start_at < $4
		ORDER BY a.start_at`
	return r.collect(ctx, query, tenantID, models.AppointmentConfirmed, from, to)
}

func (r *appointmentRepo) MarkReminderSent(ctx context.Context, tenantID, id uuid.UUID, at time.Time) (bool, error) {
	query := `UPDATE appointments SET reminder_sent_at = $1 WHERE tenant_id = $2 AND id = $3 AND reminder_sent_at IS NULL`
	tag, err := executor(ctx, r.db).Exec(ctx, query, at, tenantID, id)
	if err != nil {
		return false, translateError(err, "appointment")
	}
	return tag.RowsAffected() == 1, nil
}
