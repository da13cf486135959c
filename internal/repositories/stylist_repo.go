package repositories

import (
	"context"

	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/juju/errors"
)

type StylistRepository interface {
	Create(ctx context.Context, stylist *models.Stylist) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Stylist, error)
	Update(ctx context.Context, stylist *models.Stylist) error
	UpdatePhoto(ctx context.Context, tenantID, id uuid.UUID, photoKey *string) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, active *bool) ([]*models.Stylist, error)

	GetSchedule(ctx context.Context, tenantID, stylistID uuid.UUID) ([]*models.Schedule, error)
	GetScheduleForDay(ctx context.Context, tenantID, stylistID uuid.UUID, dayOfWeek int) (*models.Schedule, error)
	// ReplaceSchedule swaps the whole week. Run it inside a transaction.
	ReplaceSchedule(ctx context.Context, tenantID, stylistID uuid.UUID, days []*models.Schedule) error
}

type stylistRepo struct {
	db DBTX
}

func NewStylistRepo(db DBTX) StylistRepository {
	return &stylistRepo{db: db}
}

const stylistColumns = `id, tenant_id, name, email, phone, bio, color, photo_key, commission_rate, active, created_at, updated_at`

func scanStylist(row pgx.Row) (*models.Stylist, error) {
	s := &models.Stylist{}
	if err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.Email, &s.Phone, &s.Bio, &s.Color, &s.PhotoKey,
		&s.CommissionRate, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *stylistRepo) Create(ctx context.Context, stylist *models.Stylist) error {
	query := `
		INSERT INTO stylists (id, tenant_id, name, email, phone, bio, color, commission_rate, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err := executor(ctx, r.db).Exec(ctx, query, stylist.ID, stylist.TenantID, stylist.Name, stylist.Email, stylist.Phone,
		stylist.Bio, stylist.Color, stylist.CommissionRate, stylist.Active)
	return translateError(err, "stylist")
}

func (r *stylistRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Stylist, error) {
	query := `SELECT ` + stylistColumns + ` FROM stylists WHERE tenant_id = $1 AND id = $2`
	stylist, err := scanStylist(executor(ctx, r.db).QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return nil, translateError(err, "stylist")
	}
	return stylist, nil
}

func (r *stylistRepo) Update(ctx context.Context, stylist *models.Stylist) error {
	query := `
		UPDATE stylists
		SET name = $1, email = $2, phone = $3, bio = $4, color = $5, commission_rate = $6, active = $7, updated_at = NOW()
		WHERE tenant_id = $8 AND id = $9
	`
	tag, err := executor(ctx, r.db).Exec(ctx, query, stylist.Name, stylist.Email, stylist.Phone, stylist.Bio, stylist.Color,
		stylist.CommissionRate, stylist.Active, stylist.TenantID, stylist.ID)
	if err != nil {
		return translateError(err, "stylist")
	}
	return expectOne(tag, "stylist")
}

func (r *stylistRepo) UpdatePhoto(ctx context.Context, tenantID, id uuid.UUID, photoKey *string) error {
	query := `UPDATE stylists SET photo_key = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`
	tag, err := executor(ctx, r.db).Exec(ctx, query, photoKey, tenantID, id)
	if err != nil {
		return translateError(err, "stylist")
	}
	return expectOne(tag, "stylist")
}

func (r *stylistRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM stylists WHERE tenant_id = $1 AND id = $2`
	tag, err := executor(ctx, r.db).Exec(ctx, query, tenantID, id)
	if err != nil {
		return translateError(err, "stylist")
	}
	return expectOne(tag, "stylist")
}

func (r *stylistRepo) List(ctx context.Context, tenantID uuid.UUID, active *bool) ([]*models.Stylist, error) {
	query := `SELECT ` + stylistColumns + ` FROM stylists WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if active != nil {
		query += ` AND active = $2`
		args = append(args, *active)
	}
	query += ` ORDER BY name`

	rows, err := executor(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err, "stylist")
	}
	defer rows.Close()

	var stylists []*models.Stylist
	for rows.Next() {
		stylist, err := scanStylist(rows)
		if err != nil {
			return nil, err
		}
		stylists = append(stylists, stylist)
	}
	return stylists, rows.Err()
}

const scheduleColumns = `id, tenant_id, stylist_id, day_of_week, start_time, end_time, break_start, break_end`

func scanSchedule(row pgx.Row) (*models.Schedule, error) {
	s := &models.Schedule{}
	if err := row.Scan(&s.ID, &s.TenantID, &s.StylistID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.BreakStart, &s.BreakEnd); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *stylistRepo) GetSchedule(ctx context.Context, tenantID, stylistID uuid.UUID) ([]*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE tenant_id = $1 AND stylist_id = $2 ORDER BY day_of_week`
	rows, err := executor(ctx, r.db).Query(ctx, query, tenantID, stylistID)
	if err != nil {
		return nil, translateError(err, "schedule")
	}
	defer rows.Close()

	var days []*models.Schedule
	for rows.Next() {
		day, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

// GetScheduleForDay returns nil without error on a day off.
func (r *stylistRepo) GetScheduleForDay(ctx context.Context, tenantID, stylistID uuid.UUID, dayOfWeek int) (*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE tenant_id = $1 AND stylist_id = $2 AND day_of_week = $3`
	day, err := scanSchedule(executor(ctx, r.db).QueryRow(ctx, query, tenantID, stylistID, dayOfWeek))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err, "schedule")
	}
	return day, nil
}

func (r *stylistRepo) ReplaceSchedule(ctx context.Context, tenantID, stylistID uuid.UUID, days []*models.Schedule) error {
	db := executor(ctx, r.db)
	if _, err := db.Exec(ctx, `DELETE FROM schedules WHERE tenant_id = $1 AND stylist_id = $2`, tenantID, stylistID); err != nil {
		return translateError(err, "schedule")
	}

	query := `
		INSERT INTO schedules (id, tenant_id, stylist_id, day_of_week, start_time, end_time, break_start, break_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, day := range days {
		if day.ID == uuid.Nil {
			day.ID = uuid.New()
		}
		day.TenantID = tenantID
		day.StylistID = stylistID
		if _, err := db.Exec(ctx, query, day.ID, tenantID, stylistID, day.DayOfWeek, day.StartTime, day.EndTime, day.BreakStart, day.BreakEnd); err != nil {
			return translateError(err, "schedule")
		}
	}
	return nil
}
