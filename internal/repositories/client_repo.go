package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"salonhub/internal/common"
	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error)
	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter *models.ClientFilter) ([]*models.Client, error)
	TouchLastVisit(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error
	CountCreatedBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int, error)
	Lifetime(ctx context.Context, tenantID, id uuid.UUID) (*models.ClientLifetime, error)
}

type clientRepo struct {
	db DBTX
}

func NewClientRepo(db DBTX) ClientRepository {
	return &clientRepo{db: db}
}

const clientColumns = `id, tenant_id, first_name, last_name, email, phone, birthday, notes, marketing_opt_in, last_visit_at, created_at, updated_at`

func scanClient(row pgx.Row) (*models.Client, error) {
	c := &models.Client{}
	if err := row.Scan(&c.ID, &c.TenantID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Birthday, &c.Notes,
		&c.MarketingOptIn, &c.LastVisitAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *clientRepo) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (id, tenant_id, first_name, last_name, email, phone, birthday, notes, marketing_opt_in, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err := executor(ctx, r.db).Exec(ctx, query, client.ID, client.TenantID, client.FirstName, client.LastName, client.Email,
		client.Phone, client.Birthday, client.Notes, client.MarketingOptIn)
	return translateError(err, "client")
}

func (r *clientRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE tenant_id = $1 AND id = $2`
	client, err := scanClient(executor(ctx, r.db).QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return nil, translateError(err, "client")
	}
	return client, nil
}

func (r *clientRepo) Update(ctx context.Context, client *models.Client) error {
	query := `
		UPDATE clients
		SET first_name = $1, last_name = $2, email = $3, phone = $4, birthday = $5, notes = $6, marketing_opt_in = $7, updated_at = NOW()
		WHERE tenant_id = $8 AND id = $9
	`
	tag, err := executor(ctx, r.db).Exec(ctx, query, client.FirstName, client.LastName, client.Email, client.Phone, client.Birthday,
		client.Notes, client.MarketingOptIn, client.TenantID, client.ID)
	if err != nil {
		return translateError(err, "client")
	}
	return expectOne(tag, "client")
}

func (r *clientRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM clients WHERE tenant_id = $1 AND id = $2`
	tag, err := executor(ctx, r.db).Exec(ctx, query, tenantID, id)
	if err != nil {
		return translateError(err, "client")
	}
	return expectOne(tag, "client")
}

func (r *clientRepo) List(ctx context.Context, tenantID uuid.UUID, filter *models.ClientFilter) ([]*models.Client, error) {
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	query := `SELECT ` + clientColumns + ` FROM clients WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	conditionCount := 1

	if filter.Query != "" {
		conditionCount++
		query += fmt.Sprintf(` AND (
			first_name ILIKE $%d ESCAPE '\' OR
			last_name ILIKE $%d ESCAPE '\' OR
			COALESCE(email, '') ILIKE $%d ESCAPE '\' OR
			COALESCE(phone, '') ILIKE $%d ESCAPE '\'
		)`, conditionCount, conditionCount, conditionCount, conditionCount)
		args = append(args, "%"+common.EscapeLike(filter.Query)+"%")
	}

	sortField := "last_name, first_name"
	switch filter.SortBy {
	case "created_at":
		sortField = "created_at"
	case "last_visit_at":
		sortField = "last_visit_at"
	}
	sortOrder := "ASC"
	if strings.ToLower(filter.SortOrder) == "desc" {
		sortOrder = "DESC"
	}
	if sortField == "last_name, first_name" {
		query += fmt.Sprintf(` ORDER BY last_name %s, first_name %s`, sortOrder, sortOrder)
	} else {
		query += fmt.Sprintf(` ORDER BY %s %s NULLS LAST`, sortField, sortOrder)
	}

	conditionCount++
	query += fmt.Sprintf(` LIMIT $%d`, conditionCount)
	args = append(args, filter.Limit)
	conditionCount++
	query += fmt.Sprintf(` OFFSET $%d`, conditionCount)
	args = append(args, filter.Offset)

	rows, err := executor(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err, "client")
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

func (r *clientRepo) TouchLastVisit(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE clients SET last_visit_at = GREATEST(COALESCE(last_visit_at, $1), $1), updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3
	`
	_, err := executor(ctx, r.db).Exec(ctx, query, at, tenantID, id)
	return translateError(err, "client")
}

func (r *clientRepo) CountCreatedBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM clients WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3`
	if err := executor(ctx, r.db).QueryRow(ctx, query, tenantID, from, to).Scan(&count); err != nil {
		return 0, translateError(err, "client")
	}
	return count, nil
}

// Lifetime sums everything the client has paid across completed
// appointments and completed orders.
func (r *clientRepo) Lifetime(ctx context.Context, tenantID, id uuid.UUID) (*models.ClientLifetime, error) {
	query := `
		SELECT
			COALESCE((SELECT SUM(total_price) FROM appointments
				WHERE tenant_id = $1 AND client_id = $2 AND status = $3), 0),
			(SELECT COUNT(*) FROM appointments
				WHERE tenant_id = $1 AND client_id = $2 AND status = $3),
			COALESCE((SELECT SUM(total) FROM orders
				WHERE tenant_id = $1 AND client_id = $2 AND status = $4), 0)
	`
	var appointmentSpend, orderSpend decimal.Decimal
	lt := &models.ClientLifetime{}
	err := executor(ctx, r.db).QueryRow(ctx, query, tenantID, id, models.AppointmentCompleted, models.OrderStatusCompleted).
		Scan(&appointmentSpend, &lt.VisitCount, &orderSpend)
	if err != nil {
		return nil, translateError(err, "client")
	}
	lt.Spend = appointmentSpend.Add(orderSpend).Round(2)
	return lt, nil
}
