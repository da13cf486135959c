package repositories

import (
	"context"
	"fmt"

	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ServiceRepository interface {
	Create(ctx context.Context, service *models.Service) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Service, error)
	// GetByIDs returns the services found, keyed by id.
	GetByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*models.Service, error)
	Update(ctx context.Context, service *models.Service) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	Deactivate(ctx context.Context, tenantID, id uuid.UUID) error
	IsReferenced(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
	List(ctx context.Context, tenantID uuid.UUID, filter *models.ServiceFilter) ([]*models.Service, error)
}

type serviceRepo struct {
	db DBTX
}

func NewServiceRepo(db DBTX) ServiceRepository {
	return &serviceRepo{db: db}
}

const serviceColumns = `id, tenant_id, category_id, name, description, duration_minutes, price, active, created_at, updated_at`

func scanService(row pgx.Row) (*models.Service, error) {
	s := &models.Service{}
	if err := row.Scan(&s.ID, &s.TenantID, &s.CategoryID, &s.Name, &s.Description, &s.DurationMinutes, &s.Price,
		&s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *serviceRepo) Create(ctx context.Context, service *models.Service) error {
	query := `
		INSERT INTO services (id, tenant_id, category_id, name, description, duration_minutes, price, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := executor(ctx, r.db).Exec(ctx, query, service.ID, service.TenantID, service.CategoryID, service.Name,
		service.Description, service.DurationMinutes, service.Price, service.Active)
	return translateError(err, "service")
}

func (r *serviceRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE tenant_id = $1 AND id = $2`
	service, err := scanService(executor(ctx, r.db).QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return nil, translateError(err, "service")
	}
	return service, nil
}

func (r *serviceRepo) GetByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE tenant_id = $1 AND id = ANY($2)`
	rows, err := executor(ctx, r.db).Query(ctx, query, tenantID, ids)
	if err != nil {
		return nil, translateError(err, "service")
	}
	defer rows.Close()

	services := make(map[uuid.UUID]*models.Service, len(ids))
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services[service.ID] = service
	}
	return services, rows.Err()
}

func (r *serviceRepo) Update(ctx context.Context, service *models.Service) error {
	query := `
		UPDATE services
		SET category_id = $1, name = $2, description = $3, duration_minutes = $4, price = $5, active = $6, updated_at = NOW()
		WHERE tenant_id = $7 AND id = $8
	`
	tag, err := executor(ctx, r.db).Exec(ctx, query, service.CategoryID, service.Name, service.Description,
		service.DurationMinutes, service.Price, service.Active, service.TenantID, service.ID)
	if err != nil {
		return translateError(err, "service")
	}
	return expectOne(tag, "service")
}

func (r *serviceRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM services WHERE tenant_id = $1 AND id = $2`
	tag, err := executor(ctx, r.db).Exec(ctx, query, tenantID, id)
	if err != nil {
		return translateError(err, "service")
	}
	return expectOne(tag, "service")
}

func (r *serviceRepo) Deactivate(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `UPDATE services SET active = FALSE, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`
	tag, err := executor(ctx, r.db).Exec(ctx, query, tenantID, id)
	if err != nil {
		return translateError(err, "service")
	}
	return expectOne(tag, "service")
}

func (r *serviceRepo) IsReferenced(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	var referenced bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointment_services aps
			JOIN appointments a ON a.id = aps.appointment_id
			WHERE a.tenant_id = $1 AND aps.service_id = $2
		)
	`
	if err := executor(ctx, r.db).QueryRow(ctx, query, tenantID, id).Scan(&referenced); err != nil {
		return false, translateError(err, "service")
	}
	return referenced, nil
}

func (r *serviceRepo) List(ctx context.Context, tenantID uuid.UUID, filter *models.ServiceFilter) ([]*models.Service, error) {
	if filter.Limit == 0 {
		filter.Limit = 100
	}

	query := `SELECT ` + serviceColumns + ` FROM services WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	conditionCount := 1

	if filter.CategoryID != nil {
		conditionCount++
		query += fmt.Sprintf(` AND category_id = $%d`, conditionCount)
		args = append(args, *filter.CategoryID)
	}
	if filter.Active != nil {
		conditionCount++
		query += fmt.Sprintf(` AND active = $%d`, conditionCount)
		args = append(args, *filter.Active)
	}

	query += ` ORDER BY name`
	conditionCount++
	query += fmt.Sprintf(` LIMIT $%d`, conditionCount)
	args = append(args, filter.Limit)
	conditionCount++
	query += fmt.Sprintf(` OFFSET $%d`, conditionCount)
	args = append(args, filter.Offset)

	rows, err := executor(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err, "service")
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, service)
	}
	return services, rows.Err()
}
