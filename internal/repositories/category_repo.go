package repositories

import (
	"context"

	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CategoryRepository stores both service and product categories; every call
// is scoped to one kind.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, tenantID uuid.UUID, kind string, id uuid.UUID) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, tenantID uuid.UUID, kind string, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, kind string) ([]*models.Category, error)
}

type categoryRepo struct {
	db DBTX
}

func NewCategoryRepo(db DBTX) CategoryRepository {
	return &categoryRepo{db: db}
}

const categoryColumns = `id, tenant_id, kind, name, description, sort_order, created_at, updated_at`

func scanCategory(row pgx.Row) (*models.Category, error) {
	c := &models.Category{}
	if err := row.Scan(&c.ID, &c.TenantID, &c.Kind, &c.Name, &c.Description, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *categoryRepo) Create(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (id, tenant_id, kind, name, description, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := executor(ctx, r.db).Exec(ctx, query, category.ID, category.TenantID, category.Kind, category.Name,
		category.Description, category.SortOrder)
	return translateError(err, "category")
}

func (r *categoryRepo) GetByID(ctx context.Context, tenantID uuid.UUID, kind string, id uuid.UUID) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE tenant_id = $1 AND kind = $2 AND id = $3`
	category, err := scanCategory(executor(ctx, r.db).QueryRow(ctx, query, tenantID, kind, id))
	if err != nil {
		return nil, translateError(err, "category")
	}
	return category, nil
}

func (r *categoryRepo) Update(ctx context.Context, category *models.Category) error {
	query := `
		UPDATE categories
		SET name = $1, description = $2, sort_order = $3, updated_at = NOW()
		WHERE tenant_id = $4 AND kind = $5 AND id = $6
	`
	tag, err := executor(ctx, r.db).Exec(ctx, query, category.Name, category.Description, category.SortOrder,
		category.TenantID, category.Kind, category.ID)
	if err != nil {
		return translateError(err, "category")
	}
	return expectOne(tag, "category")
}

// Delete removes the category; services and products referencing it are
// left uncategorised by the foreign key.
func (r *categoryRepo) Delete(ctx context.Context, tenantID uuid.UUID, kind string, id uuid.UUID) error {
	query := `DELETE FROM categories WHERE tenant_id = $1 AND kind = $2 AND id = $3`
	tag, err := executor(ctx, r.db).Exec(ctx, query, tenantID, kind, id)
	if err != nil {
		return translateError(err, "category")
	}
	return expectOne(tag, "category")
}

func (r *categoryRepo) List(ctx context.Context, tenantID uuid.UUID, kind string) ([]*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE tenant_id = $1 AND kind = $2 ORDER BY sort_order, name`
	rows, err := executor(ctx, r.db).Query(ctx, query, tenantID, kind)
	if err != nil {
		return nil, translateError(err, "category")
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}
