package repositories

import (
	"context"

	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	ListActive(ctx context.Context) ([]*models.Tenant, error)
	// NextOrderNumber allocates the next per-tenant order number. Call it
	// inside the transaction that inserts the order.
	NextOrderNumber(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

type tenantRepo struct {
	db DBTX
}

func NewTenantRepo(db DBTX) TenantRepository {
	return &tenantRepo{db: db}
}

const tenantColumns = `id, name, slug, email, phone, address, timezone, currency, tax_rate,
		slot_interval_minutes, booking_lead_minutes, deposit_required, deposit_percent,
		deposit_deadline_hours, bank_details, status, created_at, updated_at`

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	t := &models.Tenant{}
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Email, &t.Phone, &t.Address, &t.Timezone, &t.Currency, &t.TaxRate,
		&t.SlotIntervalMinutes, &t.BookingLeadMinutes, &t.DepositRequired, &t.DepositPercent,
		&t.DepositDeadlineHours, &t.BankDetails, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, slug, email, phone, address, timezone, currency, tax_rate,
			slot_interval_minutes, booking_lead_minutes, deposit_required, deposit_percent,
			deposit_deadline_hours, bank_details, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
	`
	_, err := executor(ctx, r.db).Exec(ctx, query, tenant.ID, tenant.Name, tenant.Slug, tenant.Email, tenant.Phone, tenant.Address,
		tenant.Timezone, tenant.Currency, tenant.TaxRate, tenant.SlotIntervalMinutes, tenant.BookingLeadMinutes,
		tenant.DepositRequired, tenant.DepositPercent, tenant.DepositDeadlineHours, tenant.BankDetails, tenant.Status)
	return translateError(err, "business")
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	tenant, err := scanTenant(executor(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		return nil, translateError(err, "business")
	}
	return tenant, nil
}

func (r *tenantRepo) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE slug = $1`
	tenant, err := scanTenant(executor(ctx, r.db).QueryRow(ctx, query, slug))
	if err != nil {
		return nil, translateError(err, "business")
	}
	return tenant, nil
}

func (r *tenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $1, email = $2, phone = $3, address = $4, timezone = $5, currency = $6, tax_rate = $7,
			slot_interval_minutes = $8, booking_lead_minutes = $9, deposit_required = $10, deposit_percent = $11,
			deposit_deadline_hours = $12, bank_details = $13, updated_at = NOW()
		WHERE id = $14
	`
	tag, err := executor(ctx, r.db).Exec(ctx, query, tenant.Name, tenant.Email, tenant.Phone, tenant.Address, tenant.Timezone,
		tenant.Currency, tenant.TaxRate, tenant.SlotIntervalMinutes, tenant.BookingLeadMinutes, tenant.DepositRequired,
		tenant.DepositPercent, tenant.DepositDeadlineHours, tenant.BankDetails, tenant.ID)
	if err != nil {
		return translateError(err, "business")
	}
	return expectOne(tag, "business")
}

func (r *tenantRepo) ListActive(ctx context.Context) ([]*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE status = $1 ORDER BY created_at`
	rows, err := executor(ctx, r.db).Query(ctx, query, models.TenantStatusActive)
	if err != nil {
		return nil, translateError(err, "business")
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

func (r *tenantRepo) NextOrderNumber(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var number int64
	query := `UPDATE tenants SET order_seq = order_seq + 1 WHERE id = $1 RETURNING order_seq`
	if err := executor(ctx, r.db).QueryRow(ctx, query, tenantID).Scan(&number); err != nil {
		return 0, translateError(err, "business")
	}
	return number, nil
}
