package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"salonhub/internal/models"
	"salonhub/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool *pgxpool.Pool
}

// SetupTestDB connects to TEST_DATABASE_URL and migrates it. Tests are
// skipped when the variable is unset. The pool closes when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	logger := zerolog.Nop()
	if err := database.Migrate(connString, logger); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	pool, err := database.NewPool(context.Background(), connString, 5, logger)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	t.Cleanup(pool.Close)
	return &TestDB{Pool: pool}
}

// SetupTestTenant creates a tenant whose rows are removed when the test ends.
func SetupTestTenant(t *testing.T, db *TestDB) *models.Tenant {
	t.Helper()

	tenant := &models.Tenant{
		ID:                   uuid.New(),
		Name:                 "Test Salon",
		Timezone:             "UTC",
		Currency:             "USD",
		TaxRate:              decimal.NewFromInt(10),
		SlotIntervalMinutes:  15,
		DepositPercent:       decimal.Zero,
		DepositDeadlineHours: 24,
		Status:               models.TenantStatusActive,
	}
	tenant.Slug = fmt.Sprintf("test-%s", tenant.ID.String()[:8])

	query := `
		INSERT INTO tenants (id, name, slug, timezone, currency, tax_rate, slot_interval_minutes,
			deposit_percent, deposit_deadline_hours, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := db.Pool.Exec(context.Background(), query, tenant.ID, tenant.Name, tenant.Slug, tenant.Timezone,
		tenant.Currency, tenant.TaxRate, tenant.SlotIntervalMinutes, tenant.DepositPercent,
		tenant.DepositDeadlineHours, tenant.Status)
	if err != nil {
		t.Fatalf("Failed to create test tenant: %v", err)
	}

	t.Cleanup(func() {
		// appointments and order items hold plain references, so clear them
		// before the tenant cascade runs
		ctx := context.Background()
		_, _ = db.Pool.Exec(ctx, `DELETE FROM orders WHERE tenant_id = $1`, tenant.ID)
		_, _ = db.Pool.Exec(ctx, `DELETE FROM appointments WHERE tenant_id = $1`, tenant.ID)
		_, _ = db.Pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, tenant.ID)
	})
	return tenant
}

// SetupTestStylist creates an active stylist working 09:00-17:00 every day.
func SetupTestStylist(t *testing.T, db *TestDB, tenantID uuid.UUID) uuid.UUID {
	t.Helper()

	ctx := context.Background()
	stylistID := uuid.New()
	_, err := db.Pool.Exec(ctx, `INSERT INTO stylists (id, tenant_id, name) VALUES ($1, $2, $3)`,
		stylistID, tenantID, "Test Stylist")
	if err != nil {
		t.Fatalf("Failed to create test stylist: %v", err)
	}

	for day := 0; day < 7; day++ {
		_, err := db.Pool.Exec(ctx, `
			INSERT INTO schedules (id, tenant_id, stylist_id, day_of_week, start_time, end_time)
			VALUES ($1, $2, $3, $4, '09:00', '17:00')
		`, uuid.New(), tenantID, stylistID, day)
		if err != nil {
			t.Fatalf("Failed to create test schedule: %v", err)
		}
	}
	return stylistID
}

// SetupTestClient creates a client for testing
func SetupTestClient(t *testing.T, db *TestDB, tenantID uuid.UUID) uuid.UUID {
	t.Helper()

	clientID := uuid.New()
	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO clients (id, tenant_id, first_name, last_name) VALUES ($1, $2, $3, $4)`,
		clientID, tenantID, "Test", "Client")
	if err != nil {
		t.Fatalf("Failed to create test client: %v", err)
	}
	return clientID
}

// SetupTestService creates an active catalog service.
func SetupTestService(t *testing.T, db *TestDB, tenantID uuid.UUID, minutes int, price decimal.Decimal) uuid.UUID {
	t.Helper()

	serviceID := uuid.New()
	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO services (id, tenant_id, name, duration_minutes, price) VALUES ($1, $2, $3, $4, $5)`,
		serviceID, tenantID, fmt.Sprintf("Service %dm", minutes), minutes, price)
	if err != nil {
		t.Fatalf("Failed to create test service: %v", err)
	}
	return serviceID
}

// SetupTestProduct creates a retail product with the given stock.
func SetupTestProduct(t *testing.T, db *TestDB, tenantID uuid.UUID, price decimal.Decimal, stock int) *models.Product {
	t.Helper()

	now := time.Now().UTC()
	product := &models.Product{
		ID:                uuid.New(),
		TenantID:          tenantID,
		Name:              "Test Shampoo",
		Price:             price,
		Cost:              decimal.Zero,
		StockQuantity:     stock,
		LowStockThreshold: 2,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	query := `
		INSERT INTO products (id, tenant_id, name, price, cost, stock_quantity, low_stock_threshold, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := db.Pool.Exec(context.Background(), query,
		product.ID, product.TenantID, product.Name, product.Price, product.Cost, product.StockQuantity,
		product.LowStockThreshold, product.Active, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}
	return product
}
