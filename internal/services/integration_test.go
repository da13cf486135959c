package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"salonhub/internal/common"
	"salonhub/internal/models"
	"salonhub/internal/repositories"
	"salonhub/testhelpers"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// These run against a real database and are skipped without TEST_DATABASE_URL.

func TestIntegration_ConcurrentBookingsDoNotOverlap(t *testing.T) {
	db := testhelpers.SetupTestDB(t)

	tenant := testhelpers.SetupTestTenant(t, db)
	stylistID := testhelpers.SetupTestStylist(t, db, tenant.ID)
	clientID := testhelpers.SetupTestClient(t, db, tenant.ID)
	serviceID := testhelpers.SetupTestService(t, db, tenant.ID, 60, decimal.NewFromInt(50))

	cache := &MockCacheService{}
	cache.On("InvalidateReports", mock.Anything, tenant.ID).Return(nil).Maybe()

	svc := NewAppointmentService(repositories.NewTransactor(db.Pool), repositories.NewTenantRepo(db.Pool),
		repositories.NewClientRepo(db.Pool), repositories.NewStylistRepo(db.Pool), repositories.NewServiceRepo(db.Pool),
		repositories.NewAppointmentRepo(db.Pool), NewAuditLogsService(repositories.NewAuditLogsRepo(db.Pool), clock.WallClock),
		cache, clock.WallClock)

	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	start := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 10, 0, 0, 0, time.UTC)
	actor := Actor{TenantID: tenant.ID, Role: models.RoleOwner}

	const attempts = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		booked    int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			// staggered starts that all overlap the same hour
			req := &BookAppointmentRequest{
				ClientID:   clientID,
				StylistID:  stylistID,
				StartAt:    start.Add(time.Duration(offset*10) * time.Minute),
				ServiceIDs: []uuid.UUID{serviceID},
			}
			_, err := svc.Book(context.Background(), actor, req)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				booked++
			case errors.Is(err, common.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, booked)
	assert.Equal(t, attempts-1, conflicts)
}

func TestIntegration_ConcurrentOrdersNeverOversell(t *testing.T) {
	db := testhelpers.SetupTestDB(t)

	tenant := testhelpers.SetupTestTenant(t, db)
	product := testhelpers.SetupTestProduct(t, db, tenant.ID, decimal.NewFromInt(12), 3)

	cache := &MockCacheService{}
	cache.On("InvalidateReports", mock.Anything, tenant.ID).Return(nil).Maybe()

	productRepo := repositories.NewProductRepo(db.Pool)
	svc := NewOrderService(repositories.NewTransactor(db.Pool), repositories.NewOrderRepo(db.Pool), productRepo,
		repositories.NewTenantRepo(db.Pool), repositories.NewClientRepo(db.Pool), repositories.NewAppointmentRepo(db.Pool),
		NewAuditLogsService(repositories.NewAuditLogsRepo(db.Pool), clock.WallClock), cache, clock.WallClock)

	actor := Actor{TenantID: tenant.ID, Role: models.RoleOwner}
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []int64
		failed  int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := svc.Create(context.Background(), actor, &CreateOrderRequest{
				Items:         []OrderItemRequest{{ProductID: product.ID, Quantity: 2}},
				PaymentMethod: models.PaymentCash,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.True(t, errors.Is(err, common.ErrConflict), "unexpected error: %v", err)
				failed++
				return
			}
			numbers = append(numbers, order.Number)
		}()
	}
	wg.Wait()

	require.Len(t, numbers, 1)
	assert.Equal(t, 1, failed)
	assert.Equal(t, int64(1), numbers[0])

	stored, err := productRepo.GetByID(context.Background(), tenant.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.StockQuantity)
}
