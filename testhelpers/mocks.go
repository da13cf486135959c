package testhelpers

import (
	"context"
	"io"
	"time"

	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Testify mocks for the repository and infrastructure interfaces, shared by
// the service, report and job tests.

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) ListActive(ctx context.Context) ([]*models.Tenant, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) NextOrderNumber(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, tenantID, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tenantID, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) LockActiveOwners(ctx context.Context, tenantID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientRepository) Update(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockClientRepository) List(ctx context.Context, tenantID uuid.UUID, filter *models.ClientFilter) ([]*models.Client, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.Client), args.Error(1)
}

func (m *MockClientRepository) TouchLastVisit(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, tenantID, id, at)
	return args.Error(0)
}

func (m *MockClientRepository) CountCreatedBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Int(0), args.Error(1)
}

func (m *MockClientRepository) Lifetime(ctx context.Context, tenantID, id uuid.UUID) (*models.ClientLifetime, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClientLifetime), args.Error(1)
}

type MockStylistRepository struct {
	mock.Mock
}

func (m *MockStylistRepository) Create(ctx context.Context, stylist *models.Stylist) error {
	args := m.Called(ctx, stylist)
	return args.Error(0)
}

func (m *MockStylistRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Stylist, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stylist), args.Error(1)
}

func (m *MockStylistRepository) Update(ctx context.Context, stylist *models.Stylist) error {
	args := m.Called(ctx, stylist)
	return args.Error(0)
}

func (m *MockStylistRepository) UpdatePhoto(ctx context.Context, tenantID, id uuid.UUID, photoKey *string) error {
	args := m.Called(ctx, tenantID, id, photoKey)
	return args.Error(0)
}

func (m *MockStylistRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockStylistRepository) List(ctx context.Context, tenantID uuid.UUID, active *bool) ([]*models.Stylist, error) {
	args := m.Called(ctx, tenantID, active)
	return args.Get(0).([]*models.Stylist), args.Error(1)
}

func (m *MockStylistRepository) GetSchedule(ctx context.Context, tenantID, stylistID uuid.UUID) ([]*models.Schedule, error) {
	args := m.Called(ctx, tenantID, stylistID)
	return args.Get(0).([]*models.Schedule), args.Error(1)
}

func (m *MockStylistRepository) GetScheduleForDay(ctx context.Context, tenantID, stylistID uuid.UUID, dayOfWeek int) (*models.Schedule, error) {
	args := m.Called(ctx, tenantID, stylistID, dayOfWeek)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Schedule), args.Error(1)
}

func (m *MockStylistRepository) ReplaceSchedule(ctx context.Context, tenantID, stylistID uuid.UUID, days []*models.Schedule) error {
	args := m.Called(ctx, tenantID, stylistID, days)
	return args.Error(0)
}

type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) Create(ctx context.Context, service *models.Service) error {
	args := m.Called(ctx, service)
	return args.Error(0)
}

func (m *MockServiceRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Service, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *MockServiceRepository) GetByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*models.Service, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).(map[uuid.UUID]*models.Service), args.Error(1)
}

func (m *MockServiceRepository) Update(ctx context.Context, service *models.Service) error {
	args := m.Called(ctx, service)
	return args.Error(0)
}

func (m *MockServiceRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockServiceRepository) Deactivate(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockServiceRepository) IsReferenced(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockServiceRepository) List(ctx context.Context, tenantID uuid.UUID, filter *models.ServiceFilter) ([]*models.Service, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.Service), args.Error(1)
}

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, tenantID uuid.UUID, kind string, id uuid.UUID) (*models.Category, error) {
	args := m.Called(ctx, tenantID, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, tenantID uuid.UUID, kind string, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, kind, id)
	return args.Error(0)
}

func (m *MockCategoryRepository) List(ctx context.Context, tenantID uuid.UUID, kind string) ([]*models.Category, error) {
	args := m.Called(ctx, tenantID, kind)
	return args.Get(0).([]*models.Category), args.Error(1)
}

type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) LockStylist(ctx context.Context, tenantID, stylistID uuid.UUID) error {
	args := m.Called(ctx, tenantID, stylistID)
	return args.Error(0)
}

func (m *MockAppointmentRepository) ListBlocking(ctx context.Context, tenantID uuid.UUID, stylistIDs []uuid.UUID, from, to time.Time, excludeID *uuid.UUID) ([]*models.Appointment, error) {
	args := m.Called(ctx, tenantID, stylistIDs, from, to, excludeID)
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

func (m *MockAppointmentRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Appointment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) List(ctx context.Context, tenantID uuid.UUID, filter *models.AppointmentFilter) ([]*models.Appointment, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) ListBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.Appointment, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) Reschedule(ctx context.Context, appointment *models.Appointment, fromStatus, fromDeposit string) error {
	args := m.Called(ctx, appointment, fromStatus, fromDeposit)
	return args.Error(0)
}

func (m *MockAppointmentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockAppointmentRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, change models.StatusChange) error {
	args := m.Called(ctx, tenantID, id, change)
	return args.Error(0)
}

func (m *MockAppointmentRepository) DecideDeposit(ctx context.Context, tenantID, id uuid.UUID, decision models.DepositDecision) error {
	args := m.Called(ctx, tenantID, id, decision)
	return args.Error(0)
}

func (m *MockAppointmentRepository) ListPendingDeposits(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Appointment, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) ExpireDeposits(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]*models.Appointment, error) {
	args := m.Called(ctx, tenantID, now)
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) CountUpcomingForStylist(ctx context.Context, tenantID, stylistID uuid.UUID, now time.Time) (int, error) {
	args := m.Called(ctx, tenantID, stylistID, now)
	return args.Int(0), args.Error(1)
}

func (m *MockAppointmentRepository) CountUpcomingForClient(ctx context.Context, tenantID, clientID uuid.UUID, now time.Time) (int, error) {
	args := m.Called(ctx, tenantID, clientID, now)
	return args.Int(0), args.Error(1)
}

func (m *MockAppointmentRepository) ListDueReminders(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.Appointment, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) MarkReminderSent(ctx context.Context, tenantID, id uuid.UUID, at time.Time) (bool, error) {
	args := m.Called(ctx, tenantID, id, at)
	return args.Bool(0), args.Error(1)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) LockByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).(map[uuid.UUID]*models.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) UpdateImage(ctx context.Context, tenantID, id uuid.UUID, imageKey *string) error {
	args := m.Called(ctx, tenantID, id, imageKey)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockProductRepository) List(ctx context.Context, tenantID uuid.UUID, filter *models.ProductFilter) ([]*models.Product, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.Product), args.Error(1)
}

func (m *MockProductRepository) CountLowStock(ctx context.Context, tenantID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func (m *MockProductRepository) AdjustStock(ctx context.Context, tenantID, id uuid.UUID, change int) (int, error) {
	args := m.Called(ctx, tenantID, id, change)
	return args.Int(0), args.Error(1)
}

func (m *MockProductRepository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockProductRepository) ListMovements(ctx context.Context, tenantID, productID uuid.UUID, limit, offset int) ([]*models.StockMovement, error) {
	args := m.Called(ctx, tenantID, productID, limit, offset)
	return args.Get(0).([]*models.StockMovement), args.Error(1)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, tenantID uuid.UUID, filter *models.OrderFilter) ([]*models.Order, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.Order), args.Error(1)
}

func (m *MockOrderRepository) ListBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.Order, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).([]*models.Order), args.Error(1)
}

func (m *MockOrderRepository) MarkRefunded(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, tenantID, id, at)
	return args.Error(0)
}

type MockAuditLogsRepository struct {
	mock.Mock
}

func (m *MockAuditLogsRepository) Create(ctx context.Context, auditLog *models.AuditLog) error {
	args := m.Called(ctx, auditLog)
	return args.Error(0)
}

func (m *MockAuditLogsRepository) List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	args := m.Called(ctx, tenantID, filters)
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetReport(ctx context.Context, tenantID uuid.UUID, name string, dst interface{}) (bool, error) {
	args := m.Called(ctx, tenantID, name, dst)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) SetReport(ctx context.Context, tenantID uuid.UUID, name string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, name, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateReports(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockCacheService) SetRefreshSession(ctx context.Context, tokenHash string, session *models.RefreshSession, ttl time.Duration) error {
	args := m.Called(ctx, tokenHash, session, ttl)
	return args.Error(0)
}

func (m *MockCacheService) ConsumeRefreshSession(ctx context.Context, tokenHash string) (*models.RefreshSession, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefreshSession), args.Error(1)
}

func (m *MockCacheService) DeleteRefreshSession(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) ResetRateLimit(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockMinioService struct {
	mock.Mock
}

func (m *MockMinioService) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, reader, size, contentType)
	return args.Error(0)
}

func (m *MockMinioService) PresignedURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockMinioService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockMinioService) EnsureBucket(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockMinioService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockAuditLogsService struct {
	mock.Mock
}

func (m *MockAuditLogsService) Record(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, action, entityType string, entityID uuid.UUID, details map[string]interface{}) error {
	args := m.Called(ctx, tenantID, userID, action, entityType, entityID, details)
	return args.Error(0)
}

func (m *MockAuditLogsService) List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	args := m.Called(ctx, tenantID, filters)
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}
