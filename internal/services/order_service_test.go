package services

import (
	"context"
	"testing"
	"time"

	"salonhub/internal/common"
	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

func TestMergeItems(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	ids, qty := mergeItems([]OrderItemRequest{
		{ProductID: a, Quantity: 1},
		{ProductID: b, Quantity: 2},
		{ProductID: a, Quantity: 3},
	})

	assert.Equal(t, []uuid.UUID{a, b}, ids)
	assert.Equal(t, 4, qty[a])
	assert.Equal(t, 2, qty[b])
}

type OrderServiceTestSuite struct {
	suite.Suite
	clock           *testclock.Clock
	orderRepo       *MockOrderRepository
	productRepo     *MockProductRepository
	tenantRepo      *MockTenantRepository
	clientRepo      *MockClientRepository
	appointmentRepo *MockAppointmentRepository
	audit           *MockAuditLogsService
	cache           *MockCacheService
	service         OrderService

	tenant    *models.Tenant
	actor     Actor
	shampoo   *models.Product
	treatment *models.Product
}

func (suite *OrderServiceTestSuite) SetupTest() {
	suite.clock = testclock.NewClock(time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC))
	suite.orderRepo = &MockOrderRepository{}
	suite.productRepo = &MockProductRepository{}
	suite.tenantRepo = &MockTenantRepository{}
	suite.clientRepo = &MockClientRepository{}
	suite.appointmentRepo = &MockAppointmentRepository{}
	suite.audit = &MockAuditLogsService{}
	suite.cache = &MockCacheService{}
	suite.service = NewOrderService(&fakeTransactor{}, suite.orderRepo, suite.productRepo, suite.tenantRepo,
		suite.clientRepo, suite.appointmentRepo, suite.audit, suite.cache, suite.clock)

	suite.tenant = &models.Tenant{ID: uuid.New(), TaxRate: decimal.NewFromInt(10)}
	suite.actor = Actor{UserID: uuid.New(), TenantID: suite.tenant.ID, Role: models.RoleStaff}
	suite.shampoo = &models.Product{ID: uuid.New(), Name: "Shampoo", Price: decimal.RequireFromString("12.50"), StockQuantity: 10, Active: true}
	suite.treatment = &models.Product{ID: uuid.New(), Name: "Treatment", Price: decimal.RequireFromString("30"), StockQuantity: 1, Active: true}

	for _, m := range []interface{ Test(mock.TestingT) }{suite.orderRepo, suite.productRepo, suite.tenantRepo,
		suite.clientRepo, suite.appointmentRepo, suite.audit, suite.cache} {
		m.Test(suite.T())
	}
}

func (suite *OrderServiceTestSuite) TearDownTest() {
	suite.orderRepo.AssertExpectations(suite.T())
	suite.productRepo.AssertExpectations(suite.T())
	suite.tenantRepo.AssertExpectations(suite.T())
	suite.clientRepo.AssertExpectations(suite.T())
	suite.appointmentRepo.AssertExpectations(suite.T())
	suite.audit.AssertExpectations(suite.T())
	suite.cache.AssertExpectations(suite.T())
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}

func (suite *OrderServiceTestSuite) lockProducts(products ...*models.Product) {
	ids := make([]uuid.UUID, 0, len(products))
	found := make(map[uuid.UUID]*models.Product, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
		found[p.ID] = p
	}
	suite.productRepo.On("LockByIDs", mock.Anything, suite.tenant.ID, ids).Return(found, nil)
}

func (suite *OrderServiceTestSuite) TestCreate_ComputesTotalsAndMovesStock() {
	ctx := context.Background()
	suite.tenantRepo.On("GetByID", mock.Anything, suite.tenant.ID).Return(suite.tenant, nil)
	suite.lockProducts(suite.shampoo, suite.treatment)
	suite.tenantRepo.On("NextOrderNumber", mock.Anything, suite.tenant.ID).Return(int64(42), nil)
	suite.orderRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Order")).Return(nil)
	suite.productRepo.On("AdjustStock", mock.Anything, suite.tenant.ID, suite.shampoo.ID, -3).Return(7, nil)
	suite.productRepo.On("AdjustStock", mock.Anything, suite.tenant.ID, suite.treatment.ID, -1).Return(0, nil)
	suite.productRepo.On("CreateMovement", mock.Anything, mock.MatchedBy(func(m *models.StockMovement) bool {
		return m.Reason == models.StockReasonSale && m.Change < 0 && m.OrderID != nil
	})).Return(nil).Twice()
	suite.cache.On("InvalidateReports", mock.Anything, suite.tenant.ID).Return(nil)

	order, err := suite.service.Create(ctx, suite.actor, &CreateOrderRequest{
		Items: []OrderItemRequest{
			{ProductID: suite.shampoo.ID, Quantity: 2},
			{ProductID: suite.treatment.ID, Quantity: 1},
			{ProductID: suite.shampoo.ID, Quantity: 1},
		},
		Discount:      decimal.NewFromInt(5),
		PaymentMethod: models.PaymentCard,
	})

	suite.Require().NoError(err)
	suite.Equal(int64(42), order.Number)
	suite.Equal(models.OrderStatusCompleted, order.Status)
	suite.Require().Len(order.Items, 2)
	suite.Equal("Shampoo", order.Items[0].ProductName)
	suite.Equal(3, order.Items[0].Quantity)
	// 3 x 12.50 + 30 = 67.50; less 5 = 62.50; tax 6.25
	suite.True(order.Subtotal.Equal(decimal.RequireFromString("67.50")), order.Subtotal.String())
	suite.True(order.Tax.Equal(decimal.RequireFromString("6.25")), order.Tax.String())
	suite.True(order.Total.Equal(decimal.RequireFromString("68.75")), order.Total.String())
	suite.Equal(suite.actor.UserRef(), order.CreatedBy)
}

func (suite *OrderServiceTestSuite) TestCreate_InsufficientStock() {
	suite.tenantRepo.On("GetByID", mock.Anything, suite.tenant.ID).Return(suite.tenant, nil)
	suite.lockProducts(suite.treatment)

	_, err := suite.service.Create(context.Background(), suite.actor, &CreateOrderRequest{
		Items:         []OrderItemRequest{{ProductID: suite.treatment.ID, Quantity: 2}},
		PaymentMethod: models.PaymentCash,
	})

	suite.True(errors.Is(err, common.ErrConflict))
	suite.Contains(err.Error(), "insufficient stock")
	suite.orderRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *OrderServiceTestSuite) TestCreate_InactiveProduct() {
	suite.shampoo.Active = false
	suite.tenantRepo.On("GetByID", mock.Anything, suite.tenant.ID).Return(suite.tenant, nil)
	suite.lockProducts(suite.shampoo)

	_, err := suite.service.Create(context.Background(), suite.actor, &CreateOrderRequest{
		Items:         []OrderItemRequest{{ProductID: suite.shampoo.ID, Quantity: 1}},
		PaymentMethod: models.PaymentCash,
	})

	suite.True(errors.Is(err, errors.NotValid))
}

func (suite *OrderServiceTestSuite) TestCreate_DiscountAboveSubtotal() {
	suite.tenantRepo.On("GetByID", mock.Anything, suite.tenant.ID).Return(suite.tenant, nil)
	suite.lockProducts(suite.shampoo)

	_, err := suite.service.Create(context.Background(), suite.actor, &CreateOrderRequest{
		Items:         []OrderItemRequest{{ProductID: suite.shampoo.ID, Quantity: 1}},
		Discount:      decimal.NewFromInt(20),
		PaymentMethod: models.PaymentCash,
	})

	suite.True(errors.Is(err, errors.NotValid))
}

func (suite *OrderServiceTestSuite) TestCreate_NegativeDiscount() {
	_, err := suite.service.Create(context.Background(), suite.actor, &CreateOrderRequest{
		Items:         []OrderItemRequest{{ProductID: suite.shampoo.ID, Quantity: 1}},
		Discount:      decimal.NewFromInt(-1),
		PaymentMethod: models.PaymentCash,
	})

	suite.True(errors.Is(err, errors.NotValid))
}

func (suite *OrderServiceTestSuite) TestCreate_UnknownClient() {
	clientID := uuid.New()
	suite.tenantRepo.On("GetByID", mock.Anything, suite.tenant.ID).Return(suite.tenant, nil)
	suite.clientRepo.On("GetByID", mock.Anything, suite.tenant.ID, clientID).Return(nil, errors.NotFoundf("client"))

	_, err := suite.service.Create(context.Background(), suite.actor, &CreateOrderRequest{
		Items:         []OrderItemRequest{{ProductID: suite.shampoo.ID, Quantity: 1}},
		ClientID:      &clientID,
		PaymentMethod: models.PaymentCash,
	})

	suite.True(errors.Is(err, errors.NotValid))
}

func (suite *OrderServiceTestSuite) completedOrder() *models.Order {
	id := uuid.New()
	return &models.Order{
		ID:       id,
		TenantID: suite.tenant.ID,
		Number:   7,
		Status:   models.OrderStatusCompleted,
		Total:    decimal.RequireFromString("27.50"),
		Items: []*models.OrderItem{
			{ID: uuid.New(), OrderID: id, ProductID: suite.shampoo.ID, ProductName: "Shampoo", Quantity: 2, UnitPrice: suite.shampoo.Price},
		},
	}
}

func (suite *OrderServiceTestSuite) TestRefund_RestoresStock() {
	order := suite.completedOrder()
	now := suite.clock.Now().UTC()
	suite.orderRepo.On("GetByID", mock.Anything, suite.tenant.ID, order.ID).Return(order, nil)
	suite.orderRepo.On("MarkRefunded", mock.Anything, suite.tenant.ID, order.ID, now).Return(nil)
	suite.productRepo.On("AdjustStock", mock.Anything, suite.tenant.ID, suite.shampoo.ID, 2).Return(12, nil)
	suite.productRepo.On("CreateMovement", mock.Anything, mock.MatchedBy(func(m *models.StockMovement) bool {
		return m.Reason == models.StockReasonRefund && m.Change == 2 && *m.OrderID == order.ID
	})).Return(nil)
	suite.audit.On("Record", mock.Anything, suite.tenant.ID, suite.actor.UserRef(), models.AuditOrderRefunded,
		models.EntityOrder, order.ID, mock.Anything).Return(nil)
	suite.cache.On("InvalidateReports", mock.Anything, suite.tenant.ID).Return(nil)

	refunded, err := suite.service.Refund(context.Background(), suite.actor, order.ID)

	suite.Require().NoError(err)
	suite.Equal(models.OrderStatusRefunded, refunded.Status)
	suite.Equal(&now, refunded.RefundedAt)
}

func (suite *OrderServiceTestSuite) TestRefund_Twice() {
	order := suite.completedOrder()
	order.Status = models.OrderStatusRefunded
	suite.orderRepo.On("GetByID", mock.Anything, suite.tenant.ID, order.ID).Return(order, nil)

	_, err := suite.service.Refund(context.Background(), suite.actor, order.ID)

	suite.True(errors.Is(err, common.ErrConflict))
}

func (suite *OrderServiceTestSuite) TestList_RejectsInvertedRange() {
	from := suite.clock.Now()
	to := from.Add(-time.Hour)

	_, err := suite.service.List(context.Background(), suite.tenant.ID, &models.OrderFilter{From: &from, To: &to})

	suite.True(errors.Is(err, errors.NotValid))
}
