package services

import (
	"context"

	"salonhub/internal/caching"
	"salonhub/internal/common"
	"salonhub/internal/metrics"
	"salonhub/internal/models"
	"salonhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// OrderService rings up retail sales and refunds them.
type OrderService interface {
	Create(ctx context.Context, actor Actor, req *CreateOrderRequest) (*models.Order, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, tenantID uuid.UUID, filter *models.OrderFilter) ([]*models.Order, error)
	Refund(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error)
}

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gt=0,lte=1000"`
}

type CreateOrderRequest struct {
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,max=100,dive"`
	ClientID      *uuid.UUID         `json:"client_id"`
	AppointmentID *uuid.UUID         `json:"appointment_id"`
	Discount      decimal.Decimal    `json:"discount"`
	PaymentMethod string             `json:"payment_method" validate:"required,oneof=cash card transfer"`
	Notes         *string            `json:"notes" validate:"omitempty,max=1000"`
}

type orderService struct {
	tx              repositories.Transactor
	orderRepo       repositories.OrderRepository
	productRepo     repositories.ProductRepository
	tenantRepo      repositories.TenantRepository
	clientRepo      repositories.ClientRepository
	appointmentRepo repositories.AppointmentRepository
	audit           AuditLogsService
	cacheSvc        caching.CacheService
	clock           clock.Clock
}

func NewOrderService(tx repositories.Transactor, orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository,
	tenantRepo repositories.TenantRepository, clientRepo repositories.ClientRepository, appointmentRepo repositories.AppointmentRepository,
	audit AuditLogsService, cacheSvc caching.CacheService, clk clock.Clock) OrderService {
	return &orderService{
		tx:              tx,
		orderRepo:       orderRepo,
		productRepo:     productRepo,
		tenantRepo:      tenantRepo,
		clientRepo:      clientRepo,
		appointmentRepo: appointmentRepo,
		audit:           audit,
		cacheSvc:        cacheSvc,
		clock:           clk,
	}
}

// mergeItems sums quantities of repeated products, keeping first-seen order.
func mergeItems(items []OrderItemRequest) ([]uuid.UUID, map[uuid.UUID]int) {
	var ids []uuid.UUID
	quantities := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if _, seen := quantities[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}
	return ids, quantities
}

func (s *orderService) checkReferences(ctx context.Context, tenantID uuid.UUID, req *CreateOrderRequest) error {
	if req.ClientID != nil {
		if _, err := s.clientRepo.GetByID(ctx, tenantID, *req.ClientID); err != nil {
			if errors.Is(err, errors.NotFound) {
				return errors.NotValidf("client_id %s", req.ClientID)
			}
			return err
		}
	}
	if req.AppointmentID != nil {
		if _, err := s.appointmentRepo.GetByID(ctx, tenantID, *req.AppointmentID); err != nil {
			if errors.Is(err, errors.NotFound) {
				return errors.NotValidf("appointment_id %s", req.AppointmentID)
			}
			return err
		}
	}
	return nil
}

func (s *orderService) Create(ctx context.Context, actor Actor, req *CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, errors.NotValidf("an order needs at least one item")
	}
	if req.Discount.IsNegative() {
		return nil, errors.NotValidf("discount must not be negative")
	}
	tenant, err := s.tenantRepo.GetByID(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, actor.TenantID, req); err != nil {
		return nil, err
	}

	ids, quantities := mergeItems(req.Items)
	now := s.clock.Now().UTC()
	order := &models.Order{
		ID:            uuid.New(),
		TenantID:      actor.TenantID,
		ClientID:      req.ClientID,
		AppointmentID: req.AppointmentID,
		Status:        models.OrderStatusCompleted,
		PaymentMethod: req.PaymentMethod,
		Discount:      req.Discount.Round(2),
		Notes:         req.Notes,
		CreatedBy:     actor.UserRef(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		products, err := s.productRepo.LockByIDs(ctx, actor.TenantID, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			p, ok := products[id]
			if !ok {
				return errors.NotValidf("product %s", id)
			}
			if !p.Active {
				return errors.NotValidf("product %q is inactive", p.Name)
			}
			qty := quantities[id]
			if p.StockQuantity < qty {
				return common.Conflictf("insufficient stock for %q: %d available", p.Name, p.StockQuantity)
			}
			order.Items = append(order.Items, &models.OrderItem{
				ID:          uuid.New(),
				OrderID:     order.ID,
				ProductID:   id,
				ProductName: p.Name,
				Quantity:    qty,
				UnitPrice:   p.Price,
				LineTotal:   p.Price.Mul(decimal.NewFromInt(int64(qty))).Round(2),
			})
		}

		order.Subtotal, order.Tax, order.Total = models.OrderTotals(order.Items, order.Discount, tenant.TaxRate)
		if order.Discount.GreaterThan(order.Subtotal) {
			return errors.NotValidf("discount exceeds subtotal")
		}

		if order.Number, err = s.tenantRepo.NextOrderNumber(ctx, actor.TenantID); err != nil {
			return err
		}
		if err := s.orderRepo.Create(ctx, order); err != nil {
			return err
		}
		for _, item := range order.Items {
			if _, err := s.productRepo.AdjustStock(ctx, actor.TenantID, item.ProductID, -item.Quantity); err != nil {
				return err
			}
			if err := s.productRepo.CreateMovement(ctx, &models.StockMovement{
				ID:        uuid.New(),
				TenantID:  actor.TenantID,
				ProductID: item.ProductID,
				Change:    -item.Quantity,
				Reason:    models.StockReasonSale,
				OrderID:   &order.ID,
				CreatedBy: actor.UserRef(),
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderCompleted()
	s.invalidateReports(ctx, actor.TenantID)
	zerolog.Ctx(ctx).Info().
		Str("order_id", order.ID.String()).
		Int64("number", order.Number).
		Str("total", order.Total.StringFixed(2)).
		Msg("order completed")
	return order, nil
}

func (s *orderService) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, tenantID, id)
}

func (s *orderService) List(ctx context.Context, tenantID uuid.UUID, filter *models.OrderFilter) ([]*models.Order, error) {
	if filter == nil {
		filter = &models.OrderFilter{}
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, errors.NotValidf("to before from")
	}
	return s.orderRepo.List(ctx, tenantID, filter)
}

func (s *orderService) Refund(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusCompleted {
		return nil, common.Conflictf("order has already been refunded")
	}

	now := s.clock.Now().UTC()
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.orderRepo.MarkRefunded(ctx, actor.TenantID, id, now); err != nil {
			return err
		}
		for _, item := range order.Items {
			if _, err := s.productRepo.AdjustStock(ctx, actor.TenantID, item.ProductID, item.Quantity); err != nil {
				return err
			}
			if err := s.productRepo.CreateMovement(ctx, &models.StockMovement{
				ID:        uuid.New(),
				TenantID:  actor.TenantID,
				ProductID: item.ProductID,
				Change:    item.Quantity,
				Reason:    models.StockReasonRefund,
				OrderID:   &order.ID,
				CreatedBy: actor.UserRef(),
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}
		details := map[string]interface{}{"number": order.Number, "total": order.Total.StringFixed(2)}
		return s.audit.Record(ctx, actor.TenantID, actor.UserRef(), models.AuditOrderRefunded, models.EntityOrder, id, details)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateReports(ctx, actor.TenantID)
	order.Status = models.OrderStatusRefunded
	order.RefundedAt = &now
	order.UpdatedAt = now
	return order, nil
}

func (s *orderService) invalidateReports(ctx context.Context, tenantID uuid.UUID) {
	if err := s.cacheSvc.InvalidateReports(ctx, tenantID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("invalidate report cache")
	}
}
