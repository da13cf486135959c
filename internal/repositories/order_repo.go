package repositories

import (
	"context"
	"fmt"
	"time"

	"salonhub/internal/common"
	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, tenantID uuid.UUID, filter *models.OrderFilter) ([]*models.Order, error)
	ListBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.Order, error)
	// MarkRefunded moves a completed order to refunded; any other state is a
	// conflict.
	MarkRefunded(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error
}

type orderRepo struct {
	db DBTX
}

func NewOrderRepo(db DBTX) OrderRepository {
	return &orderRepo{db: db}
}

const orderColumns = `id, tenant_id, number, client_id, appointment_id, status, payment_method, subtotal, discount, tax, total,
		notes, created_by, refunded_at, created_at, updated_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	o := &models.Order{}
	if err := row.Scan(&o.ID, &o.TenantID, &o.Number, &o.ClientID, &o.AppointmentID, &o.Status, &o.PaymentMethod, &o.Subtotal,
		&o.Discount, &o.Tax, &o.Total, &o.Notes, &o.CreatedBy, &o.RefundedAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	db := executor(ctx, r.db)
	query := `
		INSERT INTO orders (id, tenant_id, number, client_id, appointment_id, status, payment_method, subtotal, discount, tax, total,
			notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
	`
	if _, err := db.Exec(ctx, query, order.ID, order.TenantID, order.Number, order.ClientID, order.AppointmentID, order.Status,
		order.PaymentMethod, order.Subtotal, order.Discount, order.Tax, order.Total, order.Notes, order.CreatedBy, order.CreatedAt); err != nil {
		return translateError(err, "order")
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, item := range order.Items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		if _, err := db.Exec(ctx, itemQuery, item.ID, order.ID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.LineTotal); err != nil {
			return translateError(err, "order item")
		}
	}
	return nil
}

func (r *orderRepo) attachItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(orders))
	byID := make(map[uuid.UUID]*models.Order, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		byID[o.ID] = o
		o.Items = []*models.OrderItem{}
	}

	query := `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, line_total
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, product_name
	`
	rows, err := executor(ctx, r.db).Query(ctx, query, ids)
	if err != nil {
		return translateError(err, "order items")
	}
	defer rows.Close()

	for rows.Next() {
		item := &models.OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return err
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

func (r *orderRepo) collect(ctx context.Context, query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := executor(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err, "order")
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE tenant_id = $1 AND id = $2`
	order, err := scanOrder(executor(ctx, r.db).QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return nil, translateError(err, "order")
	}
	if err := r.attachItems(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepo) List(ctx context.Context, tenantID uuid.UUID, filter *models.OrderFilter) ([]*models.Order, error) {
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	conditionCount := 1

	if filter.From != nil {
		conditionCount++
		query += fmt.Sprintf(` AND created_at >= $%d`, conditionCount)
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditionCount++
		query += fmt.Sprintf(` AND created_at < $%d`, conditionCount)
		args = append(args, *filter.To)
	}
	if filter.ClientID != nil {
		conditionCount++
		query += fmt.Sprintf(` AND client_id = $%d`, conditionCount)
		args = append(args, *filter.ClientID)
	}
	if filter.Status != nil {
		conditionCount++
		query += fmt.Sprintf(` AND status = $%d`, conditionCount)
		args = append(args, *filter.Status)
	}

	query += ` ORDER BY created_at DESC`
	conditionCount++
	query += fmt.Sprintf(` LIMIT $%d`, conditionCount)
	args = append(args, filter.Limit)
	conditionCount++
	query += fmt.Sprintf(` OFFSET $%d`, conditionCount)
	args = append(args, filter.Offset)

	return r.collect(ctx, query, args...)
}

func (r *orderRepo) ListBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3 ORDER BY created_at`
	return r.collect(ctx, query, tenantID, from, to)
}

func (r *orderRepo) MarkRefunded(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE orders SET status = $1, refunded_at = $2, updated_at = $2
		WHERE tenant_id = $3 AND id = $4 AND status = $5
	`
	tag, err := executor(ctx, r.db).Exec(ctx, query, models.OrderStatusRefunded, at, tenantID, id, models.OrderStatusCompleted)
	if err != nil {
		return translateError(err, "order")
	}
	if tag.RowsAffected() == 0 {
		return common.Conflictf("order has already been refunded")
	}
	return nil
}
