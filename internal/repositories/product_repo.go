package repositories

import (
	"context"
	"fmt"

	"salonhub/internal/common"
	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/juju/errors"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error)
	// LockByIDs selects products FOR UPDATE in id order. Call it inside a
	// transaction.
	LockByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	UpdateImage(ctx context.Context, tenantID, id uuid.UUID, imageKey *string) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter *models.ProductFilter) ([]*models.Product, error)
	CountLowStock(ctx context.Context, tenantID uuid.UUID) (int, error)

	// AdjustStock adds change to the stock counter unless that would take it
	// below zero, in which case it returns a conflict.
	AdjustStock(ctx context.Context, tenantID, id uuid.UUID, change int) (int, error)
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	ListMovements(ctx context.Context, tenantID, productID uuid.UUID, limit, offset int) ([]*models.StockMovement, error)
}

type productRepo struct {
	db DBTX
}

func NewProductRepo(db DBTX) ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `id, tenant_id, category_id, name, sku, brand, description, price, cost, stock_quantity,
		low_stock_threshold, image_key, active, created_at, updated_at`

func scanProduct(row pgx.Row) (*models.Product, error) {
	p := &models.Product{}
	if err := row.Scan(&p.ID, &p.TenantID, &p.CategoryID, &p.Name, &p.SKU, &p.Brand, &p.Description, &p.Price, &p.Cost,
		&p.StockQuantity, &p.LowStockThreshold, &p.ImageKey, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (id, tenant_id, category_id, name, sku, brand, description, price, cost, stock_quantity,
			low_stock_threshold, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
	`
	_, err := executor(ctx, r.db).Exec(ctx, query, product.ID, product.TenantID, product.CategoryID, product.Name, product.SKU,
		product.Brand, product.Description, product.Price, product.Cost, product.StockQuantity, product.LowStockThreshold, product.Active)
	return translateError(err, "product")
}

func (r *productRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND id = $2`
	product, err := scanProduct(executor(ctx, r.db).QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return nil, translateError(err, "product")
	}
	return product, nil
}

func (r *productRepo) LockByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND id = ANY($2) ORDER BY id FOR UPDATE`
	rows, err := executor(ctx, r.db).Query(ctx, query, tenantID, ids)
	if err != nil {
		return nil, translateError(err, "product")
	}
	defer rows.Close()

	products := make(map[uuid.UUID]*models.Product, len(ids))
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products[product.ID] = product
	}
	return products, rows.Err()
}

// Update leaves stock_quantity alone; stock only moves through AdjustStock.
func (r *productRepo) Update(ctx context.Context, product *models.Product) error {
	query := `
		UPDATE products
		SET category_id = $1, name = $2, sku = $3, brand = $4, description = $5, price = $6, cost = $7,
			low_stock_threshold = $8, active = $9, updated_at = NOW()
		WHERE tenant_id = $10 AND id = $11
	`
	tag, err := executor(ctx, r.db).Exec(ctx, query, product.CategoryID, product.Name, product.SKU, product.Brand, product.Description,
		product.Price, product.Cost, product.LowStockThreshold, product.Active, product.TenantID, product.ID)
	if err != nil {
		return translateError(err, "product")
	}
	return expectOne(tag, "product")
}

func (r *productRepo) UpdateImage(ctx context.Context, tenantID, id uuid.UUID, imageKey *string) error {
	query := `UPDATE products SET image_key = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`
	tag, err := executor(ctx, r.db).Exec(ctx, query, imageKey, tenantID, id)
	if err != nil {
		return translateError(err, "product")
	}
	return expectOne(tag, "product")
}

func (r *productRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM products WHERE tenant_id = $1 AND id = $2`
	tag, err := executor(ctx, r.db).Exec(ctx, query, tenantID, id)
	if err != nil {
		return translateError(err, "product")
	}
	return expectOne(tag, "product")
}

func (r *productRepo) List(ctx context.Context, tenantID uuid.UUID, filter *models.ProductFilter) ([]*models.Product, error) {
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	conditionCount := 1

	if filter.Query != "" {
		conditionCount++
		query += fmt.Sprintf(` AND (
			name ILIKE $%d ESCAPE '\' OR
			COALESCE(sku, '') ILIKE $%d ESCAPE '\' OR
			COALESCE(brand, '') ILIKE $%d ESCAPE '\'
		)`, conditionCount, conditionCount, conditionCount)
		args = append(args, "%"+common.EscapeLike(filter.Query)+"%")
	}
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
	if filter.LowStock {
		query += ` AND stock_quantity <= low_stock_threshold`
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
		return nil, translateError(err, "product")
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *productRepo) CountLowStock(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM products WHERE tenant_id = $1 AND active AND stock_quantity <= low_stock_threshold`
	if err := executor(ctx, r.db).QueryRow(ctx, query, tenantID).Scan(&count); err != nil {
		return 0, translateError(err, "product")
	}
	return count, nil
}

func (r *productRepo) AdjustStock(ctx context.Context, tenantID, id uuid.UUID, change int) (int, error) {
	var quantity int
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity + $1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3 AND stock_quantity + $1 >= 0
		RETURNING stock_quantity
	`
	err := executor(ctx, r.db).QueryRow(ctx, query, change, tenantID, id).Scan(&quantity)
	if err == nil {
		return quantity, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, translateError(err, "product")
	}
	// Either the product is missing or the change would go negative.
	if _, getErr := r.GetByID(ctx, tenantID, id); getErr != nil {
		return 0, getErr
	}
	return 0, common.Conflictf("insufficient stock")
}

func (r *productRepo) CreateMovement(ctx context.Context, m *models.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, tenant_id, product_id, change, reason, order_id, note, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := executor(ctx, r.db).Exec(ctx, query, m.ID, m.TenantID, m.ProductID, m.Change, m.Reason, m.OrderID, m.Note, m.CreatedBy)
	return translateError(err, "stock movement")
}

func (r *productRepo) ListMovements(ctx context.Context, tenantID, productID uuid.UUID, limit, offset int) ([]*models.StockMovement, error) {
	query := `
		SELECT id, tenant_id, product_id, change, reason, order_id, note, created_by, created_at
		FROM stock_movements
		WHERE tenant_id = $1 AND product_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := executor(ctx, r.db).Query(ctx, query, tenantID, productID, limit, offset)
	if err != nil {
		return nil, translateError(err, "stock movement")
	}
	defer rows.Close()

	var movements []*models.StockMovement
	for rows.Next() {
		m := &models.StockMovement{}
		if err := rows.Scan(&m.ID, &m.TenantID, &m.ProductID, &m.Change, &m.Reason, &m.OrderID, &m.Note, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
