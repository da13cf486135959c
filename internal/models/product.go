package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductFilter holds search and filter criteria for product queries
type ProductFilter struct {
	Query      string     `json:"query,omitempty"`       // name, sku or brand
	CategoryID *uuid.UUID `json:"category_id,omitempty"` // Filter by category
	Active     *bool      `json:"active,omitempty"`
	LowStock   bool       `json:"low_stock,omitempty"` // stock_quantity <= low_stock_threshold
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
}

type Product struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	TenantID          uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	CategoryID        *uuid.UUID      `json:"category_id" db:"category_id"`
	Name              string          `json:"name" db:"name"`
	SKU               *string         `json:"sku" db:"sku"`
	Brand             *string         `json:"brand" db:"brand"`
	Description       *string         `json:"description" db:"description"`
	Price             decimal.Decimal `json:"price" db:"price"`
	Cost              decimal.Decimal `json:"cost" db:"cost"`
	StockQuantity     int             `json:"stock_quantity" db:"stock_quantity"`
	LowStockThreshold int             `json:"low_stock_threshold" db:"low_stock_threshold"`
	ImageKey          *string         `json:"-" db:"image_key"`
	ImageURL          string          `json:"image_url,omitempty" db:"-"`
	Active            bool            `json:"active" db:"active"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// IsLowStock reports whether stock has reached the alert threshold.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}

const (
	StockReasonRestock    = "restock"
	StockReasonAdjustment = "adjustment"
	StockReasonSale       = "sale"
	StockReasonRefund     = "refund"
)

// StockMovement is one change to a product's stock counter.
type StockMovement struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	TenantID  uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	ProductID uuid.UUID  `json:"product_id" db:"product_id"`
	Change    int        `json:"change" db:"change"`
	Reason    string     `json:"reason" db:"reason"`
	OrderID   *uuid.UUID `json:"order_id" db:"order_id"`
	Note      *string    `json:"note" db:"note"`
	CreatedBy *uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
