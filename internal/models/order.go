package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderStatusCompleted = "completed"
	OrderStatusRefunded  = "refunded"

	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
)

// OrderFilter holds list criteria for orders
type OrderFilter struct {
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	ClientID *uuid.UUID `json:"client_id,omitempty"`
	Status   *string    `json:"status,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}

// Order is a retail sale rung up at the point of sale.
type Order struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TenantID      uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Number        int64           `json:"number" db:"number"`
	ClientID      *uuid.UUID      `json:"client_id" db:"client_id"`
	AppointmentID *uuid.UUID      `json:"appointment_id" db:"appointment_id"`
	Status        string          `json:"status" db:"status"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount      decimal.Decimal `json:"discount" db:"discount"`
	Tax           decimal.Decimal `json:"tax" db:"tax"`
	Total         decimal.Decimal `json:"total" db:"total"`
	Notes         *string         `json:"notes" db:"notes"`
	CreatedBy     *uuid.UUID      `json:"created_by" db:"created_by"`
	RefundedAt    *time.Time      `json:"refunded_at" db:"refunded_at"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
	Items         []*OrderItem    `json:"items" db:"-"`
}

// OrderTotals computes subtotal, tax and total for a sale. Tax applies to the
// discounted subtotal; every amount is rounded to cents.
func OrderTotals(items []*OrderItem, discount, taxRatePercent decimal.Decimal) (subtotal, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	subtotal = subtotal.Round(2)
	taxable := subtotal.Sub(discount)
	tax = taxable.Mul(taxRatePercent).Div(decimal.NewFromInt(100)).Round(2)
	total = taxable.Add(tax).Round(2)
	return subtotal, tax, total
}
