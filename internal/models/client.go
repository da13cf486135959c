package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Client struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	TenantID       uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	FirstName      string     `json:"first_name" db:"first_name"`
	LastName       string     `json:"last_name" db:"last_name"`
	Email          *string    `json:"email" db:"email"`
	Phone          *string    `json:"phone" db:"phone"`
	Birthday       *time.Time `json:"birthday" db:"birthday"`
	Notes          *string    `json:"notes" db:"notes"`
	MarketingOptIn bool       `json:"marketing_opt_in" db:"marketing_opt_in"`
	LastVisitAt    *time.Time `json:"last_visit_at" db:"last_visit_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// FullName joins first and last name.
func (c *Client) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// ClientFilter holds list criteria for clients
type ClientFilter struct {
	Query     string `json:"query,omitempty"`      // name, email or phone
	SortBy    string `json:"sort_by,omitempty"`    // name, created_at, last_visit_at
	SortOrder string `json:"sort_order,omitempty"` // asc, desc
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// ClientLifetime is the all-time total of a client's completed visits and orders.
type ClientLifetime struct {
	Spend      decimal.Decimal
	VisitCount int
}

// ClientHistory is a client's visit and purchase record.
type ClientHistory struct {
	Client        *Client         `json:"client"`
	Appointments  []*Appointment  `json:"appointments"`
	Orders        []*Order        `json:"orders"`
	LifetimeSpend decimal.Decimal `json:"lifetime_spend"`
	VisitCount    int             `json:"visit_count"`
}
