package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is a bookable treatment on the salon menu.
type Service struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	TenantID        uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	CategoryID      *uuid.UUID      `json:"category_id" db:"category_id"`
	Name            string          `json:"name" db:"name"`
	Description     *string         `json:"description" db:"description"`
	DurationMinutes int             `json:"duration_minutes" db:"duration_minutes"`
	Price           decimal.Decimal `json:"price" db:"price"`
	Active          bool            `json:"active" db:"active"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// ServiceFilter holds list criteria for services
type ServiceFilter struct {
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	Active     *bool      `json:"active,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
}
