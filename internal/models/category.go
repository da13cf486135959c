package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	CategoryKindService = "service"
	CategoryKindProduct = "product"
)

// Category groups either services or retail products, depending on Kind.
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Kind        string    `json:"kind" db:"kind"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	SortOrder   int       `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
