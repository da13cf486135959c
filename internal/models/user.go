package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleStaff   = "staff"

	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// RoleRank orders roles so that a higher rank includes the lower ones.
func RoleRank(role string) int {
	switch role {
	case RoleOwner:
		return 3
	case RoleManager:
		return 2
	case RoleStaff:
		return 1
	default:
		return 0
	}
}

// User is a staff login belonging to one salon.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TenantID     uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never serialize in JSON
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	Role         string     `json:"role" db:"role"`
	StylistID    *uuid.UUID `json:"stylist_id" db:"stylist_id"`
	Status       string     `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
