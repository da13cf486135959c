package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records a staff decision or a state change made by a job.
type AuditLog struct {
	ID         uuid.UUID              `json:"id" db:"id"`
	TenantID   uuid.UUID              `json:"tenant_id" db:"tenant_id"`
	UserID     *uuid.UUID             `json:"user_id" db:"user_id"`
	Action     string                 `json:"action" db:"action"`
	EntityType string                 `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID              `json:"entity_id" db:"entity_id"`
	Details    map[string]interface{} `json:"details" db:"details"`
	CreatedAt  time.Time              `json:"created_at" db:"created_at"`
}

// Action constants for audit logs
const (
	AuditDepositReceived    = "deposit.received"
	AuditDepositWaived      = "deposit.waived"
	AuditDepositRejected    = "deposit.rejected"
	AuditDepositExpired     = "deposit.expired"
	AuditAppointmentStatus  = "appointment.status"
	AuditAppointmentDeleted = "appointment.deleted"
	AuditStockAdjusted      = "stock.adjusted"
	AuditOrderRefunded      = "order.refunded"

	EntityAppointment = "appointment"
	EntityProduct     = "product"
	EntityOrder       = "order"

	EntityBusiness        = "business"
	EntityUser            = "user"
	EntityStylist         = "stylist"
	EntityService         = "service"
	EntityServiceCategory = "service_category"
	EntityProductCategory = "product_category"
)

// AuditLogFilters represents filters for querying audit logs
type AuditLogFilters struct {
	EntityType *string    `json:"entity_type"`
	EntityID   *uuid.UUID `json:"entity_id"`
	Action     *string    `json:"action"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
}
