package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
)

// Tenant is one salon business. Every other record is scoped to a tenant.
type Tenant struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	Name                 string          `json:"name" db:"name"`
	Slug                 string          `json:"slug" db:"slug"`
	Email                *string         `json:"email" db:"email"`
	Phone                *string         `json:"phone" db:"phone"`
	Address              *string         `json:"address" db:"address"`
	Timezone             string          `json:"timezone" db:"timezone"`
	Currency             string          `json:"currency" db:"currency"`
	TaxRate              decimal.Decimal `json:"tax_rate" db:"tax_rate"`
	SlotIntervalMinutes  int             `json:"slot_interval_minutes" db:"slot_interval_minutes"`
	BookingLeadMinutes   int             `json:"booking_lead_minutes" db:"booking_lead_minutes"`
	DepositRequired      bool            `json:"deposit_required" db:"deposit_required"`
	DepositPercent       decimal.Decimal `json:"deposit_percent" db:"deposit_percent"`
	DepositDeadlineHours int             `json:"deposit_deadline_hours" db:"deposit_deadline_hours"`
	BankDetails          *string         `json:"bank_details" db:"bank_details"`
	Status               string          `json:"status" db:"status"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at" db:"updated_at"`
}

// Location resolves the business timezone, falling back to UTC.
func (t *Tenant) Location() *time.Location {
	if t == nil || t.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AllowedSlotIntervals lists the calendar granularities a business can pick.
var AllowedSlotIntervals = []int{5, 10, 15, 20, 30, 45, 60, 90, 120}

// TenantSettingsUpdate carries a partial update of business settings.
type TenantSettingsUpdate struct {
	Name                 *string          `json:"name" validate:"omitempty,min=2,max=120"`
	Email                *string          `json:"email" validate:"omitempty,email"`
	Phone                *string          `json:"phone" validate:"omitempty,max=40"`
	Address              *string          `json:"address" validate:"omitempty,max=300"`
	Timezone             *string          `json:"timezone"`
	Currency             *string          `json:"currency" validate:"omitempty,len=3"`
	TaxRate              *decimal.Decimal `json:"tax_rate"`
	SlotIntervalMinutes  *int             `json:"slot_interval_minutes"`
	BookingLeadMinutes   *int             `json:"booking_lead_minutes" validate:"omitempty,gte=0,lte=10080"`
	DepositRequired      *bool            `json:"deposit_required"`
	DepositPercent       *decimal.Decimal `json:"deposit_percent"`
	DepositDeadlineHours *int             `json:"deposit_deadline_hours" validate:"omitempty,gte=1,lte=720"`
	BankDetails          *string          `json:"bank_details" validate:"omitempty,max=1000"`
}
