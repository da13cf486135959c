package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AppointmentPending   = "pending"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
	AppointmentNoShow    = "no_show"
)

const (
	DepositNotRequired = "not_required"
	DepositPending     = "pending"
	DepositReceived    = "received"
	DepositWaived      = "waived"
	DepositRejected    = "rejected"
	DepositExpired     = "expired"
)

var appointmentTransitions = map[string][]string{
	AppointmentPending:   {AppointmentConfirmed, AppointmentCancelled},
	AppointmentConfirmed: {AppointmentCompleted, AppointmentCancelled, AppointmentNoShow},
}

// CanTransition reports whether an appointment may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range appointmentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsBlockingStatus reports whether an appointment in this status occupies
// the stylist's time.
func IsBlockingStatus(status string) bool {
	switch status {
	case AppointmentPending, AppointmentConfirmed, AppointmentCompleted:
		return true
	default:
		return false
	}
}

// BlockingStatuses is IsBlockingStatus as a list for SQL filters.
var BlockingStatuses = []string{AppointmentPending, AppointmentConfirmed, AppointmentCompleted}

type Appointment struct {
	ID               uuid.UUID             `json:"id" db:"id"`
	TenantID         uuid.UUID             `json:"tenant_id" db:"tenant_id"`
	ClientID         uuid.UUID             `json:"client_id" db:"client_id"`
	StylistID        uuid.UUID             `json:"stylist_id" db:"stylist_id"`
	StartAt          time.Time             `json:"start_at" db:"start_at"`
	EndAt            time.Time             `json:"end_at" db:"end_at"`
	Status           string                `json:"status" db:"status"`
	Notes            *string               `json:"notes" db:"notes"`
	TotalPrice       decimal.Decimal       `json:"total_price" db:"total_price"`
	DepositStatus    string                `json:"deposit_status" db:"deposit_status"`
	DepositAmount    decimal.Decimal       `json:"deposit_amount" db:"deposit_amount"`
	DepositDueAt     *time.Time            `json:"deposit_due_at" db:"deposit_due_at"`
	DepositReference *string               `json:"deposit_reference" db:"deposit_reference"`
	DepositDecidedBy *uuid.UUID            `json:"deposit_decided_by" db:"deposit_decided_by"`
	DepositDecidedAt *time.Time            `json:"deposit_decided_at" db:"deposit_decided_at"`
	DepositNote      *string               `json:"deposit_note" db:"deposit_note"`
	CancelReason     *string               `json:"cancel_reason" db:"cancel_reason"`
	CancelledAt      *time.Time            `json:"cancelled_at" db:"cancelled_at"`
	CompletedAt      *time.Time            `json:"completed_at" db:"completed_at"`
	ReminderSentAt   *time.Time            `json:"reminder_sent_at" db:"reminder_sent_at"`
	CreatedAt        time.Time             `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at" db:"updated_at"`
	Services         []*AppointmentService `json:"services" db:"-"`
	ClientName       string                `json:"client_name,omitempty" db:"-"`
	StylistName      string                `json:"stylist_name,omitempty" db:"-"`

	// Deposit countdown, filled in for pending deposits when rendering.
	DepositSecondsRemaining *int64 `json:"deposit_seconds_remaining,omitempty" db:"-"`
	DepositOverdue          bool   `json:"deposit_overdue,omitempty" db:"-"`
}

// AppointmentService is a service line on an appointment. Name, duration and
// price are copied from the catalog at booking time.
type AppointmentService struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	AppointmentID   uuid.UUID       `json:"appointment_id" db:"appointment_id"`
	ServiceID       uuid.UUID       `json:"service_id" db:"service_id"`
	ServiceName     string          `json:"service_name" db:"service_name"`
	DurationMinutes int             `json:"duration_minutes" db:"duration_minutes"`
	Price           decimal.Decimal `json:"price" db:"price"`
	Position        int             `json:"position" db:"position"`
}

// Duration is the booked length of the appointment.
func (a *Appointment) Duration() time.Duration {
	return a.EndAt.Sub(a.StartAt)
}

// Overlaps reports whether two half-open intervals [aStart,aEnd) and
// [bStart,bEnd) share any instant. Back-to-back intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// FillDepositCountdown sets the countdown fields relative to now.
func (a *Appointment) FillDepositCountdown(now time.Time) {
	a.DepositSecondsRemaining = nil
	a.DepositOverdue = false
	if a.DepositStatus != DepositPending || a.DepositDueAt == nil {
		return
	}
	remaining := int64(a.DepositDueAt.Sub(now) / time.Second)
	if remaining <= 0 {
		remaining = 0
		a.DepositOverdue = true
	}
	a.DepositSecondsRemaining = &remaining
}

// AppointmentFilter holds list criteria for appointments
type AppointmentFilter struct {
	From          *time.Time `json:"from,omitempty"`
	To            *time.Time `json:"to,omitempty"`
	StylistID     *uuid.UUID `json:"stylist_id,omitempty"`
	ClientID      *uuid.UUID `json:"client_id,omitempty"`
	Status        *string    `json:"status,omitempty"`
	DepositStatus *string    `json:"deposit_status,omitempty"`
	Limit         int        `json:"limit,omitempty"`
	Offset        int        `json:"offset,omitempty"`
}

// StatusChange describes a conditional status update.
type StatusChange struct {
	From         string
	To           string
	At           time.Time
	CancelReason *string
}

// DepositDecision describes a conditional deposit update.
type DepositDecision struct {
	Status    string
	Reference *string
	Note      *string
	DecidedBy *uuid.UUID
	At        time.Time
}
