package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Stylist struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	TenantID       uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Name           string          `json:"name" db:"name"`
	Email          *string         `json:"email" db:"email"`
	Phone          *string         `json:"phone" db:"phone"`
	Bio            *string         `json:"bio" db:"bio"`
	Color          *string         `json:"color" db:"color"`
	PhotoKey       *string         `json:"-" db:"photo_key"`
	PhotoURL       string          `json:"photo_url,omitempty" db:"-"`
	CommissionRate decimal.Decimal `json:"commission_rate" db:"commission_rate"`
	Active         bool            `json:"active" db:"active"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// Schedule is one weekday of a stylist's recurring working week. Times are
// wall-clock HH:MM in the business timezone.
type Schedule struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TenantID   uuid.UUID `json:"tenant_id" db:"tenant_id"`
	StylistID  uuid.UUID `json:"stylist_id" db:"stylist_id"`
	DayOfWeek  int       `json:"day_of_week" db:"day_of_week" validate:"gte=0,lte=6"`
	StartTime  string    `json:"start_time" db:"start_time" validate:"required,clock"`
	EndTime    string    `json:"end_time" db:"end_time" validate:"required,clock"`
	BreakStart *string   `json:"break_start" db:"break_start" validate:"omitempty,clock"`
	BreakEnd   *string   `json:"break_end" db:"break_end" validate:"omitempty,clock"`
}

// ClockMinutes converts "HH:MM" into minutes since midnight.
func ClockMinutes(clock string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q", clock)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", clock)
	}
	return h*60 + m, nil
}

// Validate checks ordering of working hours and break.
func (s *Schedule) Validate() error {
	start, err := ClockMinutes(s.StartTime)
	if err != nil {
		return err
	}
	end, err := ClockMinutes(s.EndTime)
	if err != nil {
		return err
	}
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week must be between 0 and 6")
	}
	if end <= start {
		return fmt.Errorf("end_time must be after start_time")
	}
	if (s.BreakStart == nil) != (s.BreakEnd == nil) {
		return fmt.Errorf("break_start and break_end must be set together")
	}
	if s.BreakStart != nil {
		bs, err := ClockMinutes(*s.BreakStart)
		if err != nil {
			return err
		}
		be, err := ClockMinutes(*s.BreakEnd)
		if err != nil {
			return err
		}
		if be <= bs {
			return fmt.Errorf("break_end must be after break_start")
		}
		if bs < start || be > end {
			return fmt.Errorf("break must fall inside working hours")
		}
	}
	return nil
}
