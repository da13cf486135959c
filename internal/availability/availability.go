// Package availability computes open appointment times from a stylist's
// working hours and existing bookings. It is pure and does no I/O.
package availability

import (
	"time"

	"salonhub/internal/models"

	"github.com/juju/errors"
)

const (
	ErrOutsideHours = errors.ConstError("outside working hours")
	ErrDuringBreak  = errors.ConstError("overlaps the stylist's break")
	ErrOverlap      = errors.ConstError("booking conflict")
)

// Window is a half-open interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) overlaps(o Window) bool {
	return models.Overlaps(w.Start, w.End, o.Start, o.End)
}

// Day is one stylist's working day resolved to absolute times.
type Day struct {
	Work  Window
	Break *Window
}

// DayFor resolves a weekly schedule entry onto the calendar date of date in
// loc. A nil schedule means a day off and yields nil.
func DayFor(date time.Time, loc *time.Location, s *models.Schedule) (*Day, error) {
	if s == nil {
		return nil, nil
	}
	y, m, d := date.In(loc).Date()
	at := func(clock string) (time.Time, error) {
		minutes, err := models.ClockMinutes(clock)
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, loc), nil
	}

	start, err := at(s.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := at(s.EndTime)
	if err != nil {
		return nil, err
	}
	day := &Day{Work: Window{Start: start, End: end}}

	if s.BreakStart != nil && s.BreakEnd != nil {
		bs, err := at(*s.BreakStart)
		if err != nil {
			return nil, err
		}
		be, err := at(*s.BreakEnd)
		if err != nil {
			return nil, err
		}
		day.Break = &Window{Start: bs, End: be}
	}
	return day, nil
}

// Check reports why [start, start+duration) cannot be booked on day, or nil
// when it can.
func Check(day *Day, booked []Window, start time.Time, duration time.Duration) error {
	if day == nil {
		return ErrOutsideHours
	}
	candidate := Window{Start: start, End: start.Add(duration)}
	if candidate.Start.Before(day.Work.Start) || candidate.End.After(day.Work.End) {
		return ErrOutsideHours
	}
	if day.Break != nil && candidate.overlaps(*day.Break) {
		return ErrDuringBreak
	}
	for _, b := range booked {
		if candidate.overlaps(b) {
			return ErrOverlap
		}
	}
	return nil
}

// Slots lists every bookable start on day, stepping from the start of working
// hours by step. Starts before earliest are skipped.
func Slots(day *Day, booked []Window, duration, step time.Duration, earliest time.Time) []Window {
	slots := []Window{}
	if day == nil || duration <= 0 || step <= 0 {
		return slots
	}
	for start := day.Work.Start; !start.Add(duration).After(day.Work.End); start = start.Add(step) {
		if start.Before(earliest) {
			continue
		}
		if Check(day, booked, start, duration) == nil {
			slots = append(slots, Window{Start: start, End: start.Add(duration)})
		}
	}
	return slots
}

// Windows converts booked appointments into intervals.
func Windows(appointments []*models.Appointment) []Window {
	windows := make([]Window, 0, len(appointments))
	for _, a := range appointments {
		windows = append(windows, Window{Start: a.StartAt, End: a.EndAt})
	}
	return windows
}
