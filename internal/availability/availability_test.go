package availability

import (
	"testing"
	"time"

	"salonhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func mustDay(t *testing.T, date time.Time, loc *time.Location, s *models.Schedule) *Day {
	t.Helper()
	day, err := DayFor(date, loc, s)
	require.NoError(t, err)
	return day
}

func starts(slots []Window) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start.Format("15:04"))
	}
	return out
}

func TestDayFor(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)

	day := mustDay(t, date, loc, &models.Schedule{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:30", BreakStart: str("12:00"), BreakEnd: str("12:30")})
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, loc), day.Work.Start)
	assert.Equal(t, time.Date(2026, 3, 2, 17, 30, 0, 0, loc), day.Work.End)
	require.NotNil(t, day.Break)
	assert.Equal(t, time.Date(2026, 3, 2, 12, 0, 0, 0, loc), day.Break.Start)

	off, err := DayFor(date, loc, nil)
	require.NoError(t, err)
	assert.Nil(t, off)
}

func TestSlots(t *testing.T) {
	loc := time.UTC
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)
	at := func(h, m int) time.Time { return time.Date(2026, 3, 2, h, m, 0, 0, loc) }
	schedule := &models.Schedule{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", BreakStart: str("10:30"), BreakEnd: str("11:00")}

	tests := []struct {
		name     string
		booked   []Window
		duration time.Duration
		step     time.Duration
		earliest time.Time
		want     []string
	}{
		{
			name:     "empty day honours break",
			duration: 30 * time.Minute,
			step:     30 * time.Minute,
			want:     []string{"09:00", "09:30", "10:00", "11:00", "11:30"},
		},
		{
			name:     "booked interval removes overlapping starts but allows back-to-back",
			booked:   []Window{{Start: at(9, 30), End: at(10, 0)}},
			duration: 30 * time.Minute,
			step:     15 * time.Minute,
			want:     []string{"09:00", "10:00", "11:00", "11:15", "11:30"},
		},
		{
			name:     "long service must fit before break or end of day",
			duration: 60 * time.Minute,
			step:     30 * time.Minute,
			want:     []string{"09:00", "09:30", "11:00"},
		},
		{
			name:     "lead time skips early starts",
			duration: 30 * time.Minute,
			step:     30 * time.Minute,
			earliest: at(10, 1),
			want:     []string{"11:00", "11:30"},
		},
		{
			name:     "too long for the day",
			duration: 4 * time.Hour,
			step:     15 * time.Minute,
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day := mustDay(t, date, loc, schedule)
			got := Slots(day, tt.booked, tt.duration, tt.step, tt.earliest)
			assert.Equal(t, tt.want, starts(got))
			for _, s := range got {
				assert.Equal(t, tt.duration, s.End.Sub(s.Start))
			}
		})
	}
}

func TestSlots_DayOff(t *testing.T) {
	assert.Empty(t, Slots(nil, nil, 30*time.Minute, 15*time.Minute, time.Time{}))
}

func TestCheck(t *testing.T) {
	loc := time.UTC
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)
	at := func(h, m int) time.Time { return time.Date(2026, 3, 2, h, m, 0, 0, loc) }
	day := mustDay(t, date, loc, &models.Schedule{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00", BreakStart: str("13:00"), BreakEnd: str("14:00")})
	booked := []Window{{Start: at(10, 0), End: at(11, 0)}}

	assert.NoError(t, Check(day, booked, at(9, 0), time.Hour))
	assert.NoError(t, Check(day, booked, at(11, 0), time.Hour))
	assert.ErrorIs(t, Check(day, booked, at(10, 30), time.Hour), ErrOverlap)
	assert.ErrorIs(t, Check(day, booked, at(12, 30), time.Hour), ErrDuringBreak)
	assert.ErrorIs(t, Check(day, booked, at(8, 30), time.Hour), ErrOutsideHours)
	assert.ErrorIs(t, Check(day, booked, at(16, 30), time.Hour), ErrOutsideHours)
	assert.ErrorIs(t, Check(nil, nil, at(10, 0), time.Hour), ErrOutsideHours)
}
