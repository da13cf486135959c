package services

import (
	"context"
	"testing"
	"time"

	"salonhub/internal/common"
	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newStylistServiceForTest() (StylistService, *MockStylistRepository, *MockAppointmentRepository, *MockMinioService, *testclock.Clock) {
	stylistRepo := &MockStylistRepository{}
	appointmentRepo := &MockAppointmentRepository{}
	media := &MockMinioService{}
	clk := testclock.NewClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	return NewStylistService(&fakeTransactor{}, stylistRepo, appointmentRepo, media, clk), stylistRepo, appointmentRepo, media, clk
}

func TestReplaceSchedule(t *testing.T) {
	tenantID, stylistID := uuid.New(), uuid.New()
	svc, stylistRepo, _, _, _ := newStylistServiceForTest()
	stylistRepo.On("GetByID", mock.Anything, tenantID, stylistID).Return(&models.Stylist{ID: stylistID}, nil)
	stylistRepo.On("ReplaceSchedule", mock.Anything, tenantID, stylistID, mock.MatchedBy(func(days []*models.Schedule) bool {
		return len(days) == 2 && days[0].StylistID == stylistID && days[1].TenantID == tenantID
	})).Return(nil)

	bs, be := "12:00", "12:30"
	days, err := svc.ReplaceSchedule(context.Background(), tenantID, stylistID, []*models.Schedule{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00", BreakStart: &bs, BreakEnd: &be},
		{DayOfWeek: 6, StartTime: "10:00", EndTime: "14:00"},
	})

	require.NoError(t, err)
	assert.Len(t, days, 2)
	assert.NotEqual(t, uuid.Nil, days[0].ID)
	stylistRepo.AssertExpectations(t)
}

func TestReplaceSchedule_Invalid(t *testing.T) {
	bs := "08:00"
	be := "08:30"
	tests := map[string][]*models.Schedule{
		"end before start":  {{DayOfWeek: 1, StartTime: "17:00", EndTime: "09:00"}},
		"duplicate day":     {{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"}, {DayOfWeek: 1, StartTime: "10:00", EndTime: "12:00"}},
		"break outside day": {{DayOfWeek: 2, StartTime: "09:00", EndTime: "17:00", BreakStart: &bs, BreakEnd: &be}},
		"bad weekday":       {{DayOfWeek: 7, StartTime: "09:00", EndTime: "17:00"}},
		"null entry":        {nil},
		"null after valid":  {{DayOfWeek: 3, StartTime: "09:00", EndTime: "17:00"}, nil},
	}
	for name, days := range tests {
		t.Run(name, func(t *testing.T) {
			svc, stylistRepo, _, _, _ := newStylistServiceForTest()

			_, err := svc.ReplaceSchedule(context.Background(), uuid.New(), uuid.New(), days)

			assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)
			stylistRepo.AssertNotCalled(t, "ReplaceSchedule", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestStylistDelete_UpcomingAppointments(t *testing.T) {
	tenantID, stylistID := uuid.New(), uuid.New()
	svc, stylistRepo, appointmentRepo, _, clk := newStylistServiceForTest()
	stylistRepo.On("GetByID", mock.Anything, tenantID, stylistID).Return(&models.Stylist{ID: stylistID}, nil)
	appointmentRepo.On("CountUpcomingForStylist", mock.Anything, tenantID, stylistID, clk.Now()).Return(3, nil)

	err := svc.Delete(context.Background(), tenantID, stylistID)

	assert.True(t, errors.Is(err, common.ErrConflict))
	stylistRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestStylistDelete_RemovesPhoto(t *testing.T) {
	tenantID, stylistID := uuid.New(), uuid.New()
	key := "t/stylists/s/photo.jpg"
	svc, stylistRepo, appointmentRepo, media, _ := newStylistServiceForTest()
	stylistRepo.On("GetByID", mock.Anything, tenantID, stylistID).Return(&models.Stylist{ID: stylistID, PhotoKey: &key}, nil)
	appointmentRepo.On("CountUpcomingForStylist", mock.Anything, tenantID, stylistID, mock.Anything).Return(0, nil)
	stylistRepo.On("Delete", mock.Anything, tenantID, stylistID).Return(nil)
	media.On("Delete", mock.Anything, key).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), tenantID, stylistID))
	media.AssertExpectations(t)
}
