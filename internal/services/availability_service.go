package services

import (
	"context"
	"time"

	"salonhub/internal/availability"
	"salonhub/internal/models"
	"salonhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
)

// AvailabilityService lists open appointment times.
type AvailabilityService interface {
	Find(ctx context.Context, tenantID uuid.UUID, query *AvailabilityQuery) (*AvailabilityResponse, error)
}

type AvailabilityQuery struct {
	Date       string
	ServiceIDs []uuid.UUID
	StylistID  *uuid.UUID
}

type AvailabilityResponse struct {
	Date            string                `json:"date"`
	DurationMinutes int                   `json:"duration_minutes"`
	Stylists        []StylistAvailability `json:"stylists"`
}

type StylistAvailability struct {
	StylistID uuid.UUID             `json:"stylist_id"`
	Name      string                `json:"name"`
	Slots     []availability.Window `json:"slots"`
}

type availabilityService struct {
	tenantRepo      repositories.TenantRepository
	stylistRepo     repositories.StylistRepository
	serviceRepo     repositories.ServiceRepository
	appointmentRepo repositories.AppointmentRepository
	clock           clock.Clock
}

func NewAvailabilityService(tenantRepo repositories.TenantRepository, stylistRepo repositories.StylistRepository,
	serviceRepo repositories.ServiceRepository, appointmentRepo repositories.AppointmentRepository, clk clock.Clock) AvailabilityService {
	return &availabilityService{
		tenantRepo:      tenantRepo,
		stylistRepo:     stylistRepo,
		serviceRepo:     serviceRepo,
		appointmentRepo: appointmentRepo,
		clock:           clk,
	}
}

// loadServices resolves ids in order and rejects unknown or inactive ones.
func loadServices(ctx context.Context, repo repositories.ServiceRepository, tenantID uuid.UUID, ids []uuid.UUID) ([]*models.Service, error) {
	if len(ids) == 0 {
		return nil, errors.NotValidf("at least one service is required")
	}
	found, err := repo.GetByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	services := make([]*models.Service, 0, len(ids))
	for _, id := range ids {
		svc, ok := found[id]
		if !ok {
			return nil, errors.NotValidf("service %s", id)
		}
		if !svc.Active {
			return nil, errors.NotValidf("service %q is inactive", svc.Name)
		}
		services = append(services, svc)
	}
	return services, nil
}

func totalDuration(services []*models.Service) time.Duration {
	var minutes int
	for _, svc := range services {
		minutes += svc.DurationMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func (s *availabilityService) Find(ctx context.Context, tenantID uuid.UUID, query *AvailabilityQuery) (*AvailabilityResponse, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	loc := tenant.Location()
	date, err := time.ParseInLocation("2006-01-02", query.Date, loc)
	if err != nil {
		return nil, errors.NotValidf("date %q (want YYYY-MM-DD)", query.Date)
	}

	services, err := loadServices(ctx, s.serviceRepo, tenantID, query.ServiceIDs)
	if err != nil {
		return nil, err
	}
	duration := totalDuration(services)

	var stylists []*models.Stylist
	if query.StylistID != nil {
		st, err := s.stylistRepo.GetByID(ctx, tenantID, *query.StylistID)
		if err != nil {
			return nil, err
		}
		if st.Active {
			stylists = append(stylists, st)
		}
	} else {
		active := true
		if stylists, err = s.stylistRepo.List(ctx, tenantID, &active); err != nil {
			return nil, err
		}
	}

	resp := &AvailabilityResponse{
		Date:            query.Date,
		DurationMinutes: int(duration / time.Minute),
		Stylists:        []StylistAvailability{},
	}
	if len(stylists) == 0 {
		return resp, nil
	}

	ids := make([]uuid.UUID, 0, len(stylists))
	for _, st := range stylists {
		ids = append(ids, st.ID)
	}
	dayStart := date
	dayEnd := date.AddDate(0, 0, 1)
	blocking, err := s.appointmentRepo.ListBlocking(ctx, tenantID, ids, dayStart, dayEnd, nil)
	if err != nil {
		return nil, err
	}
	byStylist := make(map[uuid.UUID][]*models.Appointment)
	for _, a := range blocking {
		byStylist[a.StylistID] = append(byStylist[a.StylistID], a)
	}

	step := time.Duration(tenant.SlotIntervalMinutes) * time.Minute
	if step <= 0 {
		step = 15 * time.Minute
	}
	earliest := s.clock.Now().Add(time.Duration(tenant.BookingLeadMinutes) * time.Minute)

	for _, st := range stylists {
		schedule, err := s.stylistRepo.GetScheduleForDay(ctx, tenantID, st.ID, int(date.Weekday()))
		if err != nil {
			return nil, err
		}
		day, err := availability.DayFor(date, loc, schedule)
		if err != nil {
			return nil, err
		}
		slots := availability.Slots(day, availability.Windows(byStylist[st.ID]), duration, step, earliest)
		for i := range slots {
			slots[i].Start = slots[i].Start.In(loc)
			slots[i].End = slots[i].End.In(loc)
		}
		resp.Stylists = append(resp.Stylists, StylistAvailability{StylistID: st.ID, Name: st.Name, Slots: slots})
	}
	return resp, nil
}
