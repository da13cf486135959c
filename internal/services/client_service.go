package services

import (
	"context"
	"strings"
	"time"

	"salonhub/internal/common"
	"salonhub/internal/models"
	"salonhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
)

type ClientService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req *ClientRequest) (*models.Client, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req *ClientRequest) (*models.Client, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter *models.ClientFilter) ([]*models.Client, error)
	History(ctx context.Context, tenantID, id uuid.UUID) (*models.ClientHistory, error)
}

// ClientRequest is the body for creating or replacing a client record.
type ClientRequest struct {
	FirstName      string  `json:"first_name" validate:"required,max=80"`
	LastName       string  `json:"last_name" validate:"max=80"`
	Email          *string `json:"email" validate:"omitempty,email"`
	Phone          *string `json:"phone" validate:"omitempty,max=40"`
	Birthday       *string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Notes          *string `json:"notes" validate:"omitempty,max=2000"`
	MarketingOptIn bool    `json:"marketing_opt_in"`
}

const historyLimit = 200

type clientService struct {
	clientRepo      repositories.ClientRepository
	appointmentRepo repositories.AppointmentRepository
	orderRepo       repositories.OrderRepository
	clock           clock.Clock
}

func NewClientService(clientRepo repositories.ClientRepository, appointmentRepo repositories.AppointmentRepository,
	orderRepo repositories.OrderRepository, clk clock.Clock) ClientService {
	return &clientService{
		clientRepo:      clientRepo,
		appointmentRepo: appointmentRepo,
		orderRepo:       orderRepo,
		clock:           clk,
	}
}

func (req *ClientRequest) apply(c *models.Client) error {
	c.FirstName = strings.TrimSpace(req.FirstName)
	c.LastName = strings.TrimSpace(req.LastName)
	c.Email = nil
	if req.Email != nil {
		c.Email = common.StringPtr(strings.ToLower(*req.Email))
	}
	c.Phone = nil
	if req.Phone != nil {
		c.Phone = common.StringPtr(*req.Phone)
	}
	c.Birthday = nil
	if req.Birthday != nil && *req.Birthday != "" {
		b, err := time.Parse("2006-01-02", *req.Birthday)
		if err != nil {
			return errors.NotValidf("birthday %q", *req.Birthday)
		}
		c.Birthday = &b
	}
	c.Notes = req.Notes
	c.MarketingOptIn = req.MarketingOptIn
	return nil
}

func (s *clientService) Create(ctx context.Context, tenantID uuid.UUID, req *ClientRequest) (*models.Client, error) {
	now := s.clock.Now().UTC()
	client := &models.Client{ID: uuid.New(), TenantID: tenantID, CreatedAt: now, UpdatedAt: now}
	if err := req.apply(client); err != nil {
		return nil, err
	}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error) {
	return s.clientRepo.GetByID(ctx, tenantID, id)
}

func (s *clientService) Update(ctx context.Context, tenantID, id uuid.UUID, req *ClientRequest) (*models.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := req.apply(client); err != nil {
		return nil, err
	}
	client.UpdatedAt = s.clock.Now().UTC()
	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.clientRepo.GetByID(ctx, tenantID, id); err != nil {
		return err
	}
	upcoming, err := s.appointmentRepo.CountUpcomingForClient(ctx, tenantID, id, s.clock.Now())
	if err != nil {
		return err
	}
	if upcoming > 0 {
		return common.Conflictf("client has %d upcoming appointments", upcoming)
	}
	err = s.clientRepo.Delete(ctx, tenantID, id)
	if errors.Is(err, errors.NotValid) {
		// Past appointments still reference the client.
		return common.Conflictf("client has appointment history and cannot be deleted")
	}
	return err
}

func (s *clientService) List(ctx context.Context, tenantID uuid.UUID, filter *models.ClientFilter) ([]*models.Client, error) {
	if filter == nil {
		filter = &models.ClientFilter{}
	}
	filter.Query = common.SanitizeSearchQuery(filter.Query)
	return s.clientRepo.List(ctx, tenantID, filter)
}

func (s *clientService) History(ctx context.Context, tenantID, id uuid.UUID) (*models.ClientHistory, error) {
	client, err := s.clientRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	appointments, err := s.appointmentRepo.List(ctx, tenantID, &models.AppointmentFilter{ClientID: &id, Limit: historyLimit})
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.List(ctx, tenantID, &models.OrderFilter{ClientID: &id, Limit: historyLimit})
	if err != nil {
		return nil, err
	}

	lifetime, err := s.clientRepo.Lifetime(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	history := &models.ClientHistory{
		Client:        client,
		Appointments:  appointments,
		Orders:        orders,
		LifetimeSpend: lifetime.Spend,
		VisitCount:    lifetime.VisitCount,
	}
	if history.Appointments == nil {
		history.Appointments = []*models.Appointment{}
	}
	if history.Orders == nil {
		history.Orders = []*models.Order{}
	}
	for _, a := range appointments {
		a.FillDepositCountdown(now)
	}
	return history, nil
}
