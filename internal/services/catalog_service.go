package services

import (
	"context"
	"strings"

	"salonhub/internal/models"
	"salonhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"
)

// CatalogService manages the service menu and the categories used by both
// services and retail products.
type CatalogService interface {
	CreateCategory(ctx context.Context, tenantID uuid.UUID, kind string, req *CategoryRequest) (*models.Category, error)
	GetCategory(ctx context.Context, tenantID uuid.UUID, kind string, id uuid.UUID) (*models.Category, error)
	UpdateCategory(ctx context.Context, tenantID uuid.UUID, kind string, id uuid.UUID, req *CategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, tenantID uuid.UUID, kind string, id uuid.UUID) error
	ListCategories(ctx context.Context, tenantID uuid.UUID, kind string) ([]*models.Category, error)

	CreateService(ctx context.Context, tenantID uuid.UUID, req *ServiceRequest) (*models.Service, error)
	GetService(ctx context.Context, tenantID, id uuid.UUID) (*models.Service, error)
	UpdateService(ctx context.Context, tenantID, id uuid.UUID, req *ServiceRequest) (*models.Service, error)
	// DeleteService removes a service, or deactivates it when appointments
	// still reference it. The returned bool reports a soft delete.
	DeleteService(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
	ListServices(ctx context.Context, tenantID uuid.UUID, filter *models.ServiceFilter) ([]*models.Service, error)
}

type CategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=80"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	SortOrder   int     `json:"sort_order"`
}

type ServiceRequest struct {
	CategoryID      *uuid.UUID      `json:"category_id"`
	Name            string          `json:"name" validate:"required,max=120"`
	Description     *string         `json:"description" validate:"omitempty,max=2000"`
	DurationMinutes int             `json:"duration_minutes" validate:"gte=5,lte=720"`
	Price           decimal.Decimal `json:"price"`
	Active          *bool           `json:"active"`
}

type catalogService struct {
	categoryRepo repositories.CategoryRepository
	serviceRepo  repositories.ServiceRepository
	clock        clock.Clock
}

func NewCatalogService(categoryRepo repositories.CategoryRepository, serviceRepo repositories.ServiceRepository, clk clock.Clock) CatalogService {
	return &catalogService{categoryRepo: categoryRepo, serviceRepo: serviceRepo, clock: clk}
}

func (s *catalogService) CreateCategory(ctx context.Context, tenantID uuid.UUID, kind string, req *CategoryRequest) (*models.Category, error) {
	now := s.clock.Now().UTC()
	category := &models.Category{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Kind:        kind,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		SortOrder:   req.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *catalogService) GetCategory(ctx context.Context, tenantID uuid.UUID, kind string, id uuid.UUID) (*models.Category, error) {
	return s.categoryRepo.GetByID(ctx, tenantID, kind, id)
}

func (s *catalogService) UpdateCategory(ctx context.Context, tenantID uuid.UUID, kind string, id uuid.UUID, req *CategoryRequest) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, tenantID, kind, id)
	if err != nil {
		return nil, err
	}
	category.Name = strings.TrimSpace(req.Name)
	category.Description = req.Description
	category.SortOrder = req.SortOrder
	category.UpdatedAt = s.clock.Now().UTC()
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory relies on ON DELETE SET NULL to detach services and products.
func (s *catalogService) DeleteCategory(ctx context.Context, tenantID uuid.UUID, kind string, id uuid.UUID) error {
	return s.categoryRepo.Delete(ctx, tenantID, kind, id)
}

func (s *catalogService) ListCategories(ctx context.Context, tenantID uuid.UUID, kind string) ([]*models.Category, error) {
	return s.categoryRepo.List(ctx, tenantID, kind)
}

func (s *catalogService) checkCategory(ctx context.Context, tenantID uuid.UUID, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	_, err := s.categoryRepo.GetByID(ctx, tenantID, models.CategoryKindService, *categoryID)
	if errors.Is(err, errors.NotFound) {
		return errors.NotValidf("category_id %s", categoryID)
	}
	return err
}

func (req *ServiceRequest) validate() error {
	if req.Price.IsNegative() {
		return errors.NotValidf("price must not be negative")
	}
	return nil
}

func (s *catalogService) CreateService(ctx context.Context, tenantID uuid.UUID, req *ServiceRequest) (*models.Service, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, tenantID, req.CategoryID); err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	svc := &models.Service{
		ID:              uuid.New(),
		TenantID:        tenantID,
		CategoryID:      req.CategoryID,
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price.Round(2),
		Active:          req.Active == nil || *req.Active,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.serviceRepo.Create(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *catalogService) GetService(ctx context.Context, tenantID, id uuid.UUID) (*models.Service, error) {
	return s.serviceRepo.GetByID(ctx, tenantID, id)
}

func (s *catalogService) UpdateService(ctx context.Context, tenantID, id uuid.UUID, req *ServiceRequest) (*models.Service, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	svc, err := s.serviceRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, tenantID, req.CategoryID); err != nil {
		return nil, err
	}
	svc.CategoryID = req.CategoryID
	svc.Name = strings.TrimSpace(req.Name)
	svc.Description = req.Description
	svc.DurationMinutes = req.DurationMinutes
	svc.Price = req.Price.Round(2)
	if req.Active != nil {
		svc.Active = *req.Active
	}
	svc.UpdatedAt = s.clock.Now().UTC()
	if err := s.serviceRepo.Update(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *catalogService) DeleteService(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	if _, err := s.serviceRepo.GetByID(ctx, tenantID, id); err != nil {
		return false, err
	}
	referenced, err := s.serviceRepo.IsReferenced(ctx, tenantID, id)
	if err != nil {
		return false, err
	}
	if referenced {
		return true, s.serviceRepo.Deactivate(ctx, tenantID, id)
	}
	return false, s.serviceRepo.Delete(ctx, tenantID, id)
}

func (s *catalogService) ListServices(ctx context.Context, tenantID uuid.UUID, filter *models.ServiceFilter) ([]*models.Service, error) {
	if filter == nil {
		filter = &models.ServiceFilter{}
	}
	return s.serviceRepo.List(ctx, tenantID, filter)
}
