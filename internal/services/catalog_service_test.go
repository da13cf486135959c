package services

import (
	"context"
	"testing"
	"time"

	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDeleteService_ReferencedIsDeactivated(t *testing.T) {
	tenantID, id := uuid.New(), uuid.New()
	serviceRepo := &MockServiceRepository{}
	serviceRepo.On("GetByID", mock.Anything, tenantID, id).Return(&models.Service{ID: id, Active: true}, nil)
	serviceRepo.On("IsReferenced", mock.Anything, tenantID, id).Return(true, nil)
	serviceRepo.On("Deactivate", mock.Anything, tenantID, id).Return(nil)

	svc := NewCatalogService(&MockCategoryRepository{}, serviceRepo, testclock.NewClock(time.Now()))
	soft, err := svc.DeleteService(context.Background(), tenantID, id)

	require.NoError(t, err)
	assert.True(t, soft)
	serviceRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	serviceRepo.AssertExpectations(t)
}

func TestDeleteService_UnusedIsRemoved(t *testing.T) {
	tenantID, id := uuid.New(), uuid.New()
	serviceRepo := &MockServiceRepository{}
	serviceRepo.On("GetByID", mock.Anything, tenantID, id).Return(&models.Service{ID: id}, nil)
	serviceRepo.On("IsReferenced", mock.Anything, tenantID, id).Return(false, nil)
	serviceRepo.On("Delete", mock.Anything, tenantID, id).Return(nil)

	svc := NewCatalogService(&MockCategoryRepository{}, serviceRepo, testclock.NewClock(time.Now()))
	soft, err := svc.DeleteService(context.Background(), tenantID, id)

	require.NoError(t, err)
	assert.False(t, soft)
	serviceRepo.AssertExpectations(t)
}

func TestCreateService_CategoryMustBeServiceKind(t *testing.T) {
	tenantID, categoryID := uuid.New(), uuid.New()
	categoryRepo := &MockCategoryRepository{}
	categoryRepo.On("GetByID", mock.Anything, tenantID, models.CategoryKindService, categoryID).Return(nil, errors.NotFoundf("category"))

	svc := NewCatalogService(categoryRepo, &MockServiceRepository{}, testclock.NewClock(time.Now()))
	_, err := svc.CreateService(context.Background(), tenantID, &ServiceRequest{
		CategoryID: &categoryID, Name: "Cut", DurationMinutes: 45, Price: decimal.NewFromInt(40),
	})

	assert.True(t, errors.Is(err, errors.NotValid))
	categoryRepo.AssertExpectations(t)
}
