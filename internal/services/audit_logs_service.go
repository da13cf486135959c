package services

import (
	"context"

	"salonhub/internal/models"
	"salonhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
)

type AuditLogsService interface {
	// Record writes one audit entry. userID is nil for entries written by
	// background jobs.
	Record(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, action, entityType string, entityID uuid.UUID, details map[string]interface{}) error
	List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
}

type auditLogsService struct {
	auditLogsRepo repositories.AuditLogsRepository
	clock         clock.Clock
}

func NewAuditLogsService(auditLogsRepo repositories.AuditLogsRepository, clk clock.Clock) AuditLogsService {
	return &auditLogsService{
		auditLogsRepo: auditLogsRepo,
		clock:         clk,
	}
}

func (s *auditLogsService) Record(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, action, entityType string, entityID uuid.UUID, details map[string]interface{}) error {
	if action == "" || entityType == "" {
		return errors.NotValidf("audit entry without action or entity type")
	}
	if details == nil {
		details = map[string]interface{}{}
	}
	entry := &models.AuditLog{
		ID:         uuid.New(),
		TenantID:   tenantID,
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  s.clock.Now().UTC(),
	}
	return errors.Annotatef(s.auditLogsRepo.Create(ctx, entry), "record %s", action)
}

func (s *auditLogsService) List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters == nil {
		filters = &models.AuditLogFilters{}
	}
	if filters.Limit <= 0 || filters.Limit > 500 {
		filters.Limit = 50
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	return s.auditLogsRepo.List(ctx, tenantID, filters)
}
