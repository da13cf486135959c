package repositories

import (
	"context"
	"fmt"

	"salonhub/internal/models"

	"github.com/google/uuid"
)

type AuditLogsRepository interface {
	Create(ctx context.Context, auditLog *models.AuditLog) error
	List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
}

type auditLogsRepo struct {
	db DBTX
}

func NewAuditLogsRepo(db DBTX) AuditLogsRepository {
	return &auditLogsRepo{db: db}
}

func (r *auditLogsRepo) Create(ctx context.Context, auditLog *models.AuditLog) error {
	if auditLog.ID == uuid.Nil {
		auditLog.ID = uuid.New()
	}
	if auditLog.Details == nil {
		auditLog.Details = map[string]interface{}{}
	}

	query := `
		INSERT INTO audit_logs (id, tenant_id, user_id, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err := executor(ctx, r.db).Exec(ctx, query, auditLog.ID, auditLog.TenantID, auditLog.UserID, auditLog.Action,
		auditLog.EntityType, auditLog.EntityID, auditLog.Details)
	return translateError(err, "audit log")
}

func (r *auditLogsRepo) List(ctx context.Context, tenantID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `
		SELECT id, tenant_id, user_id, action, entity_type, entity_id, details, created_at
		FROM audit_logs
		WHERE tenant_id = $1
	`
	args := []interface{}{tenantID}
	conditionCount := 1

	if filters.EntityType != nil {
		conditionCount++
		query += fmt.Sprintf(` AND entity_type = $%d`, conditionCount)
		args = append(args, *filters.EntityType)
	}
	if filters.EntityID != nil {
		conditionCount++
		query += fmt.Sprintf(` AND entity_id = $%d`, conditionCount)
		args = append(args, *filters.EntityID)
	}
	if filters.Action != nil {
		conditionCount++
		query += fmt.Sprintf(` AND action = $%d`, conditionCount)
		args = append(args, *filters.Action)
	}

	query += ` ORDER BY created_at DESC`
	conditionCount++
	query += fmt.Sprintf(` LIMIT $%d`, conditionCount)
	args = append(args, filters.Limit)
	conditionCount++
	query += fmt.Sprintf(` OFFSET $%d`, conditionCount)
	args = append(args, filters.Offset)

	rows, err := executor(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err, "audit log")
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		log := &models.AuditLog{}
		if err := rows.Scan(&log.ID, &log.TenantID, &log.UserID, &log.Action, &log.EntityType, &log.EntityID, &log.Details, &log.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
