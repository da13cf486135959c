package handlers

import (
	"net/http"

	"salonhub/internal/common"
	"salonhub/internal/models"
	"salonhub/internal/services"

	"github.com/labstack/echo/v4"
)

// AuditLogsHandlers handles audit logs related HTTP requests
type AuditLogsHandlers struct {
	auditLogsService services.AuditLogsService
}

// NewAuditLogsHandlers creates a new audit logs handlers instance
func NewAuditLogsHandlers(auditLogsService services.AuditLogsService) *AuditLogsHandlers {
	return &AuditLogsHandlers{auditLogsService: auditLogsService}
}

// ListAuditLogs handles GET /v1/audit-logs?entity_type=&entity_id=&action=
func (h *AuditLogsHandlers) ListAuditLogs(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	entityID, ok, err := optionalUUIDQuery(c, "entity_id")
	if !ok {
		return err
	}
	limit, offset := common.ParsePagination(c.QueryParam("limit"), c.QueryParam("offset"))

	filters := &models.AuditLogFilters{
		EntityType: optionalStringQuery(c, "entity_type"),
		EntityID:   entityID,
		Action:     optionalStringQuery(c, "action"),
		Limit:      limit,
		Offset:     offset,
	}
	logs, err := h.auditLogsService.List(c.Request().Context(), actor.TenantID, filters)
	if err != nil {
		return common.HandleError(c, "list audit logs", err)
	}
	return c.JSON(http.StatusOK, listResponse(logs, len(logs), limit, offset))
}
