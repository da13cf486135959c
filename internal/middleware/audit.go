package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"salonhub/internal/common"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// AuditRecorder persists one audit entry. services.AuditLogsService satisfies it.
type AuditRecorder interface {
	Record(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, action, entityType string, entityID uuid.UUID, details map[string]interface{}) error
}

// maxCapturedBody bounds how much of a response the audit writer keeps while
// looking for the entity id.
const maxCapturedBody = 64 << 10

// AuditMiddleware records administrative writes (settings, staff, catalog)
// that the services do not audit themselves.
type AuditMiddleware struct {
	recorder AuditRecorder
}

func NewAuditMiddleware(recorder AuditRecorder) *AuditMiddleware {
	return &AuditMiddleware{recorder: recorder}
}

// AuditWrite audits successful non-GET requests against entityType. The
// entity id comes from the :id path parameter, then the "id" field of the JSON
// response, then the tenant itself.
func (m *AuditMiddleware) AuditWrite(entityType string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isWrite(req.Method) {
				return next(c)
			}

			capture := &captureWriter{ResponseWriter: c.Response().Writer}
			c.Response().Writer = capture
			err := next(c)
			c.Response().Writer = capture.ResponseWriter

			status := c.Response().Status
			if err != nil || status >= http.StatusBadRequest {
				return err
			}

			ctx := req.Context()
			tenantID, ok := common.GetTenantIDFromContext(ctx)
			if !ok {
				return nil
			}
			var userPtr *uuid.UUID
			if userID, ok := common.GetUserIDFromContext(ctx); ok {
				userPtr = &userID
			}

			entityID := auditEntityID(c, capture.body.Bytes(), tenantID)
			details := map[string]interface{}{
				"method": req.Method,
				"route":  c.Path(),
				"status": status,
				"ip":     c.RealIP(),
			}
			if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
				details["request_id"] = rid
			}

			action := auditAction(entityType, req.Method, c.Path())
			if recErr := m.recorder.Record(ctx, tenantID, userPtr, action, entityType, entityID, details); recErr != nil {
				// the write already succeeded; only the trail is missing
				zerolog.Ctx(ctx).Error().Err(recErr).Str("action", action).Msg("failed to record audit entry")
			}
			return nil
		}
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// auditAction names the change, e.g. "service.deleted" or, for a
// sub-resource route like /stylists/:id/schedule, "stylist.schedule.updated".
func auditAction(entityType, method, route string) string {
	verb := "updated"
	switch method {
	case http.MethodPost:
		verb = "created"
	case http.MethodDelete:
		verb = "deleted"
	}

	segments := strings.Split(strings.Trim(route, "/"), "/")
	if n := len(segments); n >= 2 && strings.HasPrefix(segments[n-2], ":") && !strings.HasPrefix(segments[n-1], ":") {
		if verb == "created" {
			verb = "updated"
		}
		return entityType + "." + segments[n-1] + "." + verb
	}
	return entityType + "." + verb
}

func auditEntityID(c echo.Context, body []byte, tenantID uuid.UUID) uuid.UUID {
	if id, err := uuid.Parse(c.Param("id")); err == nil {
		return id
	}
	var resp struct {
		ID uuid.UUID `json:"id"`
	}
	if len(body) > 0 && json.Unmarshal(body, &resp) == nil && resp.ID != uuid.Nil {
		return resp.ID
	}
	return tenantID
}

// captureWriter tees the first maxCapturedBody bytes of the response.
type captureWriter struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if room := maxCapturedBody - w.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		w.body.Write(b[:room])
	}
	return w.ResponseWriter.Write(b)
}
