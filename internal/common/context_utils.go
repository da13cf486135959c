package common

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	TenantIDKey contextKey = "tenant_id"
	RoleKey     contextKey = "role"
)

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetTenantIDFromContext extracts the tenant ID from the request context
func GetTenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(uuid.UUID)
	return tenantID, ok
}

// GetRoleFromContext extracts the staff role from the request context
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// WithIdentity returns a context carrying the authenticated user, tenant and role.
func WithIdentity(ctx context.Context, userID, tenantID uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, TenantIDKey, tenantID)
	return context.WithValue(ctx, RoleKey, role)
}

// ValidateUUID validates UUID format
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%s is required", fieldName)
	}
	if len(idStr) != 36 {
		return uuid.Nil, fmt.Errorf("%s must be exactly 36 characters (including hyphens)", fieldName)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid UUID", fieldName)
	}
	return id, nil
}

// ParseUUIDList parses a comma separated list of UUIDs, skipping blanks.
func ParseUUIDList(raw string, fieldName string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := ValidateUUID(part, fieldName)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ValidatePaginationParams clamps limit and offset into sane bounds
func ValidatePaginationParams(limit, offset int) (int, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	if offset > 1000000 {
		return 0, 0, fmt.Errorf("offset cannot exceed 1,000,000")
	}
	return limit, offset, nil
}

// ParsePagination reads limit/offset query values, falling back to defaults.
func ParsePagination(limitParam, offsetParam string) (int, int) {
	limit, offset := 50, 0
	if l, err := strconv.Atoi(limitParam); err == nil && l > 0 {
		limit = l
	}
	if o, err := strconv.Atoi(offsetParam); err == nil && o >= 0 {
		offset = o
	}
	limit, offset, err := ValidatePaginationParams(limit, offset)
	if err != nil {
		return 50, 0
	}
	return limit, offset
}

// ParseDateOrTime accepts either YYYY-MM-DD (midnight in loc) or RFC3339.
func ParseDateOrTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q must be YYYY-MM-DD or RFC3339", value)
	}
	return t, nil
}

// maxSearchRunes bounds free-text search input.
const maxSearchRunes = 100

// SanitizeSearchQuery trims the query, drops invalid UTF-8 and cuts it to
// maxSearchRunes characters. It is idempotent; LIKE escaping is EscapeLike's job.
func SanitizeSearchQuery(query string) string {
	query = strings.ToValidUTF8(strings.TrimSpace(query), "")
	if utf8.RuneCountInString(query) > maxSearchRunes {
		query = string([]rune(query)[:maxSearchRunes])
	}
	return strings.TrimSpace(query)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE metacharacters so query matches literally under
// ESCAPE '\'.
func EscapeLike(query string) string {
	return likeEscaper.Replace(query)
}

// StringPtr returns nil for blank strings.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
