package common

import (
	"fmt"
	"net/http"

	"github.com/juju/errors"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrConflict marks writes rejected because of the current state of the data:
// overlapping bookings, insufficient stock, illegal status transitions.
const ErrConflict = errors.ConstError("conflict")

// Conflictf returns an error satisfying errors.Is(err, ErrConflict).
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, field, message string) error {
	details := map[string]string{
		field: message,
	}
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("VALIDATION_ERROR", "Validation failed", details))
}

// SendClientError sends a client error response
func SendClientError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("CLIENT_ERROR", message, nil))
}

// SendUnauthorizedError sends an unauthorized error response
func SendUnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, CreateErrorResponse("UNAUTHORIZED", "Unauthorized access", nil))
}

// StatusForError maps an error kind to its HTTP status and envelope code.
func StatusForError(err error) (int, string) {
	switch {
	case errors.Is(err, errors.NotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, errors.NotValid), errors.Is(err, errors.BadRequest):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, errors.AlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, errors.Forbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, errors.Unauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, errors.QuotaLimitExceeded):
		return http.StatusTooManyRequests, "RATE_LIMITED"
	default:
		return http.StatusInternalServerError, "SERVER_ERROR"
	}
}

// HandleError writes the JSON envelope for err. Server errors are logged with
// their cause and answered with a generic message.
func HandleError(c echo.Context, operation string, err error) error {
	status, code := StatusForError(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("operation", operation).Msg("request failed")
		return c.JSON(status, CreateErrorResponse(code, fmt.Sprintf("failed to %s", operation), nil))
	}
	return c.JSON(status, CreateErrorResponse(code, err.Error(), nil))
}
