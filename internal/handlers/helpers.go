package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"salonhub/internal/common"
	"salonhub/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// listResponse is the envelope for collection endpoints; count is the
// number of rows in this page.
func listResponse(data interface{}, count, limit, offset int) map[string]interface{} {
	return map[string]interface{}{
		"data":   data,
		"count":  count,
		"limit":  limit,
		"offset": offset,
	}
}

// requireActor reads the caller from the request context. Routes behind the
// JWT middleware always have one; a missing identity is answered with 401.
func requireActor(c echo.Context) (services.Actor, bool, error) {
	actor, err := services.ActorFromContext(c.Request().Context())
	if err != nil {
		return services.Actor{}, false, common.SendUnauthorizedError(c)
	}
	return actor, true, nil
}

// pathID parses the named path parameter as a UUID.
func pathID(c echo.Context, name string) (uuid.UUID, bool, error) {
	id, err := common.ValidateUUID(c.Param(name), name)
	if err != nil {
		return uuid.Nil, false, common.SendValidationError(c, name, err.Error())
	}
	return id, true, nil
}

// optionalUUIDQuery parses an optional UUID query value.
func optionalUUIDQuery(c echo.Context, name string) (*uuid.UUID, bool, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, true, nil
	}
	id, err := common.ValidateUUID(raw, name)
	if err != nil {
		return nil, false, common.SendValidationError(c, name, err.Error())
	}
	return &id, true, nil
}

// optionalBoolQuery parses an optional true/false query value.
func optionalBoolQuery(c echo.Context, name string) (*bool, bool, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, true, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, false, common.SendValidationError(c, name, "must be true or false")
	}
	return &v, true, nil
}

func optionalStringQuery(c echo.Context, name string) *string {
	return common.StringPtr(c.QueryParam(name))
}

// readImage opens the multipart file field and sniffs its content type.
func readImage(c echo.Context, field string) (*services.ImageUpload, func(), bool, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil, false, common.SendValidationError(c, field, "is required")
	}
	if fh.Size > services.MaxImageSize {
		return nil, nil, false, common.SendValidationError(c, field, "must be at most 5 MB")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, false, common.SendClientError(c, "unreadable upload")
	}

	head := make([]byte, 512)
	n, _ := f.Read(head)
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		return nil, nil, false, common.SendClientError(c, "unreadable upload")
	}

	upload := &services.ImageUpload{
		Reader:      f,
		Size:        fh.Size,
		ContentType: http.DetectContentType(head[:n]),
	}
	return upload, func() { f.Close() }, true, nil
}

func deletedResponse(c echo.Context, what string) error {
	return c.JSON(http.StatusOK, map[string]string{"message": what + " deleted"})
}

// timeRangeQuery parses optional from/to query values in loc. A date-only
// "to" includes that whole day.
func timeRangeQuery(c echo.Context, loc *time.Location) (*time.Time, *time.Time, bool, error) {
	var from, to *time.Time
	if raw := strings.TrimSpace(c.QueryParam("from")); raw != "" {
		t, err := common.ParseDateOrTime(raw, loc)
		if err != nil {
			return nil, nil, false, common.SendValidationError(c, "from", err.Error())
		}
		from = &t
	}
	if raw := strings.TrimSpace(c.QueryParam("to")); raw != "" {
		t, err := common.ParseDateOrTime(raw, loc)
		if err != nil {
			return nil, nil, false, common.SendValidationError(c, "to", err.Error())
		}
		if len(raw) == len("2006-01-02") {
			t = t.AddDate(0, 0, 1)
		}
		to = &t
	}
	if from != nil && to != nil && !to.After(*from) {
		return nil, nil, false, common.SendValidationError(c, "to", "must be after from")
	}
	return from, to, true, nil
}
