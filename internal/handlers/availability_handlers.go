package handlers

import (
	"net/http"

	"salonhub/internal/common"
	"salonhub/internal/services"

	"github.com/labstack/echo/v4"
)

type AvailabilityHandlers struct {
	availabilityService services.AvailabilityService
}

func NewAvailabilityHandlers(availabilityService services.AvailabilityService) *AvailabilityHandlers {
	return &AvailabilityHandlers{availabilityService: availabilityService}
}

// FindSlots handles GET /v1/availability?date=YYYY-MM-DD&service_ids=a,b[&stylist_id=]
func (h *AvailabilityHandlers) FindSlots(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}

	date := c.QueryParam("date")
	if date == "" {
		return common.SendValidationError(c, "date", "is required")
	}
	serviceIDs, err := common.ParseUUIDList(c.QueryParam("service_ids"), "service_ids")
	if err != nil {
		return common.SendValidationError(c, "service_ids", err.Error())
	}
	if len(serviceIDs) == 0 {
		return common.SendValidationError(c, "service_ids", "at least one service is required")
	}
	stylistID, ok, err := optionalUUIDQuery(c, "stylist_id")
	if !ok {
		return err
	}

	query := &services.AvailabilityQuery{Date: date, ServiceIDs: serviceIDs, StylistID: stylistID}
	result, err := h.availabilityService.Find(c.Request().Context(), actor.TenantID, query)
	if err != nil {
		return common.HandleError(c, "find availability", err)
	}
	return c.JSON(http.StatusOK, result)
}
