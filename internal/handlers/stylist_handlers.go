package handlers

import (
	"net/http"

	"salonhub/internal/common"
	"salonhub/internal/models"
	"salonhub/internal/services"

	"github.com/labstack/echo/v4"
)

// StylistHandlers handles stylists, their weekly schedules and photos
type StylistHandlers struct {
	stylistService services.StylistService
}

func NewStylistHandlers(stylistService services.StylistService) *StylistHandlers {
	return &StylistHandlers{stylistService: stylistService}
}

// ScheduleRequest replaces a stylist's whole week.
type ScheduleRequest struct {
	Days []*models.Schedule `json:"days" validate:"max=7,dive,required"`
}

// ListStylists handles GET /v1/stylists
func (h *StylistHandlers) ListStylists(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	active, ok, err := optionalBoolQuery(c, "active")
	if !ok {
		return err
	}

	stylists, err := h.stylistService.List(c.Request().Context(), actor.TenantID, active)
	if err != nil {
		return common.HandleError(c, "list stylists", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": stylists, "count": len(stylists)})
}

// CreateStylist handles POST /v1/stylists
func (h *StylistHandlers) CreateStylist(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var req services.StylistRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	stylist, err := h.stylistService.Create(c.Request().Context(), actor.TenantID, &req)
	if err != nil {
		return common.HandleError(c, "create stylist", err)
	}
	return c.JSON(http.StatusCreated, stylist)
}

// GetStylist handles GET /v1/stylists/:id
func (h *StylistHandlers) GetStylist(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	stylist, err := h.stylistService.Get(c.Request().Context(), actor.TenantID, id)
	if err != nil {
		return common.HandleError(c, "get stylist", err)
	}
	return c.JSON(http.StatusOK, stylist)
}

// UpdateStylist handles PUT /v1/stylists/:id
func (h *StylistHandlers) UpdateStylist(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var req services.StylistRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	stylist, err := h.stylistService.Update(c.Request().Context(), actor.TenantID, id, &req)
	if err != nil {
		return common.HandleError(c, "update stylist", err)
	}
	return c.JSON(http.StatusOK, stylist)
}

// DeleteStylist handles DELETE /v1/stylists/:id
func (h *StylistHandlers) DeleteStylist(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	if err := h.stylistService.Delete(c.Request().Context(), actor.TenantID, id); err != nil {
		return common.HandleError(c, "delete stylist", err)
	}
	return deletedResponse(c, "stylist")
}

// GetSchedule handles GET /v1/stylists/:id/schedule
func (h *StylistHandlers) GetSchedule(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	days, err := h.stylistService.GetSchedule(c.Request().Context(), actor.TenantID, id)
	if err != nil {
		return common.HandleError(c, "get schedule", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"days": days})
}

// ReplaceSchedule handles PUT /v1/stylists/:id/schedule
func (h *StylistHandlers) ReplaceSchedule(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var req ScheduleRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	days, err := h.stylistService.ReplaceSchedule(c.Request().Context(), actor.TenantID, id, req.Days)
	if err != nil {
		return common.HandleError(c, "replace schedule", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"days": days})
}

// UploadPhoto handles POST /v1/stylists/:id/photo (multipart field "photo")
func (h *StylistHandlers) UploadPhoto(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	upload, closeFn, ok, err := readImage(c, "photo")
	if !ok {
		return err
	}
	defer closeFn()

	stylist, err := h.stylistService.UploadPhoto(c.Request().Context(), actor.TenantID, id, upload)
	if err != nil {
		return common.HandleError(c, "upload photo", err)
	}
	return c.JSON(http.StatusOK, stylist)
}
