package handlers

import (
	"net/http"

	"salonhub/internal/common"
	"salonhub/internal/models"
	"salonhub/internal/services"

	"github.com/labstack/echo/v4"
)

// ServiceHandlers handles the bookable service catalog
type ServiceHandlers struct {
	catalogService services.CatalogService
}

func NewServiceHandlers(catalogService services.CatalogService) *ServiceHandlers {
	return &ServiceHandlers{catalogService: catalogService}
}

// ListServices handles GET /v1/services
func (h *ServiceHandlers) ListServices(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	categoryID, ok, err := optionalUUIDQuery(c, "category_id")
	if !ok {
		return err
	}
	active, ok, err := optionalBoolQuery(c, "active")
	if !ok {
		return err
	}
	limit, offset := common.ParsePagination(c.QueryParam("limit"), c.QueryParam("offset"))

	filter := &models.ServiceFilter{CategoryID: categoryID, Active: active, Limit: limit, Offset: offset}
	list, err := h.catalogService.ListServices(c.Request().Context(), actor.TenantID, filter)
	if err != nil {
		return common.HandleError(c, "list services", err)
	}
	return c.JSON(http.StatusOK, listResponse(list, len(list), limit, offset))
}

// CreateService handles POST /v1/services
func (h *ServiceHandlers) CreateService(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var req services.ServiceRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	svc, err := h.catalogService.CreateService(c.Request().Context(), actor.TenantID, &req)
	if err != nil {
		return common.HandleError(c, "create service", err)
	}
	return c.JSON(http.StatusCreated, svc)
}

// GetService handles GET /v1/services/:id
func (h *ServiceHandlers) GetService(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	svc, err := h.catalogService.GetService(c.Request().Context(), actor.TenantID, id)
	if err != nil {
		return common.HandleError(c, "get service", err)
	}
	return c.JSON(http.StatusOK, svc)
}

// UpdateService handles PUT /v1/services/:id
func (h *ServiceHandlers) UpdateService(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var req services.ServiceRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	svc, err := h.catalogService.UpdateService(c.Request().Context(), actor.TenantID, id, &req)
	if err != nil {
		return common.HandleError(c, "update service", err)
	}
	return c.JSON(http.StatusOK, svc)
}

// DeleteService handles DELETE /v1/services/:id. Services that appointments
// still reference are deactivated instead of removed.
func (h *ServiceHandlers) DeleteService(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	deactivated, err := h.catalogService.DeleteService(c.Request().Context(), actor.TenantID, id)
	if err != nil {
		return common.HandleError(c, "delete service", err)
	}
	if deactivated {
		return c.JSON(http.StatusOK, map[string]interface{}{"message": "service deactivated", "deactivated": true})
	}
	return deletedResponse(c, "service")
}
