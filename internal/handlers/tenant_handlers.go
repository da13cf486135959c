package handlers

import (
	"net/http"

	"salonhub/internal/common"
	"salonhub/internal/models"
	"salonhub/internal/services"

	"github.com/labstack/echo/v4"
)

// TenantHandlers serves the caller's own business profile and settings.
type TenantHandlers struct {
	tenantService services.TenantService
}

func NewTenantHandlers(tenantService services.TenantService) *TenantHandlers {
	return &TenantHandlers{tenantService: tenantService}
}

// GetBusiness handles GET /v1/business
func (h *TenantHandlers) GetBusiness(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}

	tenant, err := h.tenantService.Get(c.Request().Context(), actor.TenantID)
	if err != nil {
		return common.HandleError(c, "load business", err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// UpdateBusiness handles PUT /v1/business
func (h *TenantHandlers) UpdateBusiness(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}

	var req models.TenantSettingsUpdate
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	tenant, err := h.tenantService.Update(c.Request().Context(), actor.TenantID, &req)
	if err != nil {
		return common.HandleError(c, "update business", err)
	}
	return c.JSON(http.StatusOK, tenant)
}
