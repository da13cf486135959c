package handlers

import (
	"net/http"

	"salonhub/internal/common"
	"salonhub/internal/services"

	"github.com/labstack/echo/v4"
)

// CategoryHandlers serves one kind of category: service categories and
// product categories are mounted as two instances.
type CategoryHandlers struct {
	catalogService services.CatalogService
	kind           string
}

// NewCategoryHandlers creates category handlers for kind (models.CategoryKindService
// or models.CategoryKindProduct).
func NewCategoryHandlers(catalogService services.CatalogService, kind string) *CategoryHandlers {
	return &CategoryHandlers{catalogService: catalogService, kind: kind}
}

// ListCategories handles GET /v1/{service,product}-categories
func (h *CategoryHandlers) ListCategories(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}

	categories, err := h.catalogService.ListCategories(c.Request().Context(), actor.TenantID, h.kind)
	if err != nil {
		return common.HandleError(c, "list categories", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": categories, "count": len(categories)})
}

// CreateCategory handles POST /v1/{service,product}-categories
func (h *CategoryHandlers) CreateCategory(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var req services.CategoryRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	category, err := h.catalogService.CreateCategory(c.Request().Context(), actor.TenantID, h.kind, &req)
	if err != nil {
		return common.HandleError(c, "create category", err)
	}
	return c.JSON(http.StatusCreated, category)
}

// GetCategory handles GET /v1/{service,product}-categories/:id
func (h *CategoryHandlers) GetCategory(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	category, err := h.catalogService.GetCategory(c.Request().Context(), actor.TenantID, h.kind, id)
	if err != nil {
		return common.HandleError(c, "get category", err)
	}
	return c.JSON(http.StatusOK, category)
}

// UpdateCategory handles PUT /v1/{service,product}-categories/:id
func (h *CategoryHandlers) UpdateCategory(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var req services.CategoryRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	category, err := h.catalogService.UpdateCategory(c.Request().Context(), actor.TenantID, h.kind, id, &req)
	if err != nil {
		return common.HandleError(c, "update category", err)
	}
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory handles DELETE /v1/{service,product}-categories/:id
func (h *CategoryHandlers) DeleteCategory(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	if err := h.catalogService.DeleteCategory(c.Request().Context(), actor.TenantID, h.kind, id); err != nil {
		return common.HandleError(c, "delete category", err)
	}
	return deletedResponse(c, "category")
}
