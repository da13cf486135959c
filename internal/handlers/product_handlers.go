package handlers

import (
	"net/http"

	"salonhub/internal/common"
	"salonhub/internal/models"
	"salonhub/internal/services"

	"github.com/labstack/echo/v4"
)

// ProductHandlers handles HTTP requests for retail products and their stock
type ProductHandlers struct {
	productService services.ProductService
}

// NewProductHandlers creates a new product handlers instance
func NewProductHandlers(productService services.ProductService) *ProductHandlers {
	return &ProductHandlers{productService: productService}
}

// ListProducts handles GET /v1/products
func (h *ProductHandlers) ListProducts(c echo.Context) error {
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
	lowStock, ok, err := optionalBoolQuery(c, "low_stock")
	if !ok {
		return err
	}
	limit, offset := common.ParsePagination(c.QueryParam("limit"), c.QueryParam("offset"))

	filter := &models.ProductFilter{
		Query:      c.QueryParam("q"),
		CategoryID: categoryID,
		Active:     active,
		LowStock:   lowStock != nil && *lowStock,
		Limit:      limit,
		Offset:     offset,
	}
	products, err := h.productService.List(c.Request().Context(), actor.TenantID, filter)
	if err != nil {
		return common.HandleError(c, "list products", err)
	}
	return c.JSON(http.StatusOK, listResponse(products, len(products), limit, offset))
}

// CreateProduct handles POST /v1/products
func (h *ProductHandlers) CreateProduct(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var req services.ProductRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	product, err := h.productService.Create(c.Request().Context(), actor, &req)
	if err != nil {
		return common.HandleError(c, "create product", err)
	}
	return c.JSON(http.StatusCreated, product)
}

// GetProduct handles GET /v1/products/:id
func (h *ProductHandlers) GetProduct(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	product, err := h.productService.Get(c.Request().Context(), actor.TenantID, id)
	if err != nil {
		return common.HandleError(c, "get product", err)
	}
	return c.JSON(http.StatusOK, product)
}

// UpdateProduct handles PUT /v1/products/:id. Stock is not changed here;
// use the stock endpoint.
func (h *ProductHandlers) UpdateProduct(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var req services.ProductRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	product, err := h.productService.Update(c.Request().Context(), actor.TenantID, id, &req)
	if err != nil {
		return common.HandleError(c, "update product", err)
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /v1/products/:id
func (h *ProductHandlers) DeleteProduct(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	if err := h.productService.Delete(c.Request().Context(), actor.TenantID, id); err != nil {
		return common.HandleError(c, "delete product", err)
	}
	return deletedResponse(c, "product")
}

// AdjustStock handles POST /v1/products/:id/stock
func (h *ProductHandlers) AdjustStock(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var req services.StockAdjustmentRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	product, err := h.productService.AdjustStock(c.Request().Context(), actor, id, &req)
	if err != nil {
		return common.HandleError(c, "adjust stock", err)
	}
	return c.JSON(http.StatusOK, product)
}

// ListStockMovements handles GET /v1/products/:id/stock-movements
func (h *ProductHandlers) ListStockMovements(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	limit, offset := common.ParsePagination(c.QueryParam("limit"), c.QueryParam("offset"))

	movements, err := h.productService.ListMovements(c.Request().Context(), actor.TenantID, id, limit, offset)
	if err != nil {
		return common.HandleError(c, "list stock movements", err)
	}
	return c.JSON(http.StatusOK, listResponse(movements, len(movements), limit, offset))
}

// UploadImage handles POST /v1/products/:id/image (multipart field "image")
func (h *ProductHandlers) UploadImage(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	upload, closeFn, ok, err := readImage(c, "image")
	if !ok {
		return err
	}
	defer closeFn()

	product, err := h.productService.UploadImage(c.Request().Context(), actor.TenantID, id, upload)
	if err != nil {
		return common.HandleError(c, "upload product image", err)
	}
	return c.JSON(http.StatusOK, product)
}
