package handlers

import (
	"net/http"

	"salonhub/internal/common"
	"salonhub/internal/models"
	"salonhub/internal/services"

	"github.com/labstack/echo/v4"
)

// OrderHandlers handles point-of-sale orders
type OrderHandlers struct {
	orderService  services.OrderService
	tenantService services.TenantService
}

func NewOrderHandlers(orderService services.OrderService, tenantService services.TenantService) *OrderHandlers {
	return &OrderHandlers{orderService: orderService, tenantService: tenantService}
}

// CreateOrder handles POST /v1/orders
func (h *OrderHandlers) CreateOrder(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var req services.CreateOrderRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	order, err := h.orderService.Create(c.Request().Context(), actor, &req)
	if err != nil {
		return common.HandleError(c, "create order", err)
	}
	return c.JSON(http.StatusCreated, order)
}

// ListOrders handles GET /v1/orders
func (h *OrderHandlers) ListOrders(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	ctx := c.Request().Context()

	tenant, err := h.tenantService.Get(ctx, actor.TenantID)
	if err != nil {
		return common.HandleError(c, "list orders", err)
	}
	from, to, ok, err := timeRangeQuery(c, tenant.Location())
	if !ok {
		return err
	}
	clientID, ok, err := optionalUUIDQuery(c, "client_id")
	if !ok {
		return err
	}
	status := optionalStringQuery(c, "status")
	if status != nil && *status != models.OrderStatusCompleted && *status != models.OrderStatusRefunded {
		return common.SendValidationError(c, "status", "must be completed or refunded")
	}
	limit, offset := common.ParsePagination(c.QueryParam("limit"), c.QueryParam("offset"))

	filter := &models.OrderFilter{From: from, To: to, ClientID: clientID, Status: status, Limit: limit, Offset: offset}
	orders, err := h.orderService.List(ctx, actor.TenantID, filter)
	if err != nil {
		return common.HandleError(c, "list orders", err)
	}
	return c.JSON(http.StatusOK, listResponse(orders, len(orders), limit, offset))
}

// GetOrder handles GET /v1/orders/:id
func (h *OrderHandlers) GetOrder(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	order, err := h.orderService.Get(c.Request().Context(), actor.TenantID, id)
	if err != nil {
		return common.HandleError(c, "get order", err)
	}
	return c.JSON(http.StatusOK, order)
}

// RefundOrder handles POST /v1/orders/:id/refund
func (h *OrderHandlers) RefundOrder(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	order, err := h.orderService.Refund(c.Request().Context(), actor, id)
	if err != nil {
		return common.HandleError(c, "refund order", err)
	}
	return c.JSON(http.StatusOK, order)
}
