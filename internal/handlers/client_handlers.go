package handlers

import (
	"net/http"

	"salonhub/internal/common"
	"salonhub/internal/models"
	"salonhub/internal/services"

	"github.com/labstack/echo/v4"
)

// ClientHandlers handles HTTP requests for salon clients
type ClientHandlers struct {
	clientService services.ClientService
}

func NewClientHandlers(clientService services.ClientService) *ClientHandlers {
	return &ClientHandlers{clientService: clientService}
}

// ListClients handles GET /v1/clients
func (h *ClientHandlers) ListClients(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}

	sortBy := c.QueryParam("sort")
	switch sortBy {
	case "", "name", "created_at", "last_visit_at":
	default:
		return common.SendValidationError(c, "sort", "must be one of: name created_at last_visit_at")
	}
	sortOrder := c.QueryParam("order")
	if sortOrder != "" && sortOrder != "asc" && sortOrder != "desc" {
		return common.SendValidationError(c, "order", "must be asc or desc")
	}

	limit, offset := common.ParsePagination(c.QueryParam("limit"), c.QueryParam("offset"))
	filter := &models.ClientFilter{
		Query:     c.QueryParam("q"),
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Limit:     limit,
		Offset:    offset,
	}

	clients, err := h.clientService.List(c.Request().Context(), actor.TenantID, filter)
	if err != nil {
		return common.HandleError(c, "list clients", err)
	}
	return c.JSON(http.StatusOK, listResponse(clients, len(clients), limit, offset))
}

// CreateClient handles POST /v1/clients
func (h *ClientHandlers) CreateClient(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var req services.ClientRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	client, err := h.clientService.Create(c.Request().Context(), actor.TenantID, &req)
	if err != nil {
		return common.HandleError(c, "create client", err)
	}
	return c.JSON(http.StatusCreated, client)
}

// GetClient handles GET /v1/clients/:id
func (h *ClientHandlers) GetClient(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	client, err := h.clientService.Get(c.Request().Context(), actor.TenantID, id)
	if err != nil {
		return common.HandleError(c, "get client", err)
	}
	return c.JSON(http.StatusOK, client)
}

// UpdateClient handles PUT /v1/clients/:id
func (h *ClientHandlers) UpdateClient(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var req services.ClientRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	client, err := h.clientService.Update(c.Request().Context(), actor.TenantID, id, &req)
	if err != nil {
		return common.HandleError(c, "update client", err)
	}
	return c.JSON(http.StatusOK, client)
}

// DeleteClient handles DELETE /v1/clients/:id
func (h *ClientHandlers) DeleteClient(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	if err := h.clientService.Delete(c.Request().Context(), actor.TenantID, id); err != nil {
		return common.HandleError(c, "delete client", err)
	}
	return deletedResponse(c, "client")
}

// ClientHistory handles GET /v1/clients/:id/history
func (h *ClientHandlers) ClientHistory(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	history, err := h.clientService.History(c.Request().Context(), actor.TenantID, id)
	if err != nil {
		return common.HandleError(c, "load client history", err)
	}
	return c.JSON(http.StatusOK, history)
}
