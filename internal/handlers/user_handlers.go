package handlers

import (
	"net/http"

	"salonhub/internal/common"
	"salonhub/internal/services"

	"github.com/labstack/echo/v4"
)

// UserHandlers handles staff account management
type UserHandlers struct {
	userService services.UserService
}

func NewUserHandlers(userService services.UserService) *UserHandlers {
	return &UserHandlers{userService: userService}
}

// ListUsers handles GET /v1/users
func (h *UserHandlers) ListUsers(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	limit, offset := common.ParsePagination(c.QueryParam("limit"), c.QueryParam("offset"))

	users, err := h.userService.List(c.Request().Context(), actor.TenantID, limit, offset)
	if err != nil {
		return common.HandleError(c, "list users", err)
	}
	return c.JSON(http.StatusOK, listResponse(users, len(users), limit, offset))
}

// GetUser handles GET /v1/users/:id
func (h *UserHandlers) GetUser(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	user, err := h.userService.Get(c.Request().Context(), actor.TenantID, id)
	if err != nil {
		return common.HandleError(c, "get user", err)
	}
	return c.JSON(http.StatusOK, user)
}

// CreateUser handles POST /v1/users
func (h *UserHandlers) CreateUser(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var req services.CreateUserRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	user, err := h.userService.Create(c.Request().Context(), actor, &req)
	if err != nil {
		return common.HandleError(c, "create user", err)
	}
	return c.JSON(http.StatusCreated, user)
}

// UpdateUser handles PUT /v1/users/:id
func (h *UserHandlers) UpdateUser(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var req services.UpdateUserRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	user, err := h.userService.Update(c.Request().Context(), actor, id, &req)
	if err != nil {
		return common.HandleError(c, "update user", err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /v1/users/:id
func (h *UserHandlers) DeleteUser(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	if err := h.userService.Delete(c.Request().Context(), actor, id); err != nil {
		return common.HandleError(c, "delete user", err)
	}
	return deletedResponse(c, "user")
}

// ChangePassword handles PUT /v1/users/:id/password
func (h *UserHandlers) ChangePassword(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var req services.ChangePasswordRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	if err := h.userService.ChangePassword(c.Request().Context(), actor, id, &req); err != nil {
		return common.HandleError(c, "change password", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "password changed"})
}
