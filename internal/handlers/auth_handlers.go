package handlers

import (
	"net/http"

	"salonhub/internal/common"
	"salonhub/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	authService services.AuthService
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(authService services.AuthService) *AuthHandlers {
	return &AuthHandlers{authService: authService}
}

// RefreshRequest carries an opaque refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Signup handles POST /v1/auth/signup
func (h *AuthHandlers) Signup(c echo.Context) error {
	var req services.SignupRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	result, err := h.authService.Signup(c.Request().Context(), &req)
	if err != nil {
		return common.HandleError(c, "sign up", err)
	}
	return c.JSON(http.StatusCreated, result)
}

// Login handles POST /v1/auth/login
func (h *AuthHandlers) Login(c echo.Context) error {
	var req services.LoginRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	result, err := h.authService.Login(c.Request().Context(), &req, c.RealIP())
	if err != nil {
		return common.HandleError(c, "log in", err)
	}
	return c.JSON(http.StatusOK, result)
}

// Refresh handles POST /v1/auth/refresh
func (h *AuthHandlers) Refresh(c echo.Context) error {
	var req RefreshRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	tokens, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return common.HandleError(c, "refresh token", err)
	}
	return c.JSON(http.StatusOK, tokens)
}

// Logout handles POST /v1/auth/logout
func (h *AuthHandlers) Logout(c echo.Context) error {
	var req RefreshRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	if err := h.authService.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return common.HandleError(c, "log out", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

// Me handles GET /v1/me
func (h *AuthHandlers) Me(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}

	me, err := h.authService.Me(c.Request().Context(), actor.TenantID, actor.UserID)
	if err != nil {
		return common.HandleError(c, "load profile", err)
	}
	return c.JSON(http.StatusOK, me)
}
