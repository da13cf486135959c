package middleware

import (
	"net/http"

	"salonhub/internal/common"
	"salonhub/internal/models"

	"github.com/labstack/echo/v4"
)

// RequireRole lets the request through when the caller's role ranks at least
// as high as min (staff < manager < owner).
func RequireRole(min string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := common.GetRoleFromContext(c.Request().Context())
			if !ok {
				return common.SendUnauthorizedError(c)
			}
			if models.RoleRank(role) < models.RoleRank(min) {
				return c.JSON(http.StatusForbidden, common.CreateErrorResponse("FORBIDDEN", "insufficient role", nil))
			}
			return next(c)
		}
	}
}
