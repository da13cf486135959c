package middleware

import (
	"net/http"
	"time"

	"salonhub/internal/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTCustomClaims are the claims carried by salonhub access tokens.
type JWTCustomClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Role     string    `json:"role"`
	jwt.RegisteredClaims
}

// NewAccessClaims builds claims for an access token valid for ttl from now.
func NewAccessClaims(userID, tenantID uuid.UUID, role string, now time.Time, ttl time.Duration) *JWTCustomClaims {
	return &JWTCustomClaims{
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    "salonhub",
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
}

// JWTConfig verifies HS256 bearer tokens and copies the identity into the
// request context so services can read it through common helpers.
func JWTConfig(secret string) echojwt.Config {
	return echojwt.Config{
		SigningKey:    []byte(secret),
		SigningMethod: jwt.SigningMethodHS256.Name,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(JWTCustomClaims)
		},
		SuccessHandler: func(c echo.Context) {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return
			}
			claims, ok := token.Claims.(*JWTCustomClaims)
			if !ok {
				return
			}
			ctx := common.WithIdentity(c.Request().Context(), claims.UserID, claims.TenantID, claims.Role)
			c.SetRequest(c.Request().WithContext(ctx))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("UNAUTHORIZED", "invalid or expired token", nil))
		},
	}
}

// RequireIdentity rejects requests whose token lacked a tenant or user.
func RequireIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			userID, ok := common.GetUserIDFromContext(ctx)
			if !ok || userID == uuid.Nil {
				return common.SendUnauthorizedError(c)
			}
			tenantID, ok := common.GetTenantIDFromContext(ctx)
			if !ok || tenantID == uuid.Nil {
				return common.SendUnauthorizedError(c)
			}
			return next(c)
		}
	}
}
