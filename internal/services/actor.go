package services

import (
	"context"

	"salonhub/internal/common"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

// Actor is the authenticated staff member performing an operation.
type Actor struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     string
}

// ActorFromContext reads the identity placed on the request context by the
// JWT middleware.
func ActorFromContext(ctx context.Context) (Actor, error) {
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return Actor{}, errors.Unauthorizedf("missing user")
	}
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return Actor{}, errors.Unauthorizedf("missing tenant")
	}
	role, _ := common.GetRoleFromContext(ctx)
	return Actor{UserID: userID, TenantID: tenantID, Role: role}, nil
}

// UserRef is the actor's id as a nullable reference for audit and
// created_by columns.
func (a Actor) UserRef() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}
