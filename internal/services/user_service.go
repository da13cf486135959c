package services

import (
	"context"
	"strings"

	"salonhub/internal/common"
	"salonhub/internal/models"
	"salonhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages staff logins within one business.
type UserService interface {
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, actor Actor, req *CreateUserRequest) (*models.User, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req *UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	ChangePassword(ctx context.Context, actor Actor, id uuid.UUID, req *ChangePasswordRequest) error
}

type CreateUserRequest struct {
	Email     string     `json:"email" validate:"required,email"`
	Password  string     `json:"password" validate:"required,min=8,max=72"`
	FirstName string     `json:"first_name" validate:"required,max=80"`
	LastName  string     `json:"last_name" validate:"max=80"`
	Role      string     `json:"role" validate:"required,oneof=owner manager staff"`
	StylistID *uuid.UUID `json:"stylist_id"`
}

type UpdateUserRequest struct {
	FirstName *string    `json:"first_name" validate:"omitempty,min=1,max=80"`
	LastName  *string    `json:"last_name" validate:"omitempty,max=80"`
	Role      *string    `json:"role" validate:"omitempty,oneof=owner manager staff"`
	Status    *string    `json:"status" validate:"omitempty,oneof=active disabled"`
	StylistID *uuid.UUID `json:"stylist_id"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

type userService struct {
	tx          repositories.Transactor
	userRepo    repositories.UserRepository
	stylistRepo repositories.StylistRepository
	clock       clock.Clock
}

func NewUserService(tx repositories.Transactor, userRepo repositories.UserRepository, stylistRepo repositories.StylistRepository, clk clock.Clock) UserService {
	return &userService{tx: tx, userRepo: userRepo, stylistRepo: stylistRepo, clock: clk}
}

// privileged roles can only be granted or edited by owners.
func privileged(role string) bool {
	return role == models.RoleOwner || role == models.RoleManager
}

func (s *userService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error) {
	return s.userRepo.List(ctx, tenantID, limit, offset)
}

func (s *userService) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, tenantID, id)
}

func (s *userService) checkStylist(ctx context.Context, tenantID uuid.UUID, stylistID *uuid.UUID) error {
	if stylistID == nil {
		return nil
	}
	if _, err := s.stylistRepo.GetByID(ctx, tenantID, *stylistID); err != nil {
		if errors.Is(err, errors.NotFound) {
			return errors.NotValidf("stylist_id %s", stylistID)
		}
		return err
	}
	return nil
}

func (s *userService) Create(ctx context.Context, actor Actor, req *CreateUserRequest) (*models.User, error) {
	if privileged(req.Role) && actor.Role != models.RoleOwner {
		return nil, errors.Forbiddenf("only owners can create %s accounts", req.Role)
	}
	if err := s.checkStylist(ctx, actor.TenantID, req.StylistID); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Annotate(err, "hash password")
	}
	now := s.clock.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		TenantID:     actor.TenantID,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         req.Role,
		StylistID:    req.StylistID,
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, actor Actor, id uuid.UUID, req *UpdateUserRequest) (*models.User, error) {
	var updated *models.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		user, err := s.userRepo.GetByID(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}

		newRole := user.Role
		if req.Role != nil {
			newRole = *req.Role
		}
		newStatus := user.Status
		if req.Status != nil {
			newStatus = *req.Status
		}

		if (privileged(user.Role) || privileged(newRole)) && actor.Role != models.RoleOwner && actor.UserID != id {
			return errors.Forbiddenf("only owners can modify owner or manager accounts")
		}
		if actor.UserID == id {
			if newRole != user.Role {
				return errors.Forbiddenf("you cannot change your own role")
			}
			if newStatus != models.UserStatusActive {
				return errors.Forbiddenf("you cannot disable your own account")
			}
		}
		if user.Role == models.RoleOwner && user.Status == models.UserStatusActive &&
			(newRole != models.RoleOwner || newStatus != models.UserStatusActive) {
			if err := s.ensureAnotherOwner(ctx, actor.TenantID); err != nil {
				return err
			}
		}
		if err := s.checkStylist(ctx, actor.TenantID, req.StylistID); err != nil {
			return err
		}

		if req.FirstName != nil {
			user.FirstName = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			user.LastName = strings.TrimSpace(*req.LastName)
		}
		if req.StylistID != nil {
			user.StylistID = req.StylistID
		}
		user.Role = newRole
		user.Status = newStatus
		user.UpdatedAt = s.clock.Now().UTC()
		if err := s.userRepo.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	return updated, err
}

func (s *userService) ensureAnotherOwner(ctx context.Context, tenantID uuid.UUID) error {
	owners, err := s.userRepo.LockActiveOwners(ctx, tenantID)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return common.Conflictf("the last active owner cannot be removed")
	}
	return nil
}

func (s *userService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if actor.UserID == id {
		return errors.Forbiddenf("you cannot delete your own account")
	}
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		user, err := s.userRepo.GetByID(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if privileged(user.Role) && actor.Role != models.RoleOwner {
			return errors.Forbiddenf("only owners can delete %s accounts", user.Role)
		}
		if user.Role == models.RoleOwner && user.Status == models.UserStatusActive {
			if err := s.ensureAnotherOwner(ctx, actor.TenantID); err != nil {
				return err
			}
		}
		return s.userRepo.Delete(ctx, actor.TenantID, id)
	})
}

func (s *userService) ChangePassword(ctx context.Context, actor Actor, id uuid.UUID, req *ChangePasswordRequest) error {
	self := actor.UserID == id
	if !self && actor.Role != models.RoleOwner {
		return errors.Forbiddenf("only owners can reset another user's password")
	}
	user, err := s.userRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	if self && bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return errors.NotValidf("current_password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Annotate(err, "hash password")
	}
	return s.userRepo.UpdatePassword(ctx, actor.TenantID, id, string(hash))
}
