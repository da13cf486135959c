package repositories

import (
	"context"
	"strings"

	"salonhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error)
	// GetByEmail looks a login up across tenants; emails are globally unique.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, tenantID, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error)
	LockActiveOwners(ctx context.Context, tenantID uuid.UUID) (int, error)
}

type userRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, tenant_id, email, password_hash, first_name, last_name, role, stylist_id, status, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &u.StylistID, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, tenant_id, email, password_hash, first_name, last_name, role, stylist_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err := executor(ctx, r.db).Exec(ctx, query, user.ID, user.TenantID, strings.ToLower(user.Email), user.PasswordHash,
		user.FirstName, user.LastName, user.Role, user.StylistID, user.Status)
	return translateError(err, "user")
}

func (r *userRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND id = $2`
	user, err := scanUser(executor(ctx, r.db).QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return nil, translateError(err, "user")
	}
	return user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(executor(ctx, r.db).QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return nil, translateError(err, "user")
	}
	return user, nil
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, role = $3, stylist_id = $4, status = $5, updated_at = NOW()
		WHERE tenant_id = $6 AND id = $7
	`
	tag, err := executor(ctx, r.db).Exec(ctx, query, user.FirstName, user.LastName, user.Role, user.StylistID, user.Status, user.TenantID, user.ID)
	if err != nil {
		return translateError(err, "user")
	}
	return expectOne(tag, "user")
}

func (r *userRepo) UpdatePassword(ctx context.Context, tenantID, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`
	tag, err := executor(ctx, r.db).Exec(ctx, query, passwordHash, tenantID, id)
	if err != nil {
		return translateError(err, "user")
	}
	return expectOne(tag, "user")
}

func (r *userRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM users WHERE tenant_id = $1 AND id = $2`
	tag, err := executor(ctx, r.db).Exec(ctx, query, tenantID, id)
	if err != nil {
		return translateError(err, "user")
	}
	return expectOne(tag, "user")
}

func (r *userRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 ORDER BY created_at LIMIT $2 OFFSET $3`
	rows, err := executor(ctx, r.db).Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, translateError(err, "user")
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// LockActiveOwners locks the tenant's active owner rows and returns how many
// there are. Call it inside the transaction that demotes or removes an owner.
func (r *userRepo) LockActiveOwners(ctx context.Context, tenantID uuid.UUID) (int, error) {
	query := `SELECT id FROM users WHERE tenant_id = $1 AND role = $2 AND status = $3 ORDER BY id FOR UPDATE`
	rows, err := executor(ctx, r.db).Query(ctx, query, tenantID, models.RoleOwner, models.UserStatusActive)
	if err != nil {
		return 0, translateError(err, "user")
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, translateError(err, "user")
	}
	return count, nil
}
