package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/officehub/gatekeeper/internal/core/domain"
)

const userColumns = `u.id, u.tenant_id, t.name, u.username, u.email, u.password_hash, u.role, u.department_id, u.is_active`

const findActiveUserQuery = `SELECT ` + userColumns + `
FROM users u
JOIN tenants t ON t.id = u.tenant_id
WHERE u.id = $1 AND u.tenant_id = $2 AND u.is_active = true`

const findActiveUserByEmailQuery = `SELECT ` + userColumns + `
FROM users u
JOIN tenants t ON t.id = u.tenant_id
WHERE lower(u.email) = lower($1) AND u.is_active = true`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindActive(ctx context.Context, userID, tenantID int64) (*domain.UserRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return scanUser(r.db.QueryRowContext(ctx, findActiveUserQuery, userID, tenantID))
}

func (r *UserRepository) FindActiveByEmail(ctx context.Context, email string) (*domain.UserRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return scanUser(r.db.QueryRowContext(ctx, findActiveUserByEmailQuery, email))
}

func scanUser(row *sql.Row) (*domain.UserRecord, error) {
	var (
		u    domain.UserRecord
		role string
		dept sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.TenantID, &u.TenantName, &u.Username, &u.Email, &u.PasswordHash, &role, &dept, &u.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	parsed, ok := domain.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("find user: user %d has unknown role %q", u.ID, role)
	}
	u.Role = parsed
	if dept.Valid {
		id := dept.Int64
		u.DepartmentID = &id
	}
	return &u, nil
}
