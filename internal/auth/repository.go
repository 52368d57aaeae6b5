package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stitchline/stitchline-erp/internal/platform/db"
	"github.com/stitchline/stitchline-erp/internal/platform/httpx"
	"github.com/stitchline/stitchline-erp/internal/shared"
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, user User) (*User, error)
	EmployeeExists(ctx context.Context, employeeID int64) (bool, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

const userColumns = `id, username, employee_id, password_hash, is_active, created_at, updated_at`

// FindByUsername fetches a user by username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// FindByID fetches a user by id.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// Create inserts a new user account.
func (r *PGRepository) Create(ctx context.Context, user User) (*User, error) {
	created, err := r.scanOne(ctx, `INSERT INTO users (username, password_hash, employee_id, is_active)
		VALUES ($1, $2, $3, TRUE) RETURNING `+userColumns, user.Username, user.PasswordHash, user.EmployeeID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("username %q already registered: %w", user.Username, httpx.ErrDuplicate)
		}
		return nil, err
	}
	return created, nil
}

// EmployeeExists reports whether the employee row exists.
func (r *PGRepository) EmployeeExists(ctx context.Context, employeeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1)`, employeeID).Scan(&exists)
	return exists, err
}

func (r *PGRepository) scanOne(ctx context.Context, query string, args ...any) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Username, &u.EmployeeID, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

var _ Repository = (*PGRepository)(nil)
