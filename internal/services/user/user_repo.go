package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/curaious/projecthub/internal/perrors"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

const userColumns = `id, external_subject, email, name, role, created_at, updated_at`

// UserRepo handles database operations for users
type UserRepo struct {
	db sqlx.ExtContext
}

func NewUserRepo(db sqlx.ExtContext) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) get(ctx context.Context, query string, args ...interface{}) (*User, error) {
	var user User
	err := sqlx.GetContext(ctx, r.db, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepo) GetBySubject(ctx context.Context, subject string) (*User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE external_subject = $1`, subject)
}

// List returns users ordered by name, filtered by role unless role is empty
func (r *UserRepo) List(ctx context.Context, role UserRole) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []interface{}
	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY name ASC`

	users := []*User{}
	if err := sqlx.SelectContext(ctx, r.db, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *UserRepo) Create(ctx context.Context, req *CreateUserRequest) (*User, error) {
	query := `
		INSERT INTO users (external_subject, email, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	var user User
	err := sqlx.GetContext(ctx, r.db, &user, query, req.ExternalSubject, req.Email, req.Name, req.Role)
	if err != nil {
		if perrors.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrUserAlreadyExists, req.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// LinkLegacy attaches subject to an existing row with the same email and no subject yet.
func (r *UserRepo) LinkLegacy(ctx context.Context, subject, email, name string) (*User, error) {
	return r.get(ctx, `
		UPDATE users
		SET external_subject = $1, name = $3, updated_at = NOW()
		WHERE email = $2 AND external_subject IS NULL
		RETURNING `+userColumns, subject, email, name)
}

type upsertRow struct {
	User
	Inserted bool `db:"inserted"`
}

// Upsert inserts a user keyed by external subject. On conflict email and name are refreshed
// and the role is kept. The bool reports whether a new row was inserted.
func (r *UserRepo) Upsert(ctx context.Context, req *SyncUserRequest) (*User, bool, error) {
	query := `
		INSERT INTO users (external_subject, email, name, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (external_subject) DO UPDATE
		SET email = EXCLUDED.email, name = EXCLUDED.name, updated_at = NOW()
		RETURNING ` + userColumns + `, (xmax = 0) AS inserted`

	var row upsertRow
	err := sqlx.GetContext(ctx, r.db, &row, query, req.Subject, req.Email, req.Name, req.Role)
	if err != nil {
		if perrors.IsUniqueViolation(err) {
			return nil, false, fmt.Errorf("%w: %s", ErrUserAlreadyExists, req.Email)
		}
		return nil, false, fmt.Errorf("failed to sync user: %w", err)
	}
	return &row.User, row.Inserted, nil
}

func (r *UserRepo) UpdateName(ctx context.Context, id int64, name string) (*User, error) {
	return r.get(ctx, `
		UPDATE users SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+userColumns, name, id)
}
