package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/royals-sales/royals/internal/shared"
)

// Repository defines persistence operations for the users module.
type Repository interface {
	List(ctx context.Context) ([]Account, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
	Create(ctx context.Context, account Account, passwordHash string) (*Account, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*Account, error)
	Delete(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const accountColumns = `id, username, email, name, phone, role, is_active, email_verified, last_login_at, created_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var role string
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.Name, &a.Phone, &role,
		&a.IsActive, &a.EmailVerified, &a.LastLoginAt, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	parsed, err := shared.ParseRole(role)
	if err != nil {
		return nil, err
	}
	a.Role = parsed
	return &a, nil
}

// List returns all accounts, newest first.
func (r *PGRepository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	out := make([]Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// GetByID fetches a single account.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (*Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id)
	return scanAccount(row)
}

// Create inserts an account. Admin-created accounts are active and
// verified from the start.
func (r *PGRepository) Create(ctx context.Context, account Account, passwordHash string) (*Account, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO users (username, email, name, phone, password, role, is_active, email_verified)
VALUES ($1, $2, $3, $4, $5, $6, TRUE, TRUE)
RETURNING `+accountColumns,
		account.Username, account.Email, account.Name, account.Phone, passwordHash, string(account.Role))
	created, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: Username or email already exists", shared.ErrConflict)
		}
		return nil, err
	}
	return created, nil
}

// Update applies a partial update.
func (r *PGRepository) Update(ctx context.Context, id int64, req UpdateRequest) (*Account, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE users
SET email = COALESCE($2, email),
    name = COALESCE($3, name),
    phone = COALESCE($4, phone),
    role = COALESCE($5, role),
    is_active = COALESCE($6, is_active)
WHERE id = $1
RETURNING `+accountColumns,
		id, req.Email, req.Name, req.Phone, req.Role, req.IsActive)
	updated, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: Username or email already exists", shared.ErrConflict)
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes an account row.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("users: delete %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
