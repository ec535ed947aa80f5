package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/royals-sales/royals/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByVerifyToken(ctx context.Context, token string) (*User, error)
	UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error)
	CreateUser(ctx context.Context, user User) (int64, error)
	UpdateLastLogin(ctx context.Context, id int64) error
	MarkEmailVerified(ctx context.Context, id int64) error
	RotateVerifyToken(ctx context.Context, id int64, token string, expiry time.Time) error
	GetOAuthIdentity(ctx context.Context, provider, providerUserID string) (*OAuthIdentity, error)
	UpdateOAuthTokens(ctx context.Context, provider, providerUserID, accessToken, refreshToken string) error
	CreateOAuthIdentity(ctx context.Context, identity OAuthIdentity) error
	ActivateVerifiedUser(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, username, email, name, phone, password, role, is_active, email_verified,
email_verify_token, email_verify_expiry, last_login_at, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.Phone, &u.PasswordHash, &role,
		&u.IsActive, &u.EmailVerified, &u.VerifyToken, &u.VerifyExpiry, &u.LastLoginAt, &u.CreatedAt)
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
	u.Role = parsed
	return &u, nil
}

// GetUserByUsername fetches a user by username.
func (r *PGRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// GetUserByEmail fetches a user by email.
func (r *PGRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetUserByID fetches a user by primary key.
func (r *PGRepository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByVerifyToken fetches a user by its email verification token.
func (r *PGRepository) GetUserByVerifyToken(ctx context.Context, token string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email_verify_token = $1`, token)
	return scanUser(row)
}

// UsernameOrEmailTaken reports whether either value is already used.
func (r *PGRepository) UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM users WHERE username = $1 OR email = $2 LIMIT 1`, username, email).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateUser inserts a user row and returns its id.
func (r *PGRepository) CreateUser(ctx context.Context, user User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO users
(username, email, name, phone, password, role, is_active, email_verified, email_verify_token, email_verify_expiry, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW()) RETURNING id`,
		user.Username, user.Email, user.Name, user.Phone, user.PasswordHash, string(user.Role),
		user.IsActive, user.EmailVerified, user.VerifyToken, user.VerifyExpiry).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, shared.ErrConflict
		}
		return 0, err
	}
	return id, nil
}

// UpdateLastLogin stamps last_login_at.
func (r *PGRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	return err
}

// MarkEmailVerified activates the account and clears the token fields.
func (r *PGRepository) MarkEmailVerified(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE users
SET email_verified = TRUE, is_active = TRUE, email_verify_token = NULL, email_verify_expiry = NULL
WHERE id = $1`, id)
	return err
}

// RotateVerifyToken replaces the verification token and its expiry.
func (r *PGRepository) RotateVerifyToken(ctx context.Context, id int64, token string, expiry time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET email_verify_token = $2, email_verify_expiry = $3 WHERE id = $1`,
		id, token, expiry)
	return err
}

// ActivateVerifiedUser trusts a provider-verified email.
func (r *PGRepository) ActivateVerifiedUser(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET email_verified = TRUE, is_active = TRUE WHERE id = $1`, id)
	return err
}

// GetOAuthIdentity fetches a provider identity.
func (r *PGRepository) GetOAuthIdentity(ctx context.Context, provider, providerUserID string) (*OAuthIdentity, error) {
	var ident OAuthIdentity
	err := r.pool.QueryRow(ctx, `SELECT id, user_id, provider, provider_user_id, email, name, avatar_url, access_token, refresh_token, created_at, updated_at
FROM oauth_identities WHERE provider = $1 AND provider_user_id = $2`, provider, providerUserID).
		Scan(&ident.ID, &ident.UserID, &ident.Provider, &ident.ProviderUserID, &ident.Email, &ident.Name,
			&ident.AvatarURL, &ident.AccessToken, &ident.RefreshToken, &ident.CreatedAt, &ident.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ident, nil
}

// UpdateOAuthTokens refreshes the stored provider tokens.
func (r *PGRepository) UpdateOAuthTokens(ctx context.Context, provider, providerUserID, accessToken, refreshToken string) error {
	_, err := r.pool.Exec(ctx, `UPDATE oauth_identities
SET access_token = $3, refresh_token = $4, updated_at = NOW()
WHERE provider = $1 AND provider_user_id = $2`, provider, providerUserID, accessToken, refreshToken)
	return err
}

// CreateOAuthIdentity links a provider identity to a local user.
func (r *PGRepository) CreateOAuthIdentity(ctx context.Context, identity OAuthIdentity) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO oauth_identities
(user_id, provider, provider_user_id, email, name, avatar_url, access_token, refresh_token, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())`,
		identity.UserID, identity.Provider, identity.ProviderUserID, identity.Email, identity.Name,
		identity.AvatarURL, identity.AccessToken, identity.RefreshToken)
	if isUniqueViolation(err) {
		return shared.ErrConflict
	}
	return err
}

// isUniqueViolation reports whether err is a PostgreSQL 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
