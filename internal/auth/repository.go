package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultQueryTimeout = 5 * time.Second

const userColumns = `id, email, password_hash, display_name, is_admin, last_login, created_at, updated_at`

// Repository provides database access for authentication concerns.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateUser persists a new user record.
func (r *Repository) CreateUser(ctx context.Context, email, passwordHash string, displayName *string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
INSERT INTO users (email, password_hash, display_name)
VALUES ($1, $2, $3)
RETURNING ` + userColumns + `;`

	row := r.pool.QueryRow(ctx, query, email, passwordHash, displayName)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailAlreadyExists
		}
		return User{}, fmt.Errorf("scan user: %w", err)
	}

	return user, nil
}

// FindUserByEmail fetches a user by email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1;`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}

	return user, nil
}

// FindUserByID fetches a user by identifier.
func (r *Repository) FindUserByID(ctx context.Context, userID uuid.UUID) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1;`

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}

	return user, nil
}

// FindUsersByIDs fetches the given users ordered by display name, used when
// rendering research exports.
func (r *Repository) FindUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT ` + userColumns + `
FROM users
WHERE id = ANY($1)
ORDER BY COALESCE(display_name, email);`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// RecordLogin stamps the user's last successful login time.
func (r *Repository) RecordLogin(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `UPDATE users SET last_login = NOW() WHERE id = $1;`

	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}

// UpdatePassword replaces the user's password hash.
func (r *Repository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1;`

	if _, err := r.pool.Exec(ctx, query, userID, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// StoreRefreshToken saves or updates a refresh token hash for the user.
func (r *Repository) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
INSERT INTO refresh_tokens (user_id, token_hash, expires_at, revoked_at)
VALUES ($1, $2, $3, NULL)
ON CONFLICT (user_id, token_hash)
DO UPDATE SET expires_at = EXCLUDED.expires_at, revoked_at = NULL, created_at = NOW();`

	if _, err := r.pool.Exec(ctx, query, userID, tokenHash, expiresAt); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}

	return nil
}

// FindRefreshToken resolves a live refresh token hash to its user.
func (r *Repository) FindRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT user_id, expires_at
FROM refresh_tokens
WHERE token_hash = $1 AND revoked_at IS NULL;`

	var userID uuid.UUID
	var expiresAt time.Time
	err := r.pool.QueryRow(ctx, query, tokenHash).Scan(&userID, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, time.Time{}, ErrInvalidRefreshToken
		}
		return uuid.Nil, time.Time{}, fmt.Errorf("find refresh token: %w", err)
	}

	return userID, expiresAt, nil
}

// RevokeToken marks a refresh token as revoked.
func (r *Repository) RevokeToken(ctx context.Context, userID uuid.UUID, tokenHash string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
UPDATE refresh_tokens
SET revoked_at = NOW()
WHERE user_id = $1 AND token_hash = $2;`

	if _, err := r.pool.Exec(ctx, query, userID, tokenHash); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

// StoreResetToken saves a password reset token hash.
func (r *Repository) StoreResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
INSERT INTO password_reset_tokens (user_id, token_hash, expires_at)
VALUES ($1, $2, $3);`

	if _, err := r.pool.Exec(ctx, query, userID, tokenHash, expiresAt); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	return nil
}

// ConsumeResetToken atomically marks an unexpired, unused reset token as used
// and returns its user.
func (r *Repository) ConsumeResetToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
UPDATE password_reset_tokens
SET used_at = NOW()
WHERE token_hash = $1 AND used_at IS NULL AND expires_at > NOW()
RETURNING user_id;`

	var userID uuid.UUID
	if err := r.pool.QueryRow(ctx, query, tokenHash).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrInvalidResetToken
		}
		return uuid.Nil, fmt.Errorf("consume reset token: %w", err)
	}
	return userID, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.IsAdmin,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
