package apiary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultQueryTimeout = 5 * time.Second

const apiaryColumns = `
a.id, a.owner_id, a.name, a.type, a.coordinate_lat, a.coordinate_lon,
a.address, a.postal_code, a.city, a.country_code, a.continent,
(SELECT COUNT(*) FROM hives h WHERE h.apiary_id = a.id AND h.deleted_at IS NULL),
a.created_at, a.deleted_at`

// Repository provides database access to apiaries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create persists a new apiary.
func (r *Repository) Create(ctx context.Context, a Apiary) (Apiary, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
INSERT INTO apiaries (owner_id, name, type, coordinate_lat, coordinate_lon, address, postal_code, city, country_code, continent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, created_at;`

	err := r.pool.QueryRow(ctx, query,
		a.OwnerID, a.Name, a.Type, a.CoordinateLat, a.CoordinateLon,
		a.Address, a.PostalCode, a.City, a.CountryCode, a.Continent,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return Apiary{}, fmt.Errorf("insert apiary: %w", err)
	}

	return a, nil
}

// ListByOwner returns the user's active apiaries ordered by creation time.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Apiary, error) {
	return r.list(ctx, ownerID, false)
}

// ListByOwnerIncludingDeleted returns the user's apiaries including
// soft-deleted ones, for research exports.
func (r *Repository) ListByOwnerIncludingDeleted(ctx context.Context, ownerID uuid.UUID) ([]Apiary, error) {
	return r.list(ctx, ownerID, true)
}

func (r *Repository) list(ctx context.Context, ownerID uuid.UUID, includeDeleted bool) ([]Apiary, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `SELECT ` + apiaryColumns + ` FROM apiaries a WHERE a.owner_id = $1`
	if !includeDeleted {
		query += ` AND a.deleted_at IS NULL`
	}
	query += ` ORDER BY a.created_at ASC;`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query apiaries: %w", err)
	}
	defer rows.Close()

	var apiaries []Apiary
	for rows.Next() {
		a, err := scanApiary(rows)
		if err != nil {
			return nil, err
		}
		apiaries = append(apiaries, a)
	}

	return apiaries, rows.Err()
}

// Get fetches one active apiary owned by the user.
func (r *Repository) Get(ctx context.Context, ownerID, apiaryID uuid.UUID) (Apiary, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `SELECT ` + apiaryColumns + ` FROM apiaries a
WHERE a.owner_id = $1 AND a.id = $2 AND a.deleted_at IS NULL;`

	rows, err := r.pool.Query(ctx, query, ownerID, apiaryID)
	if err != nil {
		return Apiary{}, fmt.Errorf("query apiary: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Apiary{}, fmt.Errorf("query apiary: %w", err)
		}
		return Apiary{}, ErrApiaryNotFound
	}

	return scanApiary(rows)
}

// Delete soft-deletes an apiary owned by the user.
func (r *Repository) Delete(ctx context.Context, ownerID, apiaryID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
UPDATE apiaries SET deleted_at = NOW()
WHERE owner_id = $1 AND id = $2 AND deleted_at IS NULL;`

	tag, err := r.pool.Exec(ctx, query, ownerID, apiaryID)
	if err != nil {
		return fmt.Errorf("delete apiary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrApiaryNotFound
	}

	return nil
}

func scanApiary(rows pgx.Rows) (Apiary, error) {
	var a Apiary
	err := rows.Scan(
		&a.ID, &a.OwnerID, &a.Name, &a.Type, &a.CoordinateLat, &a.CoordinateLon,
		&a.Address, &a.PostalCode, &a.City, &a.CountryCode, &a.Continent,
		&a.HiveCount, &a.CreatedAt, &a.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Apiary{}, ErrApiaryNotFound
		}
		return Apiary{}, fmt.Errorf("scan apiary: %w", err)
	}
	return a, nil
}
