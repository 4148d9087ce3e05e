package hive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultQueryTimeout = 5 * time.Second

const hiveColumns = `
id, owner_id, apiary_id, name, type, color, brood_layers, honey_layers, frame_count, created_at, deleted_at`

// Repository provides database access to hives.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create persists a new hive.
func (r *Repository) Create(ctx context.Context, h Hive) (Hive, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
INSERT INTO hives (owner_id, apiary_id, name, type, color, brood_layers, honey_layers, frame_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at;`

	err := r.pool.QueryRow(ctx, query,
		h.OwnerID, h.ApiaryID, h.Name, h.Type, h.Color, h.BroodLayers, h.HoneyLayers, h.FrameCount,
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return Hive{}, fmt.Errorf("insert hive: %w", err)
	}

	return h, nil
}

// ListByOwner returns the user's active hives ordered by creation time.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Hive, error) {
	return r.list(ctx, ownerID, false)
}

// ListByOwnerIncludingDeleted returns the user's hives including soft-deleted
// ones, for research exports.
func (r *Repository) ListByOwnerIncludingDeleted(ctx context.Context, ownerID uuid.UUID) ([]Hive, error) {
	return r.list(ctx, ownerID, true)
}

func (r *Repository) list(ctx context.Context, ownerID uuid.UUID, includeDeleted bool) ([]Hive, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `SELECT ` + hiveColumns + ` FROM hives WHERE owner_id = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY created_at ASC;`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query hives: %w", err)
	}
	defer rows.Close()

	var hives []Hive
	for rows.Next() {
		var h Hive
		if err := rows.Scan(&h.ID, &h.OwnerID, &h.ApiaryID, &h.Name, &h.Type, &h.Color,
			&h.BroodLayers, &h.HoneyLayers, &h.FrameCount, &h.CreatedAt, &h.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan hive: %w", err)
		}
		hives = append(hives, h)
	}

	return hives, rows.Err()
}

// Get fetches one active hive owned by the user.
func (r *Repository) Get(ctx context.Context, ownerID, hiveID uuid.UUID) (Hive, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `SELECT ` + hiveColumns + ` FROM hives
WHERE owner_id = $1 AND id = $2 AND deleted_at IS NULL;`

	var h Hive
	err := r.pool.QueryRow(ctx, query, ownerID, hiveID).Scan(
		&h.ID, &h.OwnerID, &h.ApiaryID, &h.Name, &h.Type, &h.Color,
		&h.BroodLayers, &h.HoneyLayers, &h.FrameCount, &h.CreatedAt, &h.DeletedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Hive{}, ErrHiveNotFound
		}
		return Hive{}, fmt.Errorf("query hive: %w", err)
	}

	return h, nil
}

// Delete soft-deletes a hive owned by the user.
func (r *Repository) Delete(ctx context.Context, ownerID, hiveID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
UPDATE hives SET deleted_at = NOW()
WHERE owner_id = $1 AND id = $2 AND deleted_at IS NULL;`

	tag, err := r.pool.Exec(ctx, query, ownerID, hiveID)
	if err != nil {
		return fmt.Errorf("delete hive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrHiveNotFound
	}

	return nil
}
