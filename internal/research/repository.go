package research

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

const researchColumns = `
id, name, description, url, institution, type_of_data_used, start_date, end_date, created_at, deleted_at`

// Repository provides database access to research studies.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create persists a new research study.
func (r *Repository) Create(ctx context.Context, res Research) (Research, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
INSERT INTO research (name, description, url, institution, type_of_data_used, start_date, end_date)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at;`

	err := r.pool.QueryRow(ctx, query,
		res.Name, res.Description, res.URL, res.Institution, res.TypeOfDataUsed, res.StartDate, res.EndDate,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		return Research{}, fmt.Errorf("insert research: %w", err)
	}

	return res, nil
}

// List returns active research studies, optionally filtered by a keyword
// matched against name, description and institution.
func (r *Repository) List(ctx context.Context, keyword string) ([]Research, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `SELECT ` + researchColumns + ` FROM research WHERE deleted_at IS NULL`
	args := []interface{}{}
	if keyword != "" {
		query += ` AND (name ILIKE $1 OR description ILIKE $1 OR institution ILIKE $1)`
		args = append(args, "%"+keyword+"%")
	}
	query += ` ORDER BY created_at DESC;`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query research: %w", err)
	}
	defer rows.Close()

	var studies []Research
	for rows.Next() {
		var res Research
		if err := rows.Scan(&res.ID, &res.Name, &res.Description, &res.URL, &res.Institution,
			&res.TypeOfDataUsed, &res.StartDate, &res.EndDate, &res.CreatedAt, &res.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan research: %w", err)
		}
		studies = append(studies, res)
	}

	return studies, rows.Err()
}

// Get fetches one active research study.
func (r *Repository) Get(ctx context.Context, researchID uuid.UUID) (Research, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `SELECT ` + researchColumns + ` FROM research
WHERE id = $1 AND deleted_at IS NULL;`

	var res Research
	err := r.pool.QueryRow(ctx, query, researchID).Scan(
		&res.ID, &res.Name, &res.Description, &res.URL, &res.Institution,
		&res.TypeOfDataUsed, &res.StartDate, &res.EndDate, &res.CreatedAt, &res.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Research{}, ErrResearchNotFound
		}
		return Research{}, fmt.Errorf("query research: %w", err)
	}

	return res, nil
}

// Update modifies a research study's descriptive fields and date range.
func (r *Repository) Update(ctx context.Context, res Research) (Research, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
UPDATE research
SET name = $2, description = $3, url = $4, institution = $5, type_of_data_used = $6, start_date = $7, end_date = $8
WHERE id = $1 AND deleted_at IS NULL
RETURNING created_at;`

	err := r.pool.QueryRow(ctx, query,
		res.ID, res.Name, res.Description, res.URL, res.Institution,
		res.TypeOfDataUsed, res.StartDate, res.EndDate,
	).Scan(&res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Research{}, ErrResearchNotFound
		}
		return Research{}, fmt.Errorf("update research: %w", err)
	}

	return res, nil
}

// Delete soft-deletes a research study.
func (r *Repository) Delete(ctx context.Context, researchID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
UPDATE research SET deleted_at = NOW()
WHERE id = $1 AND deleted_at IS NULL;`

	tag, err := r.pool.Exec(ctx, query, researchID)
	if err != nil {
		return fmt.Errorf("delete research: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrResearchNotFound
	}

	return nil
}
