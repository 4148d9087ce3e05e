package export

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultQueryTimeout = 5 * time.Second

// Artifact is the persisted record of one stored export.
type Artifact struct {
	ID         uuid.UUID `json:"id"`
	ResearchID uuid.UUID `json:"research_id"`
	ObjectName string    `json:"object_name"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository persists export artifact metadata.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RecordArtifact stores the metadata of a freshly uploaded export.
func (r *Repository) RecordArtifact(ctx context.Context, researchID uuid.UUID, objectName string, sizeBytes int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
INSERT INTO export_artifacts (research_id, object_name, size_bytes)
VALUES ($1, $2, $3);`

	if _, err := r.pool.Exec(ctx, query, researchID, objectName, sizeBytes); err != nil {
		return fmt.Errorf("insert export artifact: %w", err)
	}
	return nil
}

// ListByResearch returns a study's stored exports, newest first.
func (r *Repository) ListByResearch(ctx context.Context, researchID uuid.UUID) ([]Artifact, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT id, research_id, object_name, size_bytes, created_at
FROM export_artifacts
WHERE research_id = $1
ORDER BY created_at DESC;`

	rows, err := r.pool.Query(ctx, query, researchID)
	if err != nil {
		return nil, fmt.Errorf("list export artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.ID, &a.ResearchID, &a.ObjectName, &a.SizeBytes, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan export artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}
