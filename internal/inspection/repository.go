package inspection

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

const inspectionColumns = `
id, owner_id, hive_id, impression, attention, reminder, reminder_date, notes, created_at, deleted_at`

// Repository provides database access to inspections and their items.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create persists a new inspection and its items in one transaction.
func (r *Repository) Create(ctx context.Context, ins Inspection) (Inspection, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Inspection{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
INSERT INTO inspections (owner_id, hive_id, impression, attention, reminder, reminder_date, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at;`

	err = tx.QueryRow(ctx, query,
		ins.OwnerID, ins.HiveID, ins.Impression, ins.Attention, ins.Reminder, ins.ReminderDate, ins.Notes,
	).Scan(&ins.ID, &ins.CreatedAt)
	if err != nil {
		return Inspection{}, fmt.Errorf("insert inspection: %w", err)
	}

	for i := range ins.Items {
		item := &ins.Items[i]
		item.InspectionID = ins.ID
		err := tx.QueryRow(ctx, `
INSERT INTO inspection_items (inspection_id, definition_id, value)
VALUES ($1, $2, $3)
RETURNING id;`, item.InspectionID, item.DefinitionID, item.Value).Scan(&item.ID)
		if err != nil {
			return Inspection{}, fmt.Errorf("insert inspection item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Inspection{}, fmt.Errorf("commit tx: %w", err)
	}

	return ins, nil
}

// ListByOwner returns the user's active inspections ordered by creation time,
// without items.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Inspection, error) {
	return r.list(ctx, ownerID, false, false)
}

// ListByOwnerIncludingDeleted returns all of the user's inspections with
// items attached, for research exports.
func (r *Repository) ListByOwnerIncludingDeleted(ctx context.Context, ownerID uuid.UUID) ([]Inspection, error) {
	return r.list(ctx, ownerID, true, true)
}

func (r *Repository) list(ctx context.Context, ownerID uuid.UUID, includeDeleted, withItems bool) ([]Inspection, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `SELECT ` + inspectionColumns + ` FROM inspections WHERE owner_id = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY created_at ASC;`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query inspections: %w", err)
	}
	defer rows.Close()

	var inspections []Inspection
	byID := make(map[uuid.UUID]int)
	for rows.Next() {
		var ins Inspection
		if err := rows.Scan(&ins.ID, &ins.OwnerID, &ins.HiveID, &ins.Impression, &ins.Attention,
			&ins.Reminder, &ins.ReminderDate, &ins.Notes, &ins.CreatedAt, &ins.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan inspection: %w", err)
		}
		byID[ins.ID] = len(inspections)
		inspections = append(inspections, ins)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !withItems || len(inspections) == 0 {
		return inspections, nil
	}

	itemRows, err := r.pool.Query(ctx, `
SELECT it.id, it.inspection_id, it.definition_id, it.value
FROM inspection_items it
JOIN inspections ins ON ins.id = it.inspection_id
WHERE ins.owner_id = $1;`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query inspection items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item Item
		if err := itemRows.Scan(&item.ID, &item.InspectionID, &item.DefinitionID, &item.Value); err != nil {
			return nil, fmt.Errorf("scan inspection item: %w", err)
		}
		if idx, ok := byID[item.InspectionID]; ok {
			inspections[idx].Items = append(inspections[idx].Items, item)
		}
	}

	return inspections, itemRows.Err()
}

// Get fetches one active inspection owned by the user.
func (r *Repository) Get(ctx context.Context, ownerID, inspectionID uuid.UUID) (Inspection, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `SELECT ` + inspectionColumns + ` FROM inspections
WHERE owner_id = $1 AND id = $2 AND deleted_at IS NULL;`

	var ins Inspection
	err := r.pool.QueryRow(ctx, query, ownerID, inspectionID).Scan(
		&ins.ID, &ins.OwnerID, &ins.HiveID, &ins.Impression, &ins.Attention,
		&ins.Reminder, &ins.ReminderDate, &ins.Notes, &ins.CreatedAt, &ins.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Inspection{}, ErrInspectionNotFound
		}
		return Inspection{}, fmt.Errorf("query inspection: %w", err)
	}

	return ins, nil
}

// Delete soft-deletes an inspection owned by the user.
func (r *Repository) Delete(ctx context.Context, ownerID, inspectionID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
UPDATE inspections SET deleted_at = NOW()
WHERE owner_id = $1 AND id = $2 AND deleted_at IS NULL;`

	tag, err := r.pool.Exec(ctx, query, ownerID, inspectionID)
	if err != nil {
		return fmt.Errorf("delete inspection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInspectionNotFound
	}

	return nil
}

// DefinitionsForUsers returns the distinct item definitions used by any of
// the given users' inspections, ordered by ancestry then name. The result
// drives the legend header row of export sheets.
func (r *Repository) DefinitionsForUsers(ctx context.Context, userIDs []uuid.UUID) ([]ItemDefinition, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT DISTINCT d.id, d.ancestry, d.name, d.value_range, d.type
FROM item_definitions d
JOIN inspection_items it ON it.definition_id = d.id
JOIN inspections ins ON ins.id = it.inspection_id
WHERE ins.owner_id = ANY($1)
ORDER BY d.ancestry, d.name;`

	rows, err := r.pool.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("query item definitions: %w", err)
	}
	defer rows.Close()

	var defs []ItemDefinition
	for rows.Next() {
		var d ItemDefinition
		if err := rows.Scan(&d.ID, &d.Ancestry, &d.Name, &d.Range, &d.Type); err != nil {
			return nil, fmt.Errorf("scan item definition: %w", err)
		}
		defs = append(defs, d)
	}

	return defs, rows.Err()
}
