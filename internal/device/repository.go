package device

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

const deviceColumns = `
id, owner_id, hive_id, name, key, hardware_id, firmware_version, last_message_received, created_at, deleted_at`

// Repository provides database access to sensor devices.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create persists a new device.
func (r *Repository) Create(ctx context.Context, d Device) (Device, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
INSERT INTO devices (owner_id, hive_id, name, key, hardware_id, firmware_version)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at;`

	err := r.pool.QueryRow(ctx, query,
		d.OwnerID, d.HiveID, d.Name, d.Key, d.HardwareID, d.FirmwareVersion,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Device{}, ErrKeyExists
		}
		return Device{}, fmt.Errorf("insert device: %w", err)
	}

	return d, nil
}

// ListByOwner returns the user's active devices ordered by creation time.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Device, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `SELECT ` + deviceColumns + ` FROM devices
WHERE owner_id = $1 AND deleted_at IS NULL
ORDER BY created_at ASC;`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		var d Device
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.HiveID, &d.Name, &d.Key, &d.HardwareID,
			&d.FirmwareVersion, &d.LastMessageReceived, &d.CreatedAt, &d.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, d)
	}

	return devices, rows.Err()
}

// Get fetches one active device owned by the user.
func (r *Repository) Get(ctx context.Context, ownerID, deviceID uuid.UUID) (Device, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `SELECT ` + deviceColumns + ` FROM devices
WHERE owner_id = $1 AND id = $2 AND deleted_at IS NULL;`

	var d Device
	err := r.pool.QueryRow(ctx, query, ownerID, deviceID).Scan(
		&d.ID, &d.OwnerID, &d.HiveID, &d.Name, &d.Key, &d.HardwareID,
		&d.FirmwareVersion, &d.LastMessageReceived, &d.CreatedAt, &d.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Device{}, ErrDeviceNotFound
		}
		return Device{}, fmt.Errorf("query device: %w", err)
	}

	return d, nil
}

// Delete soft-deletes a device owned by the user.
func (r *Repository) Delete(ctx context.Context, ownerID, deviceID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
UPDATE devices SET deleted_at = NOW()
WHERE owner_id = $1 AND id = $2 AND deleted_at IS NULL;`

	tag, err := r.pool.Exec(ctx, query, ownerID, deviceID)
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
