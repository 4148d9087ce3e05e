package apiary

import (
	"time"

	"github.com/google/uuid"
)

// Apiary is a named location holding a user's hives.
type Apiary struct {
	ID            uuid.UUID  `json:"id"`
	OwnerID       uuid.UUID  `json:"owner_id"`
	Name          string     `json:"name"`
	Type          string     `json:"type,omitempty"`
	CoordinateLat *float64   `json:"coordinate_lat,omitempty"`
	CoordinateLon *float64   `json:"coordinate_lon,omitempty"`
	Address       *string    `json:"address,omitempty"`
	PostalCode    *string    `json:"postal_code,omitempty"`
	City          *string    `json:"city,omitempty"`
	CountryCode   *string    `json:"country_code,omitempty"`
	Continent     *string    `json:"continent,omitempty"`
	HiveCount     int64      `json:"hive_count"`
	CreatedAt     time.Time  `json:"created_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}
