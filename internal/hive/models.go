package hive

import (
	"time"

	"github.com/google/uuid"
)

// Hive is a single bee colony housing registered by a user, optionally
// placed at an apiary.
type Hive struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	ApiaryID    *uuid.UUID `json:"apiary_id,omitempty"`
	Name        string     `json:"name"`
	Type        string     `json:"type,omitempty"`
	Color       *string    `json:"color,omitempty"`
	BroodLayers int        `json:"brood_layers"`
	HoneyLayers int        `json:"honey_layers"`
	FrameCount  int        `json:"frame_count"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}
