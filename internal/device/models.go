package device

import (
	"time"

	"github.com/google/uuid"
)

// Device is an IoT sensor unit attached to a hive. Key identifies the
// device's samples in the time-series store; the store may carry the key in
// any letter case.
type Device struct {
	ID                  uuid.UUID  `json:"id"`
	OwnerID             uuid.UUID  `json:"owner_id"`
	HiveID              *uuid.UUID `json:"hive_id,omitempty"`
	Name                string     `json:"name"`
	Key                 string     `json:"key"`
	HardwareID          *string    `json:"hardware_id,omitempty"`
	FirmwareVersion     *string    `json:"firmware_version,omitempty"`
	LastMessageReceived *time.Time `json:"last_message_received,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty"`
}
