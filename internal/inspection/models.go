package inspection

import (
	"time"

	"github.com/google/uuid"
)

// Inspection is a dated hive checkup recorded by a user.
type Inspection struct {
	ID           uuid.UUID  `json:"id"`
	OwnerID      uuid.UUID  `json:"owner_id"`
	HiveID       *uuid.UUID `json:"hive_id,omitempty"`
	Impression   *int       `json:"impression,omitempty"`
	Attention    *int       `json:"attention,omitempty"`
	Reminder     *string    `json:"reminder,omitempty"`
	ReminderDate *time.Time `json:"reminder_date,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	Items        []Item     `json:"items,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Item is one recorded value inside an inspection, typed by its definition.
type Item struct {
	ID           uuid.UUID `json:"id"`
	InspectionID uuid.UUID `json:"inspection_id"`
	DefinitionID uuid.UUID `json:"definition_id"`
	Value        string    `json:"value"`
}

// ItemDefinition describes a checklist entry: its category ancestry, display
// name and value range. Definitions across all exported users form the legend
// header of the inspections sheet.
type ItemDefinition struct {
	ID       uuid.UUID `json:"id"`
	Ancestry string    `json:"ancestry"`
	Name     string    `json:"name"`
	Range    string    `json:"range,omitempty"`
	Type     string    `json:"type,omitempty"`
}

// Header returns the unique column header for the definition.
func (d ItemDefinition) Header() string {
	return d.Ancestry + d.Name
}
