package inspection

import "errors"

var (
	// ErrInspectionNotFound indicates the requested inspection does not exist for the user.
	ErrInspectionNotFound = errors.New("inspection not found")
	// ErrUnknownDefinition is returned when an item references a missing definition.
	ErrUnknownDefinition = errors.New("unknown inspection item definition")
)
