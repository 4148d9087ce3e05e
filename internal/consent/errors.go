package consent

import "errors"

var (
	// ErrEventConflict is returned when an event with the same timestamp
	// already exists for the research/user pair.
	ErrEventConflict = errors.New("consent event already recorded at this timestamp")
)
