package telemetry

import "errors"

var (
	// ErrNoDeviceKeys is returned when a query is requested for an empty device set.
	ErrNoDeviceKeys = errors.New("no device keys supplied")
	// ErrInvalidDeviceKey is returned for empty or non-printable device keys.
	ErrInvalidDeviceKey = errors.New("invalid device key")
	// ErrInvalidField is returned for malformed field selections.
	ErrInvalidField = errors.New("invalid field name")
	// ErrNoData is returned when a raw sample query matched nothing.
	ErrNoData = errors.New("no telemetry data in range")
)
