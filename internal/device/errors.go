package device

import "errors"

var (
	// ErrDeviceNotFound indicates the requested device does not exist for the user.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrKeyExists is returned when a device key is already registered.
	ErrKeyExists = errors.New("device key already registered")
)
