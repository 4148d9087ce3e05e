package hive

import "errors"

var (
	// ErrHiveNotFound indicates the requested hive does not exist for the user.
	ErrHiveNotFound = errors.New("hive not found")
)
