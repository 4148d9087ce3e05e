package apiary

import "errors"

var (
	// ErrApiaryNotFound indicates the requested apiary does not exist for the user.
	ErrApiaryNotFound = errors.New("apiary not found")
)
