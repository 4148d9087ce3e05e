package research

import "errors"

var (
	// ErrResearchNotFound indicates the requested research study does not exist.
	ErrResearchNotFound = errors.New("research not found")
	// ErrInvalidDateRange is returned when a report range is malformed or empty.
	ErrInvalidDateRange = errors.New("invalid report date range")
	// ErrNoConsentingUsers is returned when no user ever granted consent before
	// the report end.
	ErrNoConsentingUsers = errors.New("no consenting users for research")
	// ErrExportFailed wraps failures in the spreadsheet export stage, distinct
	// from aggregation failures.
	ErrExportFailed = errors.New("research export failed")
)
