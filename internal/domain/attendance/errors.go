package attendance

import "errors"

// Attendance domain errors
var (
	// Lookup errors
	ErrEmployeeNotFound = errors.New("employee not found in punch data")

	// Source errors
	ErrSourceUnauthorized = errors.New("punch source rejected the credentials")
	ErrSourceNotFound     = errors.New("punch source table or base not found")
	ErrSourceUnavailable  = errors.New("punch source is unavailable")
)
