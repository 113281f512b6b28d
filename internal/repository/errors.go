package repository

import "errors"

// Shared repository errors. Implementations map driver errors onto these so
// services never depend on gorm or MySQL error codes.
var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry means the write violated a unique constraint.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
)

var (
	ErrMealNotFound       = ErrNotFound
	ErrResidentNotFound   = ErrNotFound
	ErrAttendanceNotFound = ErrNotFound
	ErrGuestNotFound      = ErrNotFound
	ErrCommunityNotFound  = ErrNotFound
)
