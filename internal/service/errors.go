package service

import "errors"

var (
	ErrMealNotFound         = errors.New("meal not found")
	ErrResidentNotFound     = errors.New("resident not found")
	ErrGuestNotFound        = errors.New("guest not found")
	ErrBillNotFound         = errors.New("bill not found")
	ErrCommunityNotFound    = errors.New("community not found")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInternalServer       = errors.New("internal server error")

	// ErrAlreadyAttending means the resident holds an attendance row for
	// the meal already.
	ErrAlreadyAttending = errors.New("resident is already attending this meal")
	// ErrNotAttending means there is no attendance row to act on.
	ErrNotAttending = errors.New("resident is not attending this meal")
)

// ValidationError is a rejected mutation with a message meant for the
// user's screen. Handlers send Message verbatim in the response body so
// clients can surface it after rolling back their optimistic state.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Rejection messages reused across services.
const (
	MsgMaxBelowAttendees = "Max can't be less than current number of attendees."
	MsgMealFull          = "Meal is full."
	MsgMealClosed        = "Meal is closed."
	MsgMealReconciled    = "Meal is already reconciled."
	MsgAttendanceFrozen  = "Attendance can no longer be changed for this meal."
	MsgGuestFrozen       = "Guests can no longer be removed from this meal."
	MsgBillNegative      = "Bill amount can't be negative."
)

func reject(message string) error {
	return &ValidationError{Message: message}
}
