package mealsync

import "errors"

// ErrPolicyRefused means a local guard blocked the action before any
// request was sent. Nothing was mutated and nothing needs rolling back;
// the action is simply inert.
var ErrPolicyRefused = errors.New("mealsync: refused by local policy")

// RejectedError is a mutation the server declined. The local state has
// already been rolled back by the time callers see it; Message is the
// server-supplied text to surface to the user.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return "mealsync: rejected by server: " + e.Message
}

// userMessage picks the text shown to the user for a failed request.
// Transport failures get a generic message since the server never spoke.
func userMessage(err error) string {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Message
	}
	return "Could not reach the server. Your change was not saved."
}
