package mealsync

import "context"

// Update is one message from the invalidation channel, broadcast to every
// viewer of a meal whenever any of its fields change server-side.
type Update struct {
	MealID    uint   `json:"meal_id"`
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// HandleUpdate reacts to an invalidation message. Messages for other meals
// are ignored, and messages carrying this Form's own session identifier
// are dropped as self-echoes: the change they announce is already the
// committed local state. Everything else triggers a reload of authoritative
// state. Returns whether a reload was applied.
func (f *Form) HandleUpdate(ctx context.Context, u Update) (bool, error) {
	if u.MealID != f.meal.id || u.Type != "update" {
		return false, nil
	}
	if u.SessionID == f.sessionID {
		f.log.Debug("Ignoring self-originated invalidation")
		return false, nil
	}
	if err := f.Reload(ctx); err != nil {
		return false, err
	}
	return true, nil
}
