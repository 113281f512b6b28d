package mealsync

import (
	"context"
	"time"
)

// Meal is the client-side capacity aggregate: extras accounting and the
// closed/open lifecycle for one meal. Extras is nil while the meal is
// unbounded; once set, increment and decrement track other mutations'
// optimistic deltas.
type Meal struct {
	form *Form

	id          uint
	date        time.Time
	description string
	cap         *int
	closed      bool
	closedAt    time.Time // zero while open
	extras      *int
	cost        int
}

func (m *Meal) ID() uint          { return m.id }
func (m *Meal) Date() time.Time   { return m.date }
func (m *Meal) Cost() int         { return m.cost }
func (m *Meal) Cap() *int         { return copyIntPtr(m.cap) }

// Closed reports the local closed flag.
func (m *Meal) Closed() bool {
	m.form.mu.Lock()
	defer m.form.mu.Unlock()
	return m.closed
}

// ClosedAt is the closing instant, zero while the meal is open. The
// timestamp itself is owned by the server; this is the last known value.
func (m *Meal) ClosedAt() time.Time {
	m.form.mu.Lock()
	defer m.form.mu.Unlock()
	return m.closedAt
}

// Extras returns the open slots beyond current attendees, nil when
// unbounded or not yet set.
func (m *Meal) Extras() *int {
	m.form.mu.Lock()
	defer m.form.mu.Unlock()
	return copyIntPtr(m.extras)
}

// Max derives the attendee ceiling: nil while the meal is open, nil when
// closed without extras set, otherwise extras plus the current attendee
// count at the moment of the call.
func (m *Meal) Max() *int {
	m.form.mu.Lock()
	defer m.form.mu.Unlock()
	return m.maxLocked()
}

func (m *Meal) maxLocked() *int {
	if !m.closed || m.extras == nil {
		return nil
	}
	max := *m.extras + m.form.attendeesCountLocked()
	return &max
}

// IncrementExtras adds one open slot. No-op while extras is unbounded.
// Pure local mutation, safe to call speculatively.
func (m *Meal) IncrementExtras() {
	m.form.mu.Lock()
	m.incrementExtrasLocked()
	m.form.mu.Unlock()
}

// DecrementExtras removes one open slot. No-op while extras is unbounded.
func (m *Meal) DecrementExtras() {
	m.form.mu.Lock()
	m.decrementExtrasLocked()
	m.form.mu.Unlock()
}

func (m *Meal) incrementExtrasLocked() {
	if m.extras == nil {
		return
	}
	*m.extras++
}

func (m *Meal) decrementExtrasLocked() {
	if m.extras == nil {
		return
	}
	*m.extras--
}

// SetExtras applies a new extras value locally and sends the server the
// computed absolute ceiling (extras plus attendees) rather than a delta,
// so concurrent extras changes cannot lose each other's updates. A nil
// value means unbounded. Negative values are refused before any request.
// On rejection the previous value is restored and the server's message
// surfaced.
func (m *Meal) SetExtras(ctx context.Context, value *int) error {
	if value != nil && *value < 0 {
		return ErrPolicyRefused
	}

	var previous, max *int
	return m.form.run(ctx, "set_extras", transaction{
		apply: func() {
			previous = copyIntPtr(m.extras)
			m.extras = copyIntPtr(value)
			if m.extras != nil {
				computed := *m.extras + m.form.attendeesCountLocked()
				max = &computed
			}
		},
		request: func(ctx context.Context) error {
			return m.form.backend.UpdateMax(ctx, m.id, max, m.form.sessionID)
		},
		restore: func() {
			m.extras = previous
		},
	})
}

// ToggleClosed flips the local closed flag and returns the new value.
// The paired closed_at side effect is owned by the server; dependent
// policy decisions read whatever closed_at the last reload delivered.
func (m *Meal) ToggleClosed() bool {
	m.form.mu.Lock()
	defer m.form.mu.Unlock()
	m.closed = !m.closed
	return m.closed
}
