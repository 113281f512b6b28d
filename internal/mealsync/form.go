// Package mealsync is the client-side core of the meal coordination system:
// a local mirror of one meal's attendance and capacity state that mutates
// optimistically, reconciles against the authoritative backend, and listens
// for out-of-band invalidations from other viewers of the same meal.
package mealsync

import (
	"context"
	"sort"
	stdsync "sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Form is the aggregate root for one viewer's session on one meal. It owns
// the meal aggregate, the per-resident attendance controllers, and the
// guest ledger; children hold direct references back to it instead of
// discovering parents through a state tree.
//
// A Form carries an opaque session identifier sent with every request. The
// invalidation channel echoes that identifier back with each broadcast, and
// HandleUpdate drops messages carrying the Form's own id so a viewer never
// double-applies its own already-committed change.
type Form struct {
	mu        stdsync.Mutex
	backend   Backend
	sessionID string
	log       *logrus.Entry

	// notify surfaces server rejection messages to the user. Optional.
	notify func(message string)

	meal      *Meal
	residents map[uint]*Resident
	guests    []*Guest
}

// NewForm builds a Form over a backend from an authoritative snapshot.
func NewForm(backend Backend, snapshot *MealSnapshot) *Form {
	if backend == nil {
		panic("backend cannot be nil for Form")
	}
	if snapshot == nil {
		panic("snapshot cannot be nil for Form")
	}
	f := &Form{
		backend:   backend,
		sessionID: uuid.NewString(),
		residents: make(map[uint]*Resident),
	}
	f.log = logrus.WithFields(logrus.Fields{
		"component":  "mealsync",
		"meal_id":    snapshot.ID,
		"session_id": f.sessionID,
	})
	f.applySnapshot(snapshot)
	return f
}

// SessionID returns the opaque identifier carried by this Form's requests.
func (f *Form) SessionID() string { return f.sessionID }

// SetNotify installs the callback that receives user-facing error messages.
func (f *Form) SetNotify(fn func(message string)) {
	f.mu.Lock()
	f.notify = fn
	f.mu.Unlock()
}

// Meal returns the meal aggregate.
func (f *Form) Meal() *Meal { return f.meal }

// Resident returns the attendance controller for one resident, or nil if
// the resident is not part of this meal's community view.
func (f *Form) Resident(id uint) *Resident {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.residents[id]
}

// Guests returns the guest ledger, newest first.
func (f *Form) Guests() []*Guest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedGuestsLocked()
}

// AttendeesCount is the number of attending residents plus hosted guests.
func (f *Form) AttendeesCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attendeesCountLocked()
}

// Reload replaces local state with fresh authoritative state. Any
// unresolved optimistic deltas are discarded; the server has spoken.
func (f *Form) Reload(ctx context.Context) error {
	snapshot, err := f.backend.GetMeal(ctx, f.meal.id)
	if err != nil {
		f.log.WithError(err).Warn("Failed to reload meal state")
		return err
	}
	f.mu.Lock()
	f.applySnapshotLocked(snapshot)
	f.mu.Unlock()
	f.log.Debug("Meal state reloaded from server")
	return nil
}

func (f *Form) applySnapshot(snapshot *MealSnapshot) {
	f.mu.Lock()
	f.applySnapshotLocked(snapshot)
	f.mu.Unlock()
}

func (f *Form) applySnapshotLocked(s *MealSnapshot) {
	meal := &Meal{
		form:        f,
		id:          s.ID,
		date:        s.Date,
		description: s.Description,
		cap:         copyIntPtr(s.Cap),
		closed:      s.Closed,
		cost:        s.Cost,
	}
	if s.ClosedAt != nil {
		meal.closedAt = *s.ClosedAt
	}
	// The wire carries the absolute max; locally we track extras, the
	// slots still open beyond current attendees.
	if s.Max != nil {
		attendees := 0
		for i := range s.Residents {
			if s.Residents[i].Attending {
				attendees++
			}
		}
		extras := *s.Max - attendees - len(s.Guests)
		meal.extras = &extras
	}
	f.meal = meal

	f.residents = make(map[uint]*Resident, len(s.Residents))
	for i := range s.Residents {
		rs := s.Residents[i]
		r := &Resident{
			form:       f,
			meal:       meal,
			id:         rs.ID,
			name:       rs.Name,
			attending:  rs.Attending,
			late:       rs.Late,
			vegetarian: rs.Vegetarian,
			canCook:    rs.CanCook,
			active:     rs.Active,
		}
		if rs.AttendingAt != nil {
			r.attendingAt = *rs.AttendingAt
		}
		f.residents[r.id] = r
	}

	f.guests = make([]*Guest, 0, len(s.Guests))
	for i := range s.Guests {
		gs := s.Guests[i]
		f.guests = append(f.guests, &Guest{
			form:       f,
			meal:       meal,
			id:         gs.ID,
			residentID: gs.ResidentID,
			name:       copyStringPtr(gs.Name),
			vegetarian: gs.Vegetarian,
			createdAt:  gs.CreatedAt,
		})
	}
}

func (f *Form) attendeesCountLocked() int {
	count := len(f.guests)
	for _, r := range f.residents {
		if r.attending {
			count++
		}
	}
	return count
}

func (f *Form) sortedGuestsLocked() []*Guest {
	guests := make([]*Guest, len(f.guests))
	copy(guests, f.guests)
	sort.Slice(guests, func(i, j int) bool {
		if !guests[i].createdAt.Equal(guests[j].createdAt) {
			return guests[i].createdAt.After(guests[j].createdAt)
		}
		return guests[i].id > guests[j].id
	})
	return guests
}

func (f *Form) guestsOfLocked(residentID uint) []*Guest {
	var hosted []*Guest
	for _, g := range f.sortedGuestsLocked() {
		if g.residentID == residentID {
			hosted = append(hosted, g)
		}
	}
	return hosted
}

func (f *Form) removeGuestLocked(guestID uint) {
	for i, g := range f.guests {
		if g.id == guestID {
			f.guests = append(f.guests[:i], f.guests[i+1:]...)
			return
		}
	}
}

func (f *Form) alert(err error) {
	f.mu.Lock()
	notify := f.notify
	f.mu.Unlock()
	if notify != nil {
		notify(userMessage(err))
	}
}

func copyIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyStringPtr(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
