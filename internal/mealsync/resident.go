package mealsync

import (
	"context"
	"time"
)

// Resident is the per-resident attendance controller over a meal: it
// decides whether the resident may join or leave and whether guests may be
// added or removed, then drives the optimistic mutations.
type Resident struct {
	form *Form
	meal *Meal

	id          uint
	name        string
	attending   bool
	attendingAt time.Time // zero until a join is committed
	late        bool
	vegetarian  bool
	canCook     bool
	active      bool
}

// ToggleOptions requests flag flips applied together with an attendance
// toggle.
type ToggleOptions struct {
	Late      bool
	ToggleVeg bool
}

// GuestOptions configures a new guest reservation.
type GuestOptions struct {
	Vegetarian bool
}

func (r *Resident) ID() uint     { return r.id }
func (r *Resident) Name() string { return r.name }
func (r *Resident) CanCook() bool { return r.canCook }
func (r *Resident) Active() bool  { return r.active }

func (r *Resident) Attending() bool {
	r.form.mu.Lock()
	defer r.form.mu.Unlock()
	return r.attending
}

func (r *Resident) AttendingAt() time.Time {
	r.form.mu.Lock()
	defer r.form.mu.Unlock()
	return r.attendingAt
}

func (r *Resident) Late() bool {
	r.form.mu.Lock()
	defer r.form.mu.Unlock()
	return r.late
}

func (r *Resident) Vegetarian() bool {
	r.form.mu.Lock()
	defer r.form.mu.Unlock()
	return r.vegetarian
}

// Guests lists the guests this resident hosts, newest first.
func (r *Resident) Guests() []*Guest {
	r.form.mu.Lock()
	defer r.form.mu.Unlock()
	return r.form.guestsOfLocked(r.id)
}

// GuestsCount is the number of guests this resident hosts.
func (r *Resident) GuestsCount() int {
	return len(r.Guests())
}

// CanRemove reports whether the resident may withdraw their attendance.
// Open meals always allow it; once a meal is closed, only attendance
// committed after the closing instant may be reversed. Attendance that
// existed at closing time is frozen to protect the cook's planning.
func (r *Resident) CanRemove() bool {
	r.form.mu.Lock()
	defer r.form.mu.Unlock()
	return r.canRemoveLocked()
}

func (r *Resident) canRemoveLocked() bool {
	if !r.attending {
		return false
	}
	if !r.meal.closed {
		return true
	}
	if r.meal.closedAt.IsZero() || r.attendingAt.IsZero() {
		// Closed meal with incomplete timestamps falls through none of
		// the scenarios; freeze rather than guess.
		return false
	}
	return r.attendingAt.After(r.meal.closedAt)
}

// CanRemoveGuest reports whether the resident may withdraw a guest. Same
// window as CanRemove: guests added after the meal closed may still be
// withdrawn, guests present at closing time are frozen.
func (r *Resident) CanRemoveGuest() bool {
	r.form.mu.Lock()
	defer r.form.mu.Unlock()
	return r.canRemoveGuestLocked()
}

func (r *Resident) canRemoveGuestLocked() bool {
	hosted := r.form.guestsOfLocked(r.id)
	if len(hosted) == 0 {
		return false
	}
	if !r.meal.closed {
		return true
	}
	if r.meal.closedAt.IsZero() {
		return false
	}
	for _, g := range hosted {
		if g.createdAt.After(r.meal.closedAt) {
			return true
		}
	}
	return false
}

// ToggleAttending flips the resident between attending and not attending,
// optionally flipping the late/vegetarian flags in the same mutation.
//
// Guards, in order: a closed meal with no free extras cannot be joined,
// and a closed meal cannot be left unless CanRemove allows it. Both
// refuse silently with ErrPolicyRefused; no request is issued.
//
// A join decrements extras optimistically and, on commit, stamps the
// server's join time. A leave increments extras optimistically and, on
// commit, clears the late flag and the join time. Rejections restore the
// captured flags and undo exactly the extras delta that failed.
func (r *Resident) ToggleAttending(ctx context.Context, opts ToggleOptions) error {
	f := r.form

	f.mu.Lock()
	if r.meal.closed && !r.attending && !extrasAvailableLocked(r.meal.extras) {
		f.mu.Unlock()
		return ErrPolicyRefused
	}
	if r.meal.closed && r.attending && !r.canRemoveLocked() {
		f.mu.Unlock()
		return ErrPolicyRefused
	}
	joining := !r.attending
	f.mu.Unlock()

	var prevLate, prevVeg bool
	var late, veg bool
	var joinedAt time.Time

	if joining {
		return f.run(ctx, "join", transaction{
			apply: func() {
				prevLate, prevVeg = r.late, r.vegetarian
				r.attending = true
				if opts.Late {
					r.late = !r.late
				}
				if opts.ToggleVeg {
					r.vegetarian = !r.vegetarian
				}
				late, veg = r.late, r.vegetarian
				r.meal.decrementExtrasLocked()
			},
			request: func(ctx context.Context) error {
				at, err := f.backend.Join(ctx, r.meal.id, r.id, late, veg, f.sessionID)
				joinedAt = at
				return err
			},
			commit: func() {
				r.attendingAt = joinedAt
			},
			restore: func() {
				r.attending = false
				r.attendingAt = time.Time{}
				r.late, r.vegetarian = prevLate, prevVeg
				r.meal.incrementExtrasLocked()
			},
		})
	}

	return f.run(ctx, "leave", transaction{
		apply: func() {
			prevLate, prevVeg = r.late, r.vegetarian
			r.attending = false
			if opts.Late {
				r.late = !r.late
			}
			if opts.ToggleVeg {
				r.vegetarian = !r.vegetarian
			}
			r.meal.incrementExtrasLocked()
		},
		request: func(ctx context.Context) error {
			return f.backend.Leave(ctx, r.meal.id, r.id, f.sessionID)
		},
		commit: func() {
			r.late = false
			r.attendingAt = time.Time{}
		},
		restore: func() {
			r.attending = true
			r.late, r.vegetarian = prevLate, prevVeg
			r.meal.decrementExtrasLocked()
		},
	})
}

// ToggleLate flips the late flag. A resident who is not attending joins
// implicitly with the flag set.
func (r *Resident) ToggleLate(ctx context.Context) error {
	r.form.mu.Lock()
	if !r.attending {
		r.form.mu.Unlock()
		return r.ToggleAttending(ctx, ToggleOptions{Late: true})
	}
	r.form.mu.Unlock()

	var value bool
	return r.form.run(ctx, "toggle_late", transaction{
		apply: func() {
			r.late = !r.late
			value = r.late
		},
		request: func(ctx context.Context) error {
			return r.form.backend.UpdateFlags(ctx, r.meal.id, r.id, FlagUpdate{Late: &value}, r.form.sessionID)
		},
		restore: func() {
			r.late = !value
		},
	})
}

// ToggleVeg flips the vegetarian flag, with the same implicit-join rule
// as ToggleLate.
func (r *Resident) ToggleVeg(ctx context.Context) error {
	r.form.mu.Lock()
	if !r.attending {
		r.form.mu.Unlock()
		return r.ToggleAttending(ctx, ToggleOptions{ToggleVeg: true})
	}
	r.form.mu.Unlock()

	var value bool
	return r.form.run(ctx, "toggle_veg", transaction{
		apply: func() {
			r.vegetarian = !r.vegetarian
			value = r.vegetarian
		},
		request: func(ctx context.Context) error {
			return r.form.backend.UpdateFlags(ctx, r.meal.id, r.id, FlagUpdate{Vegetarian: &value}, r.form.sessionID)
		},
		restore: func() {
			r.vegetarian = !value
		},
	})
}

// AddGuest reserves a slot for a guest hosted by this resident. Extras is
// decremented optimistically; the guest row itself only appears in the
// ledger once the server has answered with its id and creation time.
func (r *Resident) AddGuest(ctx context.Context, opts GuestOptions) error {
	f := r.form
	var record GuestRecord

	return f.run(ctx, "add_guest", transaction{
		apply: func() {
			r.meal.decrementExtrasLocked()
		},
		request: func(ctx context.Context) error {
			rec, err := f.backend.AddGuest(ctx, r.meal.id, r.id, opts.Vegetarian, f.sessionID)
			record = rec
			return err
		},
		commit: func() {
			f.guests = append(f.guests, &Guest{
				form:       f,
				meal:       r.meal,
				id:         record.ID,
				residentID: r.id,
				vegetarian: record.Vegetarian,
				createdAt:  record.CreatedAt,
			})
		},
		restore: func() {
			r.meal.incrementExtrasLocked()
		},
	})
}

// RemoveGuest withdraws this resident's most recently added guest.
// Unlike AddGuest the removal is not applied speculatively: the ledger
// and extras only change after the server confirms the delete, so a
// rejection leaves nothing to undo.
func (r *Resident) RemoveGuest(ctx context.Context) error {
	f := r.form

	f.mu.Lock()
	if !r.canRemoveGuestLocked() {
		f.mu.Unlock()
		return ErrPolicyRefused
	}
	// Newest guest first; ties broken by higher id.
	target := f.guestsOfLocked(r.id)[0]
	f.mu.Unlock()

	if err := f.backend.RemoveGuest(ctx, r.meal.id, r.id, target.id, f.sessionID); err != nil {
		f.log.WithError(err).WithField("guest_id", target.id).Warn("Guest removal rejected")
		f.alert(err)
		return err
	}

	f.mu.Lock()
	f.removeGuestLocked(target.id)
	r.meal.incrementExtrasLocked()
	f.mu.Unlock()
	return nil
}

// extrasAvailableLocked is the join capacity guard for closed meals: nil
// extras means the ceiling was never set, which freezes joining just as
// zero extras does.
func extrasAvailableLocked(extras *int) bool {
	return extras != nil && *extras >= 1
}
