package mealsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuest_AddDecrementsExtrasAndAppendsOnCommit(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	snap := closedMealSnapshot(4, closedAt, closedAt.Add(-time.Hour))
	backend := newFakeBackend(snap)
	form := NewForm(backend, snap)
	ada := form.Resident(1)

	require.NoError(t, ada.AddGuest(context.Background(), GuestOptions{Vegetarian: true}))

	assert.Equal(t, 2, *form.Meal().Extras())
	require.Equal(t, 1, ada.GuestsCount())
	guest := ada.Guests()[0]
	assert.True(t, guest.Vegetarian())
	assert.Equal(t, backend.guestAt, guest.CreatedAt())
	// Max is unchanged: one more attendee, one fewer extra.
	assert.Equal(t, 4, *form.Meal().Max())
}

func TestGuest_AddRollsBackExtrasOnRejection(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	snap := closedMealSnapshot(4, closedAt, closedAt.Add(-time.Hour))
	backend := newFakeBackend(snap)
	backend.err = &RejectedError{Message: "Meal is full."}
	form := NewForm(backend, snap)
	ada := form.Resident(1)

	err := ada.AddGuest(context.Background(), GuestOptions{})
	require.Error(t, err)
	assert.Equal(t, 3, *form.Meal().Extras())
	assert.Zero(t, ada.GuestsCount())
}

func TestGuest_CanRemoveGuestFalseWithNoGuests(t *testing.T) {
	form := NewForm(newFakeBackend(openMealSnapshot()), openMealSnapshot())
	assert.False(t, form.Resident(1).CanRemoveGuest())

	err := form.Resident(1).RemoveGuest(context.Background())
	assert.ErrorIs(t, err, ErrPolicyRefused)
}

func TestGuest_RemoveTakesNewestFirst(t *testing.T) {
	snap := openMealSnapshot()
	base := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	snap.Guests = []GuestSnapshot{
		{ID: 10, ResidentID: 1, CreatedAt: base},
		{ID: 11, ResidentID: 1, CreatedAt: base.Add(time.Minute)},
		{ID: 12, ResidentID: 2, CreatedAt: base.Add(2 * time.Minute)},
	}
	backend := newFakeBackend(snap)
	form := NewForm(backend, snap)
	ada := form.Resident(1)

	require.NoError(t, ada.RemoveGuest(context.Background()))

	// Ada's newest guest goes first; Grace's guest is untouched.
	assert.Equal(t, uint(11), backend.lastGuest)
	assert.Equal(t, 1, ada.GuestsCount())
	assert.Equal(t, uint(10), ada.Guests()[0].ID())
	assert.Equal(t, 1, form.Resident(2).GuestsCount())
}

func TestGuest_RemoveBreaksTimestampTiesByHigherID(t *testing.T) {
	snap := openMealSnapshot()
	at := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	snap.Guests = []GuestSnapshot{
		{ID: 10, ResidentID: 1, CreatedAt: at},
		{ID: 11, ResidentID: 1, CreatedAt: at},
	}
	backend := newFakeBackend(snap)
	form := NewForm(backend, snap)

	require.NoError(t, form.Resident(1).RemoveGuest(context.Background()))
	assert.Equal(t, uint(11), backend.lastGuest)
}

func TestGuest_FrozenGuestsCannotBeRemovedAfterClosing(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	snap := closedMealSnapshot(4, closedAt, closedAt.Add(-time.Hour))
	snap.Guests = []GuestSnapshot{
		{ID: 10, ResidentID: 1, CreatedAt: closedAt.Add(-time.Minute)},
	}
	backend := newFakeBackend(snap)
	form := NewForm(backend, snap)
	ada := form.Resident(1)

	assert.False(t, ada.CanRemoveGuest())
	err := ada.RemoveGuest(context.Background())
	assert.ErrorIs(t, err, ErrPolicyRefused)
	assert.Equal(t, 1, ada.GuestsCount())
	assert.Empty(t, backend.callNames())
}

func TestGuest_GuestAddedAfterClosingMayBeRemoved(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	snap := closedMealSnapshot(4, closedAt, closedAt.Add(-time.Hour))
	snap.Guests = []GuestSnapshot{
		{ID: 10, ResidentID: 1, CreatedAt: closedAt.Add(time.Minute)},
	}
	backend := newFakeBackend(snap)
	form := NewForm(backend, snap)
	ada := form.Resident(1)

	assert.True(t, ada.CanRemoveGuest())
	require.NoError(t, ada.RemoveGuest(context.Background()))
	assert.Zero(t, ada.GuestsCount())
}

func TestGuest_RemoveIncrementsExtrasOnlyAfterConfirm(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	snap := closedMealSnapshot(4, closedAt, closedAt.Add(-time.Hour))
	snap.Guests = []GuestSnapshot{
		{ID: 10, ResidentID: 1, CreatedAt: closedAt.Add(time.Minute)},
	}
	backend := newFakeBackend(snap)
	backend.err = &RejectedError{Message: "Meal is already reconciled."}
	form := NewForm(backend, snap)
	ada := form.Resident(1)

	var alerted string
	form.SetNotify(func(msg string) { alerted = msg })

	// Max 4 minus one attendee and one guest leaves two extras.
	require.Error(t, ada.RemoveGuest(context.Background()))
	assert.Equal(t, 2, *form.Meal().Extras())
	assert.Equal(t, 1, ada.GuestsCount())
	assert.Equal(t, "Meal is already reconciled.", alerted)
}

func TestGuest_LedgerSortedNewestFirst(t *testing.T) {
	snap := openMealSnapshot()
	base := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	snap.Guests = []GuestSnapshot{
		{ID: 10, ResidentID: 1, CreatedAt: base},
		{ID: 12, ResidentID: 2, CreatedAt: base.Add(2 * time.Minute)},
		{ID: 11, ResidentID: 1, CreatedAt: base.Add(time.Minute)},
	}
	form := NewForm(newFakeBackend(snap), snap)

	guests := form.Guests()
	require.Len(t, guests, 3)
	assert.Equal(t, uint(12), guests[0].ID())
	assert.Equal(t, uint(11), guests[1].ID())
	assert.Equal(t, uint(10), guests[2].ID())
}
