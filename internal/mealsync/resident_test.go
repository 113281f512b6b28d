package mealsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResident_ToggleTwiceRestoresExtras(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	snap := closedMealSnapshot(4, closedAt, closedAt.Add(-time.Hour))
	backend := newFakeBackend(snap)
	form := NewForm(backend, snap)
	grace := form.Resident(2)

	require.NoError(t, grace.ToggleAttending(context.Background(), ToggleOptions{}))
	assert.True(t, grace.Attending())
	assert.Equal(t, 2, *form.Meal().Extras())
	assert.Equal(t, backend.joinAt, grace.AttendingAt())

	require.NoError(t, grace.ToggleAttending(context.Background(), ToggleOptions{}))
	assert.False(t, grace.Attending())
	assert.Equal(t, 3, *form.Meal().Extras())
	assert.True(t, grace.AttendingAt().IsZero())
	assert.Equal(t, []string{"join", "leave"}, backend.callNames())
}

func TestResident_JoinRejectionRollsBackEverything(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	snap := closedMealSnapshot(6, closedAt, closedAt.Add(-time.Hour))
	backend := newFakeBackend(snap)
	backend.err = &RejectedError{Message: "Meal is full."}
	form := NewForm(backend, snap)
	grace := form.Resident(2)

	var alerted string
	form.SetNotify(func(msg string) { alerted = msg })

	err := grace.ToggleAttending(context.Background(), ToggleOptions{Late: true})
	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))

	// Attendance, flags and extras all back where they started.
	assert.False(t, grace.Attending())
	assert.False(t, grace.Late())
	assert.Equal(t, 5, *form.Meal().Extras())
	assert.Equal(t, "Meal is full.", alerted)
}

func TestResident_TransportFailureUsesGenericMessage(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	snap := closedMealSnapshot(6, closedAt, closedAt.Add(-time.Hour))
	backend := newFakeBackend(snap)
	backend.err = errors.New("connection refused")
	form := NewForm(backend, snap)

	var alerted string
	form.SetNotify(func(msg string) { alerted = msg })

	err := form.Resident(2).ToggleAttending(context.Background(), ToggleOptions{})
	require.Error(t, err)
	assert.Equal(t, "Could not reach the server. Your change was not saved.", alerted)
	assert.Equal(t, 5, *form.Meal().Extras())
}

func TestResident_ClosedMealWithoutExtrasRefusesJoin(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	// Max 1 with one attendee leaves zero extras.
	snap := closedMealSnapshot(1, closedAt, closedAt.Add(-time.Hour))
	backend := newFakeBackend(snap)
	form := NewForm(backend, snap)

	err := form.Resident(2).ToggleAttending(context.Background(), ToggleOptions{})
	assert.ErrorIs(t, err, ErrPolicyRefused)
	assert.Empty(t, backend.callNames())
	assert.False(t, form.Resident(2).Attending())
}

func TestResident_ClosedMealWithNilExtrasRefusesJoin(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	snap := openMealSnapshot()
	snap.Closed = true
	snap.ClosedAt = &closedAt
	backend := newFakeBackend(snap)
	form := NewForm(backend, snap)

	err := form.Resident(2).ToggleAttending(context.Background(), ToggleOptions{})
	assert.ErrorIs(t, err, ErrPolicyRefused)
	assert.Empty(t, backend.callNames())
}

func TestResident_FrozenAttendanceCannotLeave(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	// Ada joined before closing, so her attendance is frozen.
	snap := closedMealSnapshot(4, closedAt, closedAt.Add(-time.Hour))
	backend := newFakeBackend(snap)
	form := NewForm(backend, snap)
	ada := form.Resident(1)

	assert.False(t, ada.CanRemove())
	err := ada.ToggleAttending(context.Background(), ToggleOptions{})
	assert.ErrorIs(t, err, ErrPolicyRefused)
	assert.True(t, ada.Attending())
	assert.Empty(t, backend.callNames())
}

func TestResident_LateJoinerMayStillLeave(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	snap := closedMealSnapshot(4, closedAt, closedAt.Add(time.Minute))
	backend := newFakeBackend(snap)
	form := NewForm(backend, snap)
	ada := form.Resident(1)

	assert.True(t, ada.CanRemove())
	require.NoError(t, ada.ToggleAttending(context.Background(), ToggleOptions{}))
	assert.False(t, ada.Attending())
}

func TestResident_CanRemoveFalseWhenNotAttending(t *testing.T) {
	form := NewForm(newFakeBackend(openMealSnapshot()), openMealSnapshot())
	assert.False(t, form.Resident(2).CanRemove())
}

func TestResident_CanRemoveTrueWhileOpen(t *testing.T) {
	at := time.Date(2026, 3, 9, 19, 0, 0, 0, time.UTC)
	snap := openMealSnapshot()
	snap.Residents[0].Attending = true
	snap.Residents[0].AttendingAt = &at
	form := NewForm(newFakeBackend(snap), snap)
	assert.True(t, form.Resident(1).CanRemove())
}

func TestResident_ToggleLateJoinsImplicitly(t *testing.T) {
	snap := openMealSnapshot()
	backend := newFakeBackend(snap)
	form := NewForm(backend, snap)
	grace := form.Resident(2)

	require.NoError(t, grace.ToggleLate(context.Background()))

	assert.True(t, grace.Attending())
	assert.True(t, grace.Late())
	assert.Equal(t, []string{"join"}, backend.callNames())
}

func TestResident_ToggleLateFlipsWhenAttending(t *testing.T) {
	at := time.Date(2026, 3, 9, 19, 0, 0, 0, time.UTC)
	snap := openMealSnapshot()
	snap.Residents[0].Attending = true
	snap.Residents[0].AttendingAt = &at
	backend := newFakeBackend(snap)
	form := NewForm(backend, snap)
	ada := form.Resident(1)

	require.NoError(t, ada.ToggleLate(context.Background()))
	assert.True(t, ada.Late())
	require.NotNil(t, backend.lastFlags.Late)
	assert.True(t, *backend.lastFlags.Late)
	assert.Nil(t, backend.lastFlags.Vegetarian)

	require.NoError(t, ada.ToggleLate(context.Background()))
	assert.False(t, ada.Late())
}

func TestResident_ToggleVegRollsBackOnRejection(t *testing.T) {
	at := time.Date(2026, 3, 9, 19, 0, 0, 0, time.UTC)
	snap := openMealSnapshot()
	snap.Residents[0].Attending = true
	snap.Residents[0].AttendingAt = &at
	backend := newFakeBackend(snap)
	form := NewForm(backend, snap)
	ada := form.Resident(1)

	backend.err = &RejectedError{Message: "Meal is already reconciled."}
	err := ada.ToggleVeg(context.Background())
	require.Error(t, err)
	assert.False(t, ada.Vegetarian())
}

func TestResident_LeaveClearsLateOnCommit(t *testing.T) {
	at := time.Date(2026, 3, 9, 19, 0, 0, 0, time.UTC)
	snap := openMealSnapshot()
	snap.Residents[0].Attending = true
	snap.Residents[0].AttendingAt = &at
	snap.Residents[0].Late = true
	backend := newFakeBackend(snap)
	form := NewForm(backend, snap)
	ada := form.Resident(1)

	require.NoError(t, ada.ToggleAttending(context.Background(), ToggleOptions{}))
	assert.False(t, ada.Attending())
	assert.False(t, ada.Late())
}
