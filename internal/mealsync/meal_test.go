package mealsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeal_MaxNilWhileOpen(t *testing.T) {
	form := NewForm(newFakeBackend(openMealSnapshot()), openMealSnapshot())

	assert.Nil(t, form.Meal().Max())
	assert.Nil(t, form.Meal().Extras())
	assert.False(t, form.Meal().Closed())
}

func TestMeal_MaxIsExtrasPlusAttendees(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	attendingAt := closedAt.Add(-time.Hour)
	// Max 4 with one attendee and no guests leaves three extras.
	snap := closedMealSnapshot(4, closedAt, attendingAt)
	form := NewForm(newFakeBackend(snap), snap)

	require.NotNil(t, form.Meal().Extras())
	assert.Equal(t, 3, *form.Meal().Extras())
	require.NotNil(t, form.Meal().Max())
	assert.Equal(t, 4, *form.Meal().Max())
	assert.Equal(t, 1, form.AttendeesCount())
}

func TestMeal_MaxNilWhenClosedWithoutCeiling(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	snap := openMealSnapshot()
	snap.Closed = true
	snap.ClosedAt = &closedAt
	form := NewForm(newFakeBackend(snap), snap)

	assert.Nil(t, form.Meal().Max())
}

func TestMeal_MaxTracksAttendanceChanges(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	snap := closedMealSnapshot(4, closedAt, closedAt.Add(-time.Hour))
	form := NewForm(newFakeBackend(snap), snap)

	// A second resident joins: one fewer extra, same ceiling.
	err := form.Resident(2).ToggleAttending(context.Background(), ToggleOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, *form.Meal().Extras())
	assert.Equal(t, 4, *form.Meal().Max())
}

func TestMeal_IncrementDecrementNoopWhenUnbounded(t *testing.T) {
	form := NewForm(newFakeBackend(openMealSnapshot()), openMealSnapshot())

	form.Meal().IncrementExtras()
	form.Meal().DecrementExtras()
	assert.Nil(t, form.Meal().Extras())
}

func TestMeal_SetExtrasSendsAbsoluteMax(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	snap := closedMealSnapshot(4, closedAt, closedAt.Add(-time.Hour))
	backend := newFakeBackend(snap)
	form := NewForm(backend, snap)

	err := form.Meal().SetExtras(context.Background(), intPtr(5))
	require.NoError(t, err)

	// One attendee, so the wire carries 5+1.
	require.NotNil(t, backend.lastMax)
	assert.Equal(t, 6, *backend.lastMax)
	assert.Equal(t, 5, *form.Meal().Extras())
}

func TestMeal_SetExtrasNilClearsCeiling(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	snap := closedMealSnapshot(4, closedAt, closedAt.Add(-time.Hour))
	backend := newFakeBackend(snap)
	form := NewForm(backend, snap)

	err := form.Meal().SetExtras(context.Background(), nil)
	require.NoError(t, err)

	assert.Nil(t, backend.lastMax)
	assert.Nil(t, form.Meal().Extras())
	assert.Nil(t, form.Meal().Max())
}

func TestMeal_SetExtrasRefusesNegative(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	snap := closedMealSnapshot(4, closedAt, closedAt.Add(-time.Hour))
	backend := newFakeBackend(snap)
	form := NewForm(backend, snap)

	err := form.Meal().SetExtras(context.Background(), intPtr(-1))
	assert.ErrorIs(t, err, ErrPolicyRefused)
	assert.Empty(t, backend.callNames())
	assert.Equal(t, 3, *form.Meal().Extras())
}

func TestMeal_SetExtrasRollsBackOnRejection(t *testing.T) {
	closedAt := time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	snap := closedMealSnapshot(4, closedAt, closedAt.Add(-time.Hour))
	backend := newFakeBackend(snap)
	backend.err = &RejectedError{Message: "Max can't be less than current number of attendees."}
	form := NewForm(backend, snap)

	var alerted string
	form.SetNotify(func(msg string) { alerted = msg })

	err := form.Meal().SetExtras(context.Background(), intPtr(0))
	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))

	assert.Equal(t, 3, *form.Meal().Extras())
	assert.Equal(t, "Max can't be less than current number of attendees.", alerted)
}

func TestMeal_ToggleClosedFlipsLocally(t *testing.T) {
	form := NewForm(newFakeBackend(openMealSnapshot()), openMealSnapshot())

	assert.True(t, form.Meal().ToggleClosed())
	assert.True(t, form.Meal().Closed())
	assert.False(t, form.Meal().ToggleClosed())
	assert.False(t, form.Meal().Closed())
}
