package mealsync

import (
	"context"
	"sync"
	"time"
)

// fakeBackend is a scriptable in-memory Backend. Each mutation records the
// call and answers with the configured result; no state machine behind it,
// the tests assert on the Form's local state.
type fakeBackend struct {
	mu sync.Mutex

	snapshot *MealSnapshot

	joinAt      time.Time
	guestAt     time.Time
	nextGuestID uint

	// err, when set, is returned by every mutation.
	err error

	calls      []string
	lastMax    *int
	lastFlags  FlagUpdate
	lastGuest  uint
	sessionIDs []string
}

func newFakeBackend(snapshot *MealSnapshot) *fakeBackend {
	return &fakeBackend{
		snapshot:    snapshot,
		joinAt:      time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
		guestAt:     time.Date(2026, 3, 10, 18, 5, 0, 0, time.UTC),
		nextGuestID: 100,
	}
}

func (b *fakeBackend) record(call, sessionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
	b.sessionIDs = append(b.sessionIDs, sessionID)
	return b.err
}

func (b *fakeBackend) callNames() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.calls))
	copy(out, b.calls)
	return out
}

func (b *fakeBackend) GetMeal(ctx context.Context, mealID uint) (*MealSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, "get_meal")
	if b.err != nil {
		return nil, b.err
	}
	return b.snapshot, nil
}

func (b *fakeBackend) UpdateMax(ctx context.Context, mealID uint, max *int, sessionID string) error {
	if err := b.record("update_max", sessionID); err != nil {
		return err
	}
	b.mu.Lock()
	b.lastMax = copyIntPtr(max)
	b.mu.Unlock()
	return nil
}

func (b *fakeBackend) Join(ctx context.Context, mealID, residentID uint, late, vegetarian bool, sessionID string) (time.Time, error) {
	if err := b.record("join", sessionID); err != nil {
		return time.Time{}, err
	}
	return b.joinAt, nil
}

func (b *fakeBackend) Leave(ctx context.Context, mealID, residentID uint, sessionID string) error {
	return b.record("leave", sessionID)
}

func (b *fakeBackend) UpdateFlags(ctx context.Context, mealID, residentID uint, update FlagUpdate, sessionID string) error {
	if err := b.record("update_flags", sessionID); err != nil {
		return err
	}
	b.mu.Lock()
	b.lastFlags = update
	b.mu.Unlock()
	return nil
}

func (b *fakeBackend) AddGuest(ctx context.Context, mealID, residentID uint, vegetarian bool, sessionID string) (GuestRecord, error) {
	if err := b.record("add_guest", sessionID); err != nil {
		return GuestRecord{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextGuestID++
	return GuestRecord{ID: b.nextGuestID, Vegetarian: vegetarian, CreatedAt: b.guestAt}, nil
}

func (b *fakeBackend) RemoveGuest(ctx context.Context, mealID, residentID, guestID uint, sessionID string) error {
	if err := b.record("remove_guest", sessionID); err != nil {
		return err
	}
	b.mu.Lock()
	b.lastGuest = guestID
	b.mu.Unlock()
	return nil
}

func intPtr(v int) *int { return &v }

// openMealSnapshot is a two-resident open meal with no ceiling.
func openMealSnapshot() *MealSnapshot {
	return &MealSnapshot{
		ID:          42,
		Date:        time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Description: "Taco night",
		Residents: []ResidentSnapshot{
			{ID: 1, Name: "Ada", Active: true},
			{ID: 2, Name: "Grace", Active: true},
		},
	}
}

// closedMealSnapshot closes the meal at closedAt with the given absolute
// max and one resident already attending since attendingAt.
func closedMealSnapshot(max int, closedAt, attendingAt time.Time) *MealSnapshot {
	return &MealSnapshot{
		ID:       42,
		Date:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Closed:   true,
		ClosedAt: &closedAt,
		Max:      intPtr(max),
		Residents: []ResidentSnapshot{
			{ID: 1, Name: "Ada", Attending: true, AttendingAt: &attendingAt, Active: true},
			{ID: 2, Name: "Grace", Active: true},
		},
	}
}
