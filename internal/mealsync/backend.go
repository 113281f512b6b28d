package mealsync

import (
	"context"
	"time"
)

// FlagUpdate carries a partial attendance-flag change. Nil fields are left
// untouched by the server.
type FlagUpdate struct {
	Late       *bool
	Vegetarian *bool
}

// GuestRecord is what the server hands back for a newly created guest.
type GuestRecord struct {
	ID         uint
	Vegetarian bool
	CreatedAt  time.Time
}

// MealSnapshot is the authoritative state of a meal as served by the
// backend, used both to seed a Form and to reload it after an
// invalidation.
type MealSnapshot struct {
	ID          uint       `json:"id"`
	Date        time.Time  `json:"date"`
	Description string     `json:"description"`
	Cap         *int       `json:"cap"`
	Max         *int       `json:"max"`
	Closed      bool       `json:"closed"`
	ClosedAt    *time.Time `json:"closed_at"`
	Cost        int        `json:"cost"`

	Residents []ResidentSnapshot `json:"residents"`
	Guests    []GuestSnapshot    `json:"guests"`
}

// ResidentSnapshot is one resident's view state within a meal snapshot.
type ResidentSnapshot struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Attending   bool       `json:"attending"`
	AttendingAt *time.Time `json:"attending_at"`
	Late        bool       `json:"late"`
	Vegetarian  bool       `json:"vegetarian"`
	CanCook     bool       `json:"can_cook"`
	Active      bool       `json:"active"`
}

// GuestSnapshot is one guest reservation within a meal snapshot.
type GuestSnapshot struct {
	ID         uint      `json:"id"`
	ResidentID uint      `json:"resident_id"`
	Name       *string   `json:"name"`
	Vegetarian bool      `json:"vegetarian"`
	CreatedAt  time.Time `json:"created_at"`
}

// Backend is the authoritative server consumed by the sync engine. Every
// mutation carries the caller's opaque session identifier so the server can
// tag the resulting invalidation broadcast with it.
//
// A rejected mutation comes back as *RejectedError carrying the server's
// message; any other error is a transport failure. Both roll local state
// back; only the surfaced message differs.
type Backend interface {
	// GetMeal loads the full authoritative state of a meal.
	GetMeal(ctx context.Context, mealID uint) (*MealSnapshot, error)

	// UpdateMax sets the meal's absolute attendee ceiling. Nil clears it.
	UpdateMax(ctx context.Context, mealID uint, max *int, sessionID string) error

	// Join adds the resident to the meal and returns the commit time.
	Join(ctx context.Context, mealID, residentID uint, late, vegetarian bool, sessionID string) (time.Time, error)

	// Leave removes the resident from the meal.
	Leave(ctx context.Context, mealID, residentID uint, sessionID string) error

	// UpdateFlags changes the late/vegetarian flags of an attendance.
	UpdateFlags(ctx context.Context, mealID, residentID uint, update FlagUpdate, sessionID string) error

	// AddGuest creates a guest hosted by the resident.
	AddGuest(ctx context.Context, mealID, residentID uint, vegetarian bool, sessionID string) (GuestRecord, error)

	// RemoveGuest deletes a guest by id.
	RemoveGuest(ctx context.Context, mealID, residentID, guestID uint, sessionID string) error
}
