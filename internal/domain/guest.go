package domain

import "time"

// Guest is a reservation a resident holds on behalf of someone outside the
// community. Guests belong to exactly one meal and one hosting resident;
// the name stays nil until the host fills it in.
type Guest struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	MealID      uint      `gorm:"index;not null" json:"meal_id"`
	ResidentID  uint      `gorm:"index;not null" json:"resident_id"`
	CommunityID uint      `gorm:"index;not null" json:"community_id"`
	Name        *string   `gorm:"type:varchar(191)" json:"name"`
	Vegetarian  bool      `gorm:"not null;default:false" json:"vegetarian"`
	Multiplier  int       `gorm:"not null;default:1" json:"multiplier"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"-"`
}

// Removable reports whether this guest may still be withdrawn given the
// meal's closed state. Guests present at closing time are frozen.
func (g *Guest) Removable(meal *Meal) bool {
	if !meal.Closed {
		return true
	}
	if meal.ClosedAt == nil {
		return false
	}
	return g.CreatedAt.After(*meal.ClosedAt)
}
