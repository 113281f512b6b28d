package domain

import "time"

// MealResident records one resident's attendance at one meal. The pair is
// unique: a resident attends a meal at most once. AttendingAt is the server
// commit time of the join and drives the closed-window removal policy
// (attendance that existed when the meal closed is frozen).
type MealResident struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	MealID      uint      `gorm:"not null;uniqueIndex:idx_meal_resident" json:"meal_id"`
	ResidentID  uint      `gorm:"not null;uniqueIndex:idx_meal_resident;index" json:"resident_id"`
	CommunityID uint      `gorm:"index;not null" json:"community_id"`
	Late        bool      `gorm:"not null;default:false" json:"late"`
	Vegetarian  bool      `gorm:"not null;default:false" json:"vegetarian"`
	Multiplier  int       `gorm:"not null;default:1" json:"multiplier"`
	AttendingAt time.Time `gorm:"not null" json:"attending_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"-"`
}

// Removable reports whether this attendance may still be withdrawn given the
// meal's closed state. Open meals always allow removal; closed meals only
// allow removal of attendance committed after the closing instant.
func (a *MealResident) Removable(meal *Meal) bool {
	if !meal.Closed {
		return true
	}
	if meal.ClosedAt == nil {
		return false
	}
	return a.AttendingAt.After(*meal.ClosedAt)
}
