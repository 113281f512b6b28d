package domain

import "time"

// MealAudit is one row of the meal change log, persisted out of band by the
// worker so the request path never waits on it.
type MealAudit struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	MealID     uint      `gorm:"index;not null" json:"meal_id"`
	ResidentID uint      `gorm:"index" json:"resident_id"` // 0 for system changes
	Change     string    `gorm:"type:varchar(64);not null" json:"change"`
	Detail     string    `gorm:"type:text;not null;default:''" json:"detail"`
	SessionID  string    `gorm:"type:varchar(64);not null;default:''" json:"session_id"`
	OccurredAt time.Time `gorm:"index;not null" json:"occurred_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"-"`
}
