package domain

import "time"

// Community groups residents and meals. It is referenced throughout but not
// managed here; rows are provisioned out of band.
type Community struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(191);uniqueIndex;not null" json:"name"`
	Cap  *int   `json:"cap"` // default per-attendee cost ceiling for new meals, cents

	// AlternatingDinnerDay is the weekday (0 = Sunday, 1 = Monday) of the
	// common dinner that alternates week to week. Tuesday and Thursday
	// dinners are fixed.
	AlternatingDinnerDay int `gorm:"not null;default:0" json:"alternating_dinner_day"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

// Holiday is a date on which no meal template is generated.
type Holiday struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CommunityID uint      `gorm:"index;not null" json:"community_id"`
	Date        time.Time `gorm:"type:date;not null" json:"date"`
	Description string    `gorm:"type:varchar(191);not null;default:''" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
}
