package domain

import "time"

// Resident is a member of a community. Attendance at a particular meal is
// recorded through MealResident, not on the resident itself.
type Resident struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"type:varchar(191);not null;uniqueIndex:idx_resident_name_community" json:"name"`
	Email          string    `gorm:"type:varchar(191);uniqueIndex:idx_resident_email" json:"email"`
	CommunityID    uint      `gorm:"not null;uniqueIndex:idx_resident_name_community" json:"community_id"`
	UnitID         uint      `gorm:"index;not null" json:"unit_id"`
	Vegetarian     bool      `gorm:"not null;default:false" json:"vegetarian"`
	CanCook        bool      `gorm:"not null;default:true" json:"can_cook"`
	Active         bool      `gorm:"not null;default:true" json:"active"`
	Multiplier     int       `gorm:"not null;default:2" json:"multiplier"`
	PasswordDigest string    `gorm:"type:text;not null" json:"-"`
	Birthday       time.Time `gorm:"type:date" json:"birthday"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"-"`
}
