package domain

import "time"

// Reconciliation is one settlement batch: every meal dated before CutoffDate
// that had not been settled yet gets stamped with this row's id, freezing its
// attendance and bills for good.
type Reconciliation struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CommunityID uint      `gorm:"index;not null" json:"community_id"`
	CutoffDate  time.Time `gorm:"type:date;not null" json:"cutoff_date"`
	MealsCount  int       `gorm:"not null;default:0" json:"meals_count"`
	TotalCost   int       `gorm:"not null;default:0" json:"total_cost"` // cents
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
