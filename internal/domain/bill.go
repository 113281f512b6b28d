package domain

import "time"

// Bill is one cook's claim on a meal. A resident cooks a meal at most once,
// so the meal+resident pair is unique. Amounts are stored in cents.
type Bill struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	MealID         uint      `gorm:"not null;uniqueIndex:idx_bill_meal_resident" json:"meal_id"`
	ResidentID     uint      `gorm:"not null;uniqueIndex:idx_bill_meal_resident;index" json:"resident_id"`
	CommunityID    uint      `gorm:"index;not null" json:"community_id"`
	AmountCents    int       `gorm:"not null;default:0" json:"amount_cents"`
	AmountCurrency string    `gorm:"type:varchar(8);not null;default:'USD'" json:"amount_currency"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"-"`
}

// UnitCost is what each attendance unit is charged for this bill: the bill
// amount divided across the meal's multiplier, rounded up to a whole cent.
// Undefined for a zero multiplier; callers must guard.
func (b *Bill) UnitCost(multiplier int) int {
	if multiplier <= 0 {
		return 0
	}
	return (b.AmountCents + multiplier - 1) / multiplier
}

// ReimburseableAmount is what the cook gets back: the rounded-up unit cost
// times the multiplier. Rounding makes this >= AmountCents, which is where
// collected-versus-distributed drift comes from.
func (b *Bill) ReimburseableAmount(multiplier int) int {
	return b.UnitCost(multiplier) * multiplier
}
