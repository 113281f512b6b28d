package domain

import "time"

// Meal is one common dinner on the community calendar. Capacity is tracked
// through Max: nil while the meal is open (no ceiling), and a snapshot of
// extras + attendees once the meal has been closed by a cook.
type Meal struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Date        time.Time  `gorm:"type:date;not null;index" json:"date"`
	Description string     `gorm:"type:text;not null;default:''" json:"description"`
	Cap         *int       `json:"cap"` // per-attendee cost ceiling in cents, nil = uncapped
	Max         *int       `json:"max"` // total attendee ceiling, nil while open
	Closed      bool       `gorm:"not null;default:false" json:"closed"`
	ClosedAt    *time.Time `json:"closed_at"`

	// Counter caches, maintained by the attendance and guest repositories.
	MealResidentsCount      int `gorm:"not null;default:0" json:"meal_residents_count"`
	GuestsCount             int `gorm:"not null;default:0" json:"guests_count"`
	MealResidentsMultiplier int `gorm:"not null;default:0" json:"meal_residents_multiplier"`
	GuestsMultiplier        int `gorm:"not null;default:0" json:"guests_multiplier"`
	BillsCount              int `gorm:"not null;default:0" json:"bills_count"`

	// Cost is the accrued amount distributed to cooks, in cents.
	Cost int `gorm:"not null;default:0" json:"cost"`

	CommunityID      uint  `gorm:"index;not null" json:"community_id"`
	ReconciliationID *uint `gorm:"index" json:"reconciliation_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

// AttendeesCount is the number of mouths to feed: attending residents plus
// hosted guests.
func (m *Meal) AttendeesCount() int {
	return m.MealResidentsCount + m.GuestsCount
}

// Multiplier is the weighted attendance used for cost splitting.
func (m *Meal) Multiplier() int {
	return m.MealResidentsMultiplier + m.GuestsMultiplier
}

// Extras is the number of open slots beyond current attendees. It is nil
// whenever Max is nil (unbounded or not yet set).
func (m *Meal) Extras() *int {
	if m.Max == nil {
		return nil
	}
	extras := *m.Max - m.AttendeesCount()
	return &extras
}

// Reconciled reports whether the meal has been folded into a reconciliation.
func (m *Meal) Reconciled() bool {
	return m.ReconciliationID != nil
}
