package mealsync

import "time"

// Guest is one reservation in the guest ledger, tied to its hosting
// resident and meal by direct reference.
type Guest struct {
	form *Form
	meal *Meal

	id         uint
	residentID uint
	name       *string
	vegetarian bool
	createdAt  time.Time
}

func (g *Guest) ID() uint             { return g.id }
func (g *Guest) ResidentID() uint     { return g.residentID }
func (g *Guest) Vegetarian() bool     { return g.vegetarian }
func (g *Guest) CreatedAt() time.Time { return g.createdAt }

// Name returns the guest's name, nil until the host has filled it in.
func (g *Guest) Name() *string {
	g.form.mu.Lock()
	defer g.form.mu.Unlock()
	return copyStringPtr(g.name)
}
