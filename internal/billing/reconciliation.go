// Package billing derives the cost-reconciliation figures for a meal from
// its committed attendance and cook bills, and checks that what residents
// are charged balances what cooks are reimbursed.
package billing

import (
	"fmt"

	"github.com/oosca/comeals-backend/internal/domain"
)

// Checker computes reconciliation figures for one meal. It is a pure view
// over already-committed state; nothing here mutates.
type Checker struct {
	meal  *domain.Meal
	bills []domain.Bill
}

// NewChecker builds a checker over a meal and its bills.
func NewChecker(meal *domain.Meal, bills []domain.Bill) *Checker {
	return &Checker{meal: meal, bills: bills}
}

// Multiplier is the weighted count of attendees plus guests.
func (c *Checker) Multiplier() int {
	return c.meal.Multiplier()
}

// UnitCost is the per-unit charge: the sum of each bill's unit cost.
func (c *Checker) UnitCost() int {
	total := 0
	for i := range c.bills {
		total += c.bills[i].UnitCost(c.Multiplier())
	}
	return total
}

// Collected is the amount charged to attendees in total.
func (c *Checker) Collected() int {
	return c.UnitCost() * c.Multiplier()
}

// ModifiedCost is the amount given back to cooks in total.
func (c *Checker) ModifiedCost() int {
	total := 0
	for i := range c.bills {
		total += c.bills[i].ReimburseableAmount(c.Multiplier())
	}
	return total
}

// Balanced reports whether collection and reimbursement agree. It recomputes
// both sides rather than testing Diff against zero, so a bug in either
// derivation shows up as an imbalance instead of cancelling out.
func (c *Checker) Balanced() bool {
	return c.ModifiedCost() == c.Collected()
}

// Diff is collected minus distributed. Positive means residents were charged
// more than cooks were reimbursed; negative the reverse.
func (c *Checker) Diff() int {
	return c.Collected() - c.ModifiedCost()
}

// WhatsWrong renders the imbalance direction for humans. Empty when balanced.
func (c *Checker) WhatsWrong() string {
	diff := c.Diff()
	if diff == 0 {
		return ""
	}
	if diff > 0 {
		return fmt.Sprintf("%d more collected than given to cooks.", diff)
	}
	return fmt.Sprintf("%d more given to cooks than collected.", diff)
}

// MaxCost is the spending ceiling for the meal: cap times multiplier.
// The second return is false when the meal is uncapped.
func (c *Checker) MaxCost() (int, bool) {
	if c.meal.Cap == nil {
		return 0, false
	}
	return *c.meal.Cap * c.Multiplier(), true
}

// Subsidized reports whether the meal's accrued cost exceeded what the cap
// allows collecting. Always false for uncapped or unattended meals.
func (c *Checker) Subsidized() bool {
	if c.Multiplier() == 0 {
		return false
	}
	maxCost, capped := c.MaxCost()
	if !capped {
		return false
	}
	return c.meal.Cost > maxCost
}

// NaiveUnitCost estimates the per-unit charge before bills exist, rounding
// the accrued cost up. The multiplier must be positive; callers guard.
func (c *Checker) NaiveUnitCost() int {
	m := c.Multiplier()
	return (c.meal.Cost + m - 1) / m
}
