package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oosca/comeals-backend/internal/domain"
)

func intPtr(v int) *int { return &v }

func mealWith(multiplier, cost int, cap *int) *domain.Meal {
	return &domain.Meal{
		MealResidentsMultiplier: multiplier,
		Cost:                    cost,
		Cap:                     cap,
	}
}

func TestChecker_SingleBillBalances(t *testing.T) {
	meal := mealWith(3, 30, nil)
	bills := []domain.Bill{{AmountCents: 30}}
	checker := NewChecker(meal, bills)

	assert.Equal(t, 10, checker.UnitCost())
	assert.Equal(t, 30, checker.Collected())
	assert.Equal(t, 30, checker.ModifiedCost())
	assert.True(t, checker.Balanced())
	assert.Equal(t, 0, checker.Diff())
	assert.Empty(t, checker.WhatsWrong())
}

func TestChecker_RoundingKeepsBalance(t *testing.T) {
	// 100 cents across 3 units rounds the unit cost up to 34; both sides
	// of the ledger use the rounded figure, so they still agree.
	meal := mealWith(3, 100, nil)
	bills := []domain.Bill{{AmountCents: 100}}
	checker := NewChecker(meal, bills)

	assert.Equal(t, 34, checker.UnitCost())
	assert.Equal(t, 102, checker.Collected())
	assert.Equal(t, 102, checker.ModifiedCost())
	assert.True(t, checker.Balanced())
}

func TestChecker_DiffIsCollectedMinusModified(t *testing.T) {
	tests := []struct {
		name       string
		multiplier int
		bills      []domain.Bill
	}{
		{"no bills", 4, nil},
		{"one bill", 5, []domain.Bill{{AmountCents: 1234}}},
		{"two bills", 7, []domain.Bill{{AmountCents: 990}, {AmountCents: 515}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker(mealWith(tt.multiplier, 0, nil), tt.bills)
			assert.Equal(t, checker.Collected()-checker.ModifiedCost(), checker.Diff())
			assert.Equal(t, checker.Diff() == 0, checker.Balanced())
		})
	}
}

func TestChecker_Subsidized(t *testing.T) {
	// cap=15, multiplier=4, cost=70: the cap only allows collecting 60.
	checker := NewChecker(mealWith(4, 70, intPtr(15)), nil)
	maxCost, capped := checker.MaxCost()
	assert.True(t, capped)
	assert.Equal(t, 60, maxCost)
	assert.True(t, checker.Subsidized())
}

func TestChecker_SubsidizedFalseWhenUnderCap(t *testing.T) {
	checker := NewChecker(mealWith(4, 60, intPtr(15)), nil)
	assert.False(t, checker.Subsidized())
}

func TestChecker_SubsidizedFalseWhenUncapped(t *testing.T) {
	checker := NewChecker(mealWith(4, 100000, nil), nil)
	_, capped := checker.MaxCost()
	assert.False(t, capped)
	assert.False(t, checker.Subsidized())
}

func TestChecker_SubsidizedFalseWithoutAttendance(t *testing.T) {
	checker := NewChecker(mealWith(0, 70, intPtr(15)), nil)
	assert.False(t, checker.Subsidized())
}

func TestChecker_NaiveUnitCostRoundsUp(t *testing.T) {
	checker := NewChecker(mealWith(3, 70, nil), nil)
	assert.Equal(t, 24, checker.NaiveUnitCost())

	exact := NewChecker(mealWith(4, 80, nil), nil)
	assert.Equal(t, 20, exact.NaiveUnitCost())
}

func TestChecker_WhatsWrongEmptyWhenBalanced(t *testing.T) {
	checker := NewChecker(mealWith(2, 0, nil), []domain.Bill{{AmountCents: 500}})
	assert.True(t, checker.Balanced())
	assert.Empty(t, checker.WhatsWrong())
}
