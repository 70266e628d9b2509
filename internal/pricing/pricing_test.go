package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDehydrationCostStepFunction(t *testing.T) {
	assert.Equal(t, 0, DehydrationCost(0))
	assert.Equal(t, 350, DehydrationCost(1))
	assert.Equal(t, 5*350, DehydrationCost(5))
	// At the threshold the whole quantity re-rates, so 6 trays cost less
	// per tray than 5.
	assert.Equal(t, 6*300, DehydrationCost(6))
	assert.Equal(t, 24*300, DehydrationCost(24))
}

func TestPackingCost(t *testing.T) {
	assert.Equal(t, 0, PackingCost(0))
	assert.Equal(t, 0, PackingCost(-3))
	assert.Equal(t, 70, PackingCost(7))
}

func TestVacuumCostPerLineBulkRate(t *testing.T) {
	assert.Equal(t, 0, VacuumCost(nil))
	assert.Equal(t, 5*30, VacuumCost([]int{5}))
	// 12 packets on one line tips that line into the bulk rate.
	assert.Equal(t, 12*25, VacuumCost([]int{12}))
	// Lines are rated independently, not pooled.
	assert.Equal(t, 5*30+12*25, VacuumCost([]int{5, 12}))
}

func TestFreezeDriedCostMinimumWeight(t *testing.T) {
	assert.Equal(t, 0, FreezeDriedCost(2, 49))
	assert.Equal(t, 2*50*2, FreezeDriedCost(2, 50))
	assert.Equal(t, 3*100*2, FreezeDriedCost(3, 100))
	assert.Equal(t, 0, FreezeDriedCost(0, 100))
}

func TestQuoteAppliesCreditUpToSubtotal(t *testing.T) {
	b := Quote(2, 5, nil, 0, 0, 1000)
	assert.Equal(t, 700, b.Dehydration)
	assert.Equal(t, 50, b.Packing)
	assert.Equal(t, 750, b.Subtotal)
	assert.Equal(t, 750, b.CreditApplied)
	assert.Equal(t, 0, b.Total)

	b = Quote(2, 5, nil, 0, 0, 200)
	assert.Equal(t, 200, b.CreditApplied)
	assert.Equal(t, 550, b.Total)

	b = Quote(2, 5, nil, 0, 0, 0)
	assert.Equal(t, 0, b.CreditApplied)
	assert.Equal(t, 750, b.Total)
}

func TestCreditForCancellationRoundsUp(t *testing.T) {
	assert.Equal(t, 0, CreditForCancellation(0))
	assert.Equal(t, 375, CreditForCancellation(750))
	assert.Equal(t, 1053, CreditForCancellation(2105))
}
