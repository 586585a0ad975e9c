package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/types"
)

func qty(v int64) types.Quantity { return types.NewQuantityFromInt(v) }

func TestNextUnitCost_WeightedAverage(t *testing.T) {
	tests := []struct {
		name     string
		oldQty   types.Quantity
		oldCost  string
		moveQty  types.Quantity
		moveCost string
		want     string
	}{
		{"receipt blends into average", qty(100), "10", qty(50), "16", "12"},
		{"first receipt adopts incoming cost", qty(0), "0", qty(10), "7.5", "7.5"},
		{"equal quantities average evenly", qty(10), "10", qty(10), "20", "15"},
		{"fractional result is rounded to cost scale", qty(3), "10", qty(1), "11", "10.25"},
		{"negative old quantity falls back to incoming cost", qty(-5), "10", qty(2), "8", "8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextUnitCost(MethodWeightedAverage, tt.oldQty, types.MustMoney(tt.oldCost), tt.moveQty, types.MustMoney(tt.moveCost))
			assert.True(t, types.MustMoney(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestNextUnitCost_OutgoingKeepsRunningCost(t *testing.T) {
	for _, method := range []Method{MethodWeightedAverage, MethodFIFO, MethodLIFO, MethodStandardCost} {
		t.Run(string(method), func(t *testing.T) {
			// Caller-supplied cost on an issue must be ignored.
			got := NextUnitCost(method, qty(100), types.MustMoney("12"), qty(-60), types.MustMoney("99"))
			assert.True(t, types.MustMoney("12").Equal(got))
		})
	}
}

func TestNextUnitCost_FIFOAndLIFOAdoptIncomingCost(t *testing.T) {
	for _, method := range []Method{MethodFIFO, MethodLIFO} {
		got := NextUnitCost(method, qty(40), types.MustMoney("10"), qty(5), types.MustMoney("13"))
		assert.True(t, types.MustMoney("13").Equal(got), "method %s", method)
	}
}

func TestNextUnitCost_StandardCost(t *testing.T) {
	// Established standard cost is retained.
	got := NextUnitCost(MethodStandardCost, qty(10), types.MustMoney("25"), qty(5), types.MustMoney("30"))
	assert.True(t, types.MustMoney("25").Equal(got))

	// Unset standard cost adopts the first incoming cost.
	got = NextUnitCost(MethodStandardCost, qty(0), types.ZeroMoney(), qty(5), types.MustMoney("30"))
	assert.True(t, types.MustMoney("30").Equal(got))
}

func TestNextUnitCost_ZeroMovementIsNoOp(t *testing.T) {
	got := NextUnitCost(MethodWeightedAverage, qty(10), types.MustMoney("12"), 0, types.MustMoney("50"))
	assert.True(t, types.MustMoney("12").Equal(got))
}

func TestTotalValue(t *testing.T) {
	v := TotalValue(qty(150), types.MustMoney("12"))
	assert.True(t, types.MustMoney("1800").Equal(v))

	v = TotalValue(types.NewQuantityFromFloat64(2.5), types.MustMoney("4.20"))
	assert.True(t, types.MustMoney("10.5").Equal(v))
}

func TestMethodValid(t *testing.T) {
	assert.True(t, MethodWeightedAverage.Valid())
	assert.True(t, MethodStandardCost.Valid())
	assert.False(t, Method("average").Valid())
	assert.False(t, Method("").Valid())
}
