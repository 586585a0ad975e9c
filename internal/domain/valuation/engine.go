// Package valuation computes the running unit cost of a stock balance after a
// quantity movement. Pure calculation: no side effects, no I/O.
package valuation

import (
	"github.com/L-Y-21/twist-erp-sub001/internal/core/types"
)

// Method is the costing policy configured per item.
type Method string

const (
	// MethodWeightedAverage blends incoming cost into the running average.
	MethodWeightedAverage Method = "weighted_average"

	// MethodFIFO and MethodLIFO adopt the incoming cost as the new running
	// cost. This engine keeps a single running cost per balance row instead
	// of per-receipt cost layers; true layer-based FIFO/LIFO consumption is
	// intentionally not modeled.
	MethodFIFO Method = "fifo"
	MethodLIFO Method = "lifo"

	// MethodStandardCost keeps the established cost until it is set
	// administratively; the first movement adopts its cost.
	MethodStandardCost Method = "standard"
)

// Valid reports whether m is a known costing method.
func (m Method) Valid() bool {
	switch m {
	case MethodWeightedAverage, MethodFIFO, MethodLIFO, MethodStandardCost:
		return true
	}
	return false
}

// costScale is the number of decimal places kept on a running unit cost,
// matching the NUMERIC(18,6) storage column.
const costScale = 6

// NextUnitCost returns the unit cost of a balance row after applying a signed
// quantity movement.
//
// Outgoing movements (moveQty < 0) never change cost: issues and transfers
// consume at the existing running cost, regardless of the cost the caller
// passes in.
func NextUnitCost(method Method, oldQty types.Quantity, oldCost types.Money, moveQty types.Quantity, moveCost types.Money) types.Money {
	if moveQty.IsNegative() || moveQty.IsZero() {
		return oldCost
	}

	switch method {
	case MethodWeightedAverage:
		return weightedAverage(oldQty, oldCost, moveQty, moveCost)

	case MethodFIFO, MethodLIFO:
		// Incoming cost becomes the running cost.
		return moveCost

	case MethodStandardCost:
		if !oldCost.IsZero() {
			return oldCost
		}
		return moveCost

	default:
		// Unknown method behaves like weighted average, the safest policy
		// for an incoming movement.
		return weightedAverage(oldQty, oldCost, moveQty, moveCost)
	}
}

func weightedAverage(oldQty types.Quantity, oldCost types.Money, moveQty types.Quantity, moveCost types.Money) types.Money {
	newQty := oldQty + moveQty
	if !newQty.IsPositive() {
		return moveCost
	}

	oldValue := oldQty.Decimal().Mul(oldCost)
	moveValue := moveQty.Decimal().Mul(moveCost)

	return oldValue.Add(moveValue).Div(newQty.Decimal()).Round(costScale)
}

// TotalValue returns quantity × unit cost, rounded to the cost scale.
// The StockLevel invariant totalValue = quantity * unitCost is maintained
// with this single rounding rule everywhere.
func TotalValue(qty types.Quantity, unitCost types.Money) types.Money {
	return qty.Decimal().Mul(unitCost).Round(costScale)
}
