package service

import "math"

// lotStep is the broker's minimum volume increment.
const lotStep = 0.01

// LotSize converts remaining daily budget into an order volume. The notional
// cost of baseLot is price*contractSize*baseLot; when the budget cannot cover
// it the lot shrinks to what the budget affords, floored to the volume step.
// A budget too small for even one step yields zero, and callers must not
// submit zero-volume orders.
func LotSize(budget, price, baseLot, contractSize float64) float64 {
	if budget <= 0 || price <= 0 || contractSize <= 0 || baseLot <= 0 {
		return 0
	}

	lot := budget / (price * contractSize)
	if lot > baseLot {
		lot = baseLot
	}

	// The epsilon keeps exact multiples of the step from losing a full
	// step to floating-point rounding before the floor.
	lot = math.Floor(lot/lotStep+1e-9) * lotStep
	if lot < lotStep {
		return 0
	}
	return lot
}
