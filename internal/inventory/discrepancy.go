package inventory

import "math"

// Tolerance is the maximum absolute discrepancy still treated as a match
// for fractional quantities.
const Tolerance = 0.0001

// DiscrepancyResult is derived, never stored on its own: it is recomputed
// from raw inputs on every edit so it can never desynchronize from them.
type DiscrepancyResult struct {
	Expected        float64 `json:"expected"`
	Actual          float64 `json:"actual"`
	Delta           float64 `json:"delta"`
	WithinTolerance bool    `json:"within_tolerance"`
}

// Round2 rounds to 2 decimal places to avoid floating-point drift in
// repeated stock arithmetic.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ExpectedMorning is the stock a store should open with: yesterday's
// closing count plus overnight inbound.
func ExpectedMorning(previousClosing, inbound float64) float64 {
	return Round2(previousClosing + inbound)
}

// ComputeDiscrepancy compares the counted morning stock against the
// expected amount.
func ComputeDiscrepancy(morningStock, previousClosing, inbound float64) DiscrepancyResult {
	expected := ExpectedMorning(previousClosing, inbound)
	delta := Round2(morningStock - expected)
	return DiscrepancyResult{
		Expected:        expected,
		Actual:          morningStock,
		Delta:           delta,
		WithinTolerance: math.Abs(delta) <= Tolerance,
	}
}

// CoerceQuantity normalizes absent input to zero instead of failing the
// computation; the UI routinely submits partially-filled sheets.
func CoerceQuantity(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}
