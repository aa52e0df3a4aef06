// Package inventory measures how far current holdings drift from the target
// base/quote allocation.
package inventory

import "math"

// State is a read-only snapshot of holdings supplied by the host each tick.
type State struct {
	BaseBalance  float64
	QuoteBalance float64
	MidPrice     float64
}

// TotalQuoteValue returns the portfolio value in quote units.
func (s State) TotalQuoteValue() float64 {
	return s.BaseBalance*s.MidPrice + s.QuoteBalance
}

// Skew is the clamped allocation imbalance in [-maxSkew, maxSkew].
// Zero means perfectly balanced at the target; positive means excess base.
type Skew struct {
	Value float64
}

// SkewCalculator derives Skew from a State against a target base allocation.
type SkewCalculator struct {
	targetBasePct float64
	maxSkew       float64
}

// NewSkewCalculator creates a calculator. targetBasePct in [0,1], maxSkew in [0,1].
func NewSkewCalculator(targetBasePct, maxSkew float64) *SkewCalculator {
	return &SkewCalculator{targetBasePct: targetBasePct, maxSkew: maxSkew}
}

// Calculate returns the clamped skew. Degenerate snapshots (zero or negative
// total value, non-positive mid) yield a neutral zero skew rather than an error.
func (c *SkewCalculator) Calculate(s State) Skew {
	if s.MidPrice <= 0 {
		return Skew{}
	}
	total := s.TotalQuoteValue()
	if total <= 0 {
		return Skew{}
	}
	currentBasePct := s.BaseBalance * s.MidPrice / total
	v := currentBasePct - c.targetBasePct
	// NaN/Inf balances would sail through the clamp and poison the spreads.
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Skew{}
	}
	if v > c.maxSkew {
		v = c.maxSkew
	}
	if v < -c.maxSkew {
		v = -c.maxSkew
	}
	return Skew{Value: v}
}
