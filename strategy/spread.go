package strategy

import (
	"quote-engine-go/inventory"
	"quote-engine-go/market"
)

// SpreadConfig holds the spread composition parameters.
type SpreadConfig struct {
	BaseSpread float64 // neutral spread as a fraction of mid, e.g. 0.0005
	MinSpread  float64 // floor after all adjustments, >= 0
	MaxSpread  float64 // cap after all adjustments
	TrendK     float64 // spread shift per unit of trend magnitude
	SkewK      float64 // spread widening per unit of inventory skew
}

// DefaultSpreadConfig mirrors the production tuning for BTC-USDT.
func DefaultSpreadConfig() SpreadConfig {
	return SpreadConfig{
		BaseSpread: 0.0005,
		MinSpread:  0.0001,
		MaxSpread:  0.01,
		TrendK:     0.03,
		SkewK:      0.001,
	}
}

// SpreadComposer combines volatility, trend and inventory skew into
// asymmetric bid/ask spread fractions.
type SpreadComposer struct {
	cfg SpreadConfig
}

// NewSpreadComposer creates a composer from validated config.
func NewSpreadComposer(cfg SpreadConfig) *SpreadComposer {
	return &SpreadComposer{cfg: cfg}
}

// Compose returns the bid and ask spreads for the given signals.
//
// Both sides start from the volatility-widened base. An uptrend narrows the
// ask and widens the bid (quote closer on the side the market is moving
// toward); a downtrend inverts that. Positive skew (excess base) widens the
// bid and leaves the ask alone so fills push the book back toward target;
// negative skew mirrors onto the ask. Cold signals contribute nothing.
func (c *SpreadComposer) Compose(vol market.VolatilitySignal, trend market.TrendSignal, skew inventory.Skew) (bidSpread, askSpread float64) {
	volValue := vol.Value
	if vol.Cold {
		volValue = 0
	}
	volAdj := c.cfg.BaseSpread * (1 + volValue)

	bidSpread = volAdj
	askSpread = volAdj

	trendDelta := c.cfg.TrendK * trend.Magnitude
	switch trend.Direction {
	case market.TrendUp:
		bidSpread += trendDelta
		askSpread -= trendDelta
	case market.TrendDown:
		bidSpread -= trendDelta
		askSpread += trendDelta
	}

	if skew.Value > 0 {
		bidSpread += skew.Value * c.cfg.SkewK
	} else if skew.Value < 0 {
		askSpread += -skew.Value * c.cfg.SkewK
	}

	return c.clamp(bidSpread), c.clamp(askSpread)
}

// Prices converts spreads into quote prices around mid.
func Prices(mid, bidSpread, askSpread float64) (bid, ask float64) {
	return mid * (1 - bidSpread), mid * (1 + askSpread)
}

func (c *SpreadComposer) clamp(spread float64) float64 {
	if spread < c.cfg.MinSpread {
		return c.cfg.MinSpread
	}
	if spread > c.cfg.MaxSpread {
		return c.cfg.MaxSpread
	}
	return spread
}
