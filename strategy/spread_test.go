package strategy

import (
	"math"
	"testing"

	"quote-engine-go/inventory"
	"quote-engine-go/market"
)

func neutralComposer() *SpreadComposer {
	cfg := DefaultSpreadConfig()
	cfg.MinSpread = 0
	return NewSpreadComposer(cfg)
}

func TestComposeNeutralSignalsGiveBaseSpread(t *testing.T) {
	c := NewSpreadComposer(DefaultSpreadConfig())
	bid, ask := c.Compose(
		market.VolatilitySignal{Value: 0},
		market.TrendSignal{Direction: market.TrendFlat},
		inventory.Skew{},
	)
	if bid != 0.0005 || ask != 0.0005 {
		t.Fatalf("neutral spreads = %v/%v, want base 0.0005 on both sides", bid, ask)
	}
}

func TestComposeColdVolatilityIsNeutral(t *testing.T) {
	c := NewSpreadComposer(DefaultSpreadConfig())
	// A cold signal must not widen spreads regardless of its stored value.
	bid, ask := c.Compose(
		market.VolatilitySignal{Value: 99, Cold: true},
		market.TrendSignal{Direction: market.TrendFlat},
		inventory.Skew{},
	)
	if bid != 0.0005 || ask != 0.0005 {
		t.Fatalf("cold volatility widened spreads: %v/%v", bid, ask)
	}
}

func TestComposeVolatilityMonotonic(t *testing.T) {
	c := NewSpreadComposer(DefaultSpreadConfig())
	trend := market.TrendSignal{Direction: market.TrendUp, Magnitude: 0.002}
	skew := inventory.Skew{Value: 0.1}

	prevBid, prevAsk := c.Compose(market.VolatilitySignal{Value: 0}, trend, skew)
	for _, v := range []float64{0.01, 0.05, 0.2, 0.5} {
		bid, ask := c.Compose(market.VolatilitySignal{Value: v}, trend, skew)
		if bid <= prevBid || ask <= prevAsk {
			t.Fatalf("vol %v did not strictly widen spreads: %v/%v vs %v/%v", v, bid, ask, prevBid, prevAsk)
		}
		prevBid, prevAsk = bid, ask
	}
}

func TestComposeUptrendNarrowsAskWidensBid(t *testing.T) {
	// The documented reference cycle: base 0.0005, volatility 0.0276,
	// uptrend magnitude 0.01, balanced inventory. Output landed around
	// bid 0.0008, ask 0.0001.
	c := NewSpreadComposer(DefaultSpreadConfig())
	bid, ask := c.Compose(
		market.VolatilitySignal{Value: 0.0276},
		market.TrendSignal{Direction: market.TrendUp, Magnitude: 0.01},
		inventory.Skew{},
	)
	if bid <= 0.0005 {
		t.Fatalf("uptrend must widen bid beyond base, got %v", bid)
	}
	if ask >= 0.0005 {
		t.Fatalf("uptrend must narrow ask below base, got %v", ask)
	}
	if bid < 0.0007 || bid > 0.001 {
		t.Fatalf("bid spread %v outside documented magnitude [0.0007, 0.001]", bid)
	}
	if ask < 0.0001 || ask > 0.0003 {
		t.Fatalf("ask spread %v outside documented magnitude [0.0001, 0.0003]", ask)
	}
}

func TestComposeDowntrendMirrorsUptrend(t *testing.T) {
	c := neutralComposer()
	vol := market.VolatilitySignal{Value: 0.02}
	upBid, upAsk := c.Compose(vol, market.TrendSignal{Direction: market.TrendUp, Magnitude: 0.005}, inventory.Skew{})
	downBid, downAsk := c.Compose(vol, market.TrendSignal{Direction: market.TrendDown, Magnitude: 0.005}, inventory.Skew{})
	if math.Abs(upBid-downAsk) > 1e-15 || math.Abs(upAsk-downBid) > 1e-15 {
		t.Fatalf("trend adjustments not mirrored: up %v/%v down %v/%v", upBid, upAsk, downBid, downAsk)
	}
}

func TestComposeSkewDirection(t *testing.T) {
	c := neutralComposer()
	vol := market.VolatilitySignal{Value: 0.01}
	flat := market.TrendSignal{Direction: market.TrendFlat}

	baseBid, baseAsk := c.Compose(vol, flat, inventory.Skew{})

	// Excess base: discourage buying more, keep the ask attractive.
	bid, ask := c.Compose(vol, flat, inventory.Skew{Value: 0.3})
	if bid <= baseBid {
		t.Fatalf("positive skew must widen bid: %v <= %v", bid, baseBid)
	}
	if ask != baseAsk {
		t.Fatalf("positive skew must leave ask at %v, got %v", baseAsk, ask)
	}

	// Excess quote: discourage selling.
	bid, ask = c.Compose(vol, flat, inventory.Skew{Value: -0.3})
	if ask <= baseAsk {
		t.Fatalf("negative skew must widen ask: %v <= %v", ask, baseAsk)
	}
	if bid != baseBid {
		t.Fatalf("negative skew must leave bid at %v, got %v", baseBid, bid)
	}
}

func TestComposeSkewSymmetry(t *testing.T) {
	c := neutralComposer()
	vol := market.VolatilitySignal{Value: 0.01}
	flat := market.TrendSignal{Direction: market.TrendFlat}
	for _, d := range []float64{0.05, 0.2, 0.5} {
		posBid, posAsk := c.Compose(vol, flat, inventory.Skew{Value: d})
		negBid, negAsk := c.Compose(vol, flat, inventory.Skew{Value: -d})
		if math.Abs(posBid-negAsk) > 1e-15 || math.Abs(posAsk-negBid) > 1e-15 {
			t.Fatalf("d=%v: skew adjustments not mirror images: %v/%v vs %v/%v", d, posBid, posAsk, negBid, negAsk)
		}
	}
}

func TestComposeSpreadsNeverNegative(t *testing.T) {
	c := neutralComposer()
	signals := []struct {
		vol   market.VolatilitySignal
		trend market.TrendSignal
		skew  inventory.Skew
	}{
		{market.VolatilitySignal{Value: 0}, market.TrendSignal{Direction: market.TrendDown, Magnitude: 1}, inventory.Skew{Value: 0.5}},
		{market.VolatilitySignal{Value: 0}, market.TrendSignal{Direction: market.TrendUp, Magnitude: 1}, inventory.Skew{Value: -0.5}},
		{market.VolatilitySignal{Cold: true}, market.TrendSignal{Direction: market.TrendUp, Magnitude: 0.5}, inventory.Skew{}},
	}
	for i, s := range signals {
		bid, ask := c.Compose(s.vol, s.trend, s.skew)
		if bid < 0 || ask < 0 {
			t.Fatalf("case %d: negative spread %v/%v", i, bid, ask)
		}
	}
}

func TestComposeRespectsMaxSpread(t *testing.T) {
	cfg := DefaultSpreadConfig()
	c := NewSpreadComposer(cfg)
	bid, ask := c.Compose(
		market.VolatilitySignal{Value: 50},
		market.TrendSignal{Direction: market.TrendFlat},
		inventory.Skew{},
	)
	if bid != cfg.MaxSpread || ask != cfg.MaxSpread {
		t.Fatalf("extreme volatility must clamp to max %v, got %v/%v", cfg.MaxSpread, bid, ask)
	}
}

func TestPrices(t *testing.T) {
	bid, ask := Prices(100, 0.0005, 0.0005)
	if bid != 100*(1-0.0005) || ask != 100*(1+0.0005) {
		t.Fatalf("prices = %v/%v", bid, ask)
	}
}
