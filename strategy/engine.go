package strategy

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"quote-engine-go/inventory"
	"quote-engine-go/market"
	"quote-engine-go/metrics"
)

// EngineState tracks where the engine is in its quoting lifecycle.
type EngineState int

const (
	// StateIdle means no quotes are out; the engine is warming up.
	StateIdle EngineState = iota
	// StateQuoting means the latest decision asked the host to quote.
	StateQuoting
	// StateRefreshing is the transient state while a replacement decision
	// is being computed.
	StateRefreshing
)

// String returns the state name.
func (s EngineState) String() string {
	switch s {
	case StateQuoting:
		return "QUOTING"
	case StateRefreshing:
		return "REFRESHING"
	default:
		return "IDLE"
	}
}

// QuoteDecision is the engine's output for one refresh cycle. It is a fresh
// immutable value each tick; ShouldRefresh false means "not ready, keep
// whatever is outstanding".
type QuoteDecision struct {
	BidPrice      float64
	AskPrice      float64
	OrderAmount   float64
	ShouldRefresh bool
}

// Config is the engine's immutable configuration, fixed at construction.
type Config struct {
	OrderAmount      float64       // base-asset units per quote
	OrderRefreshTime time.Duration // host tick cadence, for reference only
	Spread           SpreadConfig
	VolWindow        int     // Bollinger lookback, >= 2
	VolBandK         float64 // band multiplier, e.g. 2.0
	TrendFastWindow  int
	TrendSlowWindow  int
	TargetBasePct    float64 // in [0,1]
	MaxSkew          float64 // in [0,1]
}

// DefaultConfig mirrors the production BTC-USDT tuning.
func DefaultConfig() Config {
	return Config{
		OrderAmount:      0.01,
		OrderRefreshTime: 150 * time.Second,
		Spread:           DefaultSpreadConfig(),
		VolWindow:        20,
		VolBandK:         2.0,
		TrendFastWindow:  10,
		TrendSlowWindow:  30,
		TargetBasePct:    0.5,
		MaxSkew:          0.5,
	}
}

// Validate rejects out-of-range parameters. A failure here is fatal at
// startup; the engine refuses to run on a bad config.
func (c Config) Validate() error {
	if c.OrderAmount <= 0 {
		return fmt.Errorf("orderAmount must be > 0, got %v", c.OrderAmount)
	}
	if c.OrderRefreshTime <= 0 {
		return fmt.Errorf("orderRefreshTime must be > 0, got %v", c.OrderRefreshTime)
	}
	if c.Spread.BaseSpread <= 0 || c.Spread.BaseSpread >= 1 {
		return fmt.Errorf("baseSpread must be in (0,1), got %v", c.Spread.BaseSpread)
	}
	if c.Spread.MinSpread < 0 {
		return fmt.Errorf("minSpread must be >= 0, got %v", c.Spread.MinSpread)
	}
	if c.Spread.MaxSpread <= c.Spread.MinSpread {
		return fmt.Errorf("maxSpread must exceed minSpread, got %v <= %v", c.Spread.MaxSpread, c.Spread.MinSpread)
	}
	if c.Spread.TrendK < 0 || c.Spread.SkewK < 0 {
		return fmt.Errorf("trendK and skewK must be >= 0")
	}
	if c.VolWindow < 2 {
		return fmt.Errorf("volWindow must be >= 2, got %d", c.VolWindow)
	}
	if c.VolBandK <= 0 {
		return fmt.Errorf("volBandK must be > 0, got %v", c.VolBandK)
	}
	if c.TrendFastWindow < 1 || c.TrendSlowWindow <= c.TrendFastWindow {
		return fmt.Errorf("trend windows must satisfy 1 <= fast < slow, got %d/%d", c.TrendFastWindow, c.TrendSlowWindow)
	}
	if c.TargetBasePct < 0 || c.TargetBasePct > 1 {
		return fmt.Errorf("targetBasePct must be in [0,1], got %v", c.TargetBasePct)
	}
	if c.MaxSkew < 0 || c.MaxSkew > 1 {
		return fmt.Errorf("maxSkew must be in [0,1], got %v", c.MaxSkew)
	}
	return nil
}

// Engine turns price history plus a portfolio snapshot into a quote decision
// once per refresh cycle. The host owns the timer and serializes calls; the
// engine itself is single-threaded and never blocks.
type Engine struct {
	cfg      Config
	history  *market.History
	vol      *market.BandwidthEstimator
	trend    *market.TrendDetector
	skew     *inventory.SkewCalculator
	composer *SpreadComposer
	warmup   int
	state    EngineState
	log      *zap.SugaredLogger
}

// NewEngine validates cfg and builds the signal pipeline.
func NewEngine(cfg Config, log *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	warmup := cfg.VolWindow
	if cfg.TrendSlowWindow > warmup {
		warmup = cfg.TrendSlowWindow
	}
	return &Engine{
		cfg:      cfg,
		history:  market.NewHistory(warmup),
		vol:      market.NewBandwidthEstimator(cfg.VolWindow, cfg.VolBandK),
		trend:    market.NewTrendDetector(cfg.TrendFastWindow, cfg.TrendSlowWindow),
		skew:     inventory.NewSkewCalculator(cfg.TargetBasePct, cfg.MaxSkew),
		composer: NewSpreadComposer(cfg.Spread),
		warmup:   warmup,
		state:    StateIdle,
		log:      log.Sugar(),
	}, nil
}

// Config returns the engine's immutable configuration.
func (e *Engine) Config() Config { return e.cfg }

// State returns the current lifecycle state.
func (e *Engine) State() EngineState { return e.state }

// RecordPrice feeds one market data point into the history. Out-of-order
// points are rejected and prior state is kept.
func (e *Engine) RecordPrice(p market.PricePoint) error {
	return e.history.Record(p)
}

// Warm reports whether the price window is filled.
func (e *Engine) Warm() bool { return e.history.Len() >= e.warmup }

// Tick runs one refresh cycle. It never fails: degenerate inputs downgrade to
// a ShouldRefresh=false decision and the engine re-attempts next tick.
func (e *Engine) Tick(inv inventory.State) QuoteDecision {
	if !e.Warm() || inv.MidPrice <= 0 {
		e.state = StateIdle
		e.log.Debugw("engine not ready",
			"history", e.history.Len(), "warmup", e.warmup, "mid", inv.MidPrice)
		metrics.CountDecision(false)
		return QuoteDecision{}
	}

	if e.state == StateQuoting {
		e.state = StateRefreshing
	}

	vol := e.vol.Estimate(e.history)
	trend := e.trend.Detect(e.history)
	skew := e.skew.Calculate(inv)

	e.log.Infof("Volatility: %.4f | Trend: %s | Skew: %.4f", vol.Value, trend.Direction, skew.Value)

	bidSpread, askSpread := e.composer.Compose(vol, trend, skew)
	e.log.Infof("Bid Spread: %.4f | Ask Spread: %.4f", bidSpread, askSpread)

	bid, ask := Prices(inv.MidPrice, bidSpread, askSpread)

	metrics.UpdateSignals(vol.Value, trendDirValue(trend.Direction), trend.Magnitude, skew.Value)
	metrics.UpdateSpreads(bidSpread, askSpread)
	metrics.CountDecision(true)

	e.state = StateQuoting
	return QuoteDecision{
		BidPrice:      bid,
		AskPrice:      ask,
		OrderAmount:   e.cfg.OrderAmount,
		ShouldRefresh: true,
	}
}

func trendDirValue(d market.TrendDirection) int {
	switch d {
	case market.TrendUp:
		return 1
	case market.TrendDown:
		return -1
	default:
		return 0
	}
}
