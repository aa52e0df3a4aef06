// Package metrics exposes Prometheus metrics for the quote engine and its host.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Volatility is the latest Bollinger bandwidth signal.
	Volatility = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qe_volatility_bandwidth",
		Help: "Relative Bollinger band width of the price window",
	})

	// TrendDirection is -1 (down), 0 (flat) or 1 (up).
	TrendDirection = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qe_trend_direction",
		Help: "Moving-average crossover direction (-1 down, 0 flat, 1 up)",
	})

	// TrendMagnitude is the relative fast/slow crossover distance.
	TrendMagnitude = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qe_trend_magnitude",
		Help: "Relative distance between fast and slow moving averages",
	})

	// InventorySkew is the clamped allocation imbalance.
	InventorySkew = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qe_inventory_skew",
		Help: "Deviation of base allocation from target, clamped to max skew",
	})

	// BidSpread and AskSpread are the composed fractional spreads.
	BidSpread = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qe_bid_spread",
		Help: "Composed bid spread as a fraction of mid price",
	})
	AskSpread = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qe_ask_spread",
		Help: "Composed ask spread as a fraction of mid price",
	})

	// TicksTotal counts engine tick invocations.
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qe_ticks_total",
		Help: "Engine tick invocations",
	})

	// DecisionsTotal counts decisions by outcome ("refresh" or "hold").
	DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qe_decisions_total",
		Help: "Quote decisions by outcome",
	}, []string{"outcome"})

	// FeedReconnects counts market data stream (re)connections.
	FeedReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qe_feed_reconnects_total",
		Help: "Market data stream connections established",
	})

	// ActiveOrders is the number of quotes currently outstanding.
	ActiveOrders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qe_active_orders",
		Help: "Outstanding quoted orders",
	})
)

// UpdateSignals records the per-tick signal values.
func UpdateSignals(vol float64, trendDir int, trendMag, skew float64) {
	Volatility.Set(vol)
	TrendDirection.Set(float64(trendDir))
	TrendMagnitude.Set(trendMag)
	InventorySkew.Set(skew)
}

// UpdateSpreads records the composed spreads.
func UpdateSpreads(bid, ask float64) {
	BidSpread.Set(bid)
	AskSpread.Set(ask)
}

// CountDecision records a tick and its outcome.
func CountDecision(refresh bool) {
	TicksTotal.Inc()
	if refresh {
		DecisionsTotal.WithLabelValues("refresh").Inc()
	} else {
		DecisionsTotal.WithLabelValues("hold").Inc()
	}
}

// StartMetricsServer serves /metrics on addr in a background goroutine.
func StartMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
