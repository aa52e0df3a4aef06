package market

import "math"

// VolatilitySignal is the normalized Bollinger band width for the current window.
// Cold means the estimator did not have enough data (or a degenerate mean) and
// the value must be read as neutral, not as zero risk.
type VolatilitySignal struct {
	Value float64
	Cold  bool
}

// BandwidthEstimator measures volatility as relative Bollinger band width:
// (2*k*stddev) / mean over the last window points.
type BandwidthEstimator struct {
	window int
	k      float64
}

// NewBandwidthEstimator creates an estimator over the given window with band
// multiplier k (typically 2.0).
func NewBandwidthEstimator(window int, k float64) *BandwidthEstimator {
	if window < 2 {
		window = 2
	}
	if k <= 0 {
		k = 2.0
	}
	return &BandwidthEstimator{window: window, k: k}
}

// Window returns the configured lookback length.
func (e *BandwidthEstimator) Window() int { return e.window }

// Estimate computes the signal from the most recent window of h.
func (e *BandwidthEstimator) Estimate(h *History) VolatilitySignal {
	pts, err := h.Window(e.window)
	if err != nil {
		return VolatilitySignal{Cold: true}
	}

	mean := 0.0
	for _, p := range pts {
		mean += p.Price
	}
	mean /= float64(len(pts))
	if mean == 0 {
		return VolatilitySignal{Cold: true}
	}

	// Sample standard deviation.
	sumSq := 0.0
	for _, p := range pts {
		d := p.Price - mean
		sumSq += d * d
	}
	stddev := math.Sqrt(sumSq / float64(len(pts)-1))

	return VolatilitySignal{Value: 2 * e.k * stddev / mean}
}
