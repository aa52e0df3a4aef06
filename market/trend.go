package market

// TrendDirection labels the fast/slow moving-average crossover.
type TrendDirection int

const (
	TrendFlat TrendDirection = iota
	TrendUp
	TrendDown
)

// String returns the direction name used in logs.
func (d TrendDirection) String() string {
	switch d {
	case TrendUp:
		return "Up"
	case TrendDown:
		return "Down"
	default:
		return "Flat"
	}
}

// TrendSignal is the crossover direction plus its relative distance.
// Flat with magnitude 0 when either average is cold.
type TrendSignal struct {
	Direction TrendDirection
	Magnitude float64
}

// TrendDetector compares a fast and a slow simple moving average over the
// price history. Requires fastWindow < slowWindow.
type TrendDetector struct {
	fastWindow int
	slowWindow int
}

// NewTrendDetector creates a detector with the given SMA windows.
func NewTrendDetector(fastWindow, slowWindow int) *TrendDetector {
	if fastWindow < 1 {
		fastWindow = 1
	}
	if slowWindow <= fastWindow {
		slowWindow = fastWindow + 1
	}
	return &TrendDetector{fastWindow: fastWindow, slowWindow: slowWindow}
}

// SlowWindow returns the slow SMA length, the detector's warmup requirement.
func (t *TrendDetector) SlowWindow() int { return t.slowWindow }

// Detect recomputes both averages over h and classifies the crossover.
func (t *TrendDetector) Detect(h *History) TrendSignal {
	slowPts, err := h.Window(t.slowWindow)
	if err != nil {
		return TrendSignal{Direction: TrendFlat}
	}

	slow := sma(slowPts)
	fast := sma(slowPts[len(slowPts)-t.fastWindow:])
	if slow == 0 {
		return TrendSignal{Direction: TrendFlat}
	}

	switch {
	case fast > slow:
		return TrendSignal{Direction: TrendUp, Magnitude: (fast - slow) / slow}
	case fast < slow:
		return TrendSignal{Direction: TrendDown, Magnitude: (slow - fast) / slow}
	default:
		return TrendSignal{Direction: TrendFlat}
	}
}

func sma(pts []PricePoint) float64 {
	if len(pts) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range pts {
		sum += p.Price
	}
	return sum / float64(len(pts))
}
