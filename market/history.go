package market

import (
	"errors"
	"time"
)

// ErrOutOfOrder is returned when a price point is older than the last recorded one.
var ErrOutOfOrder = errors.New("price point out of order")

// ErrInsufficientData is returned when the history holds fewer points than requested.
// Callers should treat it as "not ready yet", not as a fault.
var ErrInsufficientData = errors.New("insufficient price data")

// PricePoint is a single observed trade/mid price.
type PricePoint struct {
	Ts    time.Time
	Price float64
}

// History is a bounded, time-ordered buffer of recent prices.
// It is owned by the engine tick loop and is not safe for concurrent use.
type History struct {
	capacity int
	points   []PricePoint
}

// NewHistory creates a history holding at most capacity points.
func NewHistory(capacity int) *History {
	if capacity < 2 {
		capacity = 2
	}
	return &History{
		capacity: capacity,
		points:   make([]PricePoint, 0, capacity),
	}
}

// Record appends a price point, evicting the oldest once capacity is exceeded.
// Points whose timestamp precedes the last recorded one are rejected.
func (h *History) Record(p PricePoint) error {
	if n := len(h.points); n > 0 && p.Ts.Before(h.points[n-1].Ts) {
		return ErrOutOfOrder
	}
	h.points = append(h.points, p)
	if len(h.points) > h.capacity {
		h.points = h.points[1:]
	}
	return nil
}

// Window returns the most recent n points, oldest first.
// The returned slice is a copy and stays valid across later Records.
func (h *History) Window(n int) ([]PricePoint, error) {
	if n <= 0 || len(h.points) < n {
		return nil, ErrInsufficientData
	}
	out := make([]PricePoint, n)
	copy(out, h.points[len(h.points)-n:])
	return out, nil
}

// Len returns the number of recorded points.
func (h *History) Len() int {
	return len(h.points)
}

// Last returns the most recent point, if any.
func (h *History) Last() (PricePoint, bool) {
	if len(h.points) == 0 {
		return PricePoint{}, false
	}
	return h.points[len(h.points)-1], true
}
