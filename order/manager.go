package order

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"quote-engine-go/metrics"
	"quote-engine-go/strategy"
)

// Status represents order lifecycle.
type Status string

const (
	StatusNew      Status = "NEW"
	StatusAck      Status = "ACK"
	StatusFilled   Status = "FILLED"
	StatusCanceled Status = "CANCELED"
	StatusRejected Status = "REJECTED"
)

// Order holds a simplified order view.
type Order struct {
	ID       string
	Symbol   string
	Side     string // BUY/SELL
	Price    float64
	Quantity float64
	Status   Status
}

// Gateway places and cancels orders on the venue (or a paper simulation).
type Gateway interface {
	Place(o Order) (string, error)
	Cancel(orderID string) error
}

var ErrUnknownOrder = errors.New("unknown order")

// Manager tracks the quotes currently outstanding and turns each engine
// decision into a cancel-all-then-replace against the Gateway.
type Manager struct {
	gw     Gateway
	log    *zap.SugaredLogger
	active map[string]*Order
	seq    int
}

// NewManager creates a manager over gw.
func NewManager(gw Gateway, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		gw:     gw,
		log:    log.Sugar(),
		active: make(map[string]*Order),
	}
}

// ApplyDecision cancels whatever is outstanding and, when the decision asks
// for a refresh, places the new bid/ask pair. A ShouldRefresh=false decision
// leaves existing quotes untouched.
func (m *Manager) ApplyDecision(symbol string, dec strategy.QuoteDecision) error {
	if !dec.ShouldRefresh {
		return nil
	}
	if err := m.CancelAll(); err != nil {
		return fmt.Errorf("cancel outstanding quotes: %w", err)
	}

	bid := Order{
		Symbol:   symbol,
		Side:     "BUY",
		Price:    dec.BidPrice,
		Quantity: dec.OrderAmount,
	}
	ask := Order{
		Symbol:   symbol,
		Side:     "SELL",
		Price:    dec.AskPrice,
		Quantity: dec.OrderAmount,
	}
	if err := m.submit(bid); err != nil {
		return err
	}
	if err := m.submit(ask); err != nil {
		// Never leave a lone bid resting until the next refresh cycle.
		if cancelErr := m.CancelAll(); cancelErr != nil {
			m.log.Warnw("cancel lone bid failed", "err", cancelErr)
		}
		return err
	}

	m.log.Infof("Active orders: %d", len(m.active))
	metrics.ActiveOrders.Set(float64(len(m.active)))
	return nil
}

// CancelAll cancels every tracked order. Orders the gateway no longer knows
// are dropped from tracking rather than treated as fatal.
func (m *Manager) CancelAll() error {
	for id, o := range m.active {
		if err := m.gw.Cancel(id); err != nil {
			m.log.Warnw("cancel failed", "id", id, "side", o.Side, "err", err)
		}
		delete(m.active, id)
	}
	metrics.ActiveOrders.Set(0)
	return nil
}

// MarkFilled removes a filled order from tracking.
func (m *Manager) MarkFilled(id string) error {
	o, ok := m.active[id]
	if !ok {
		return ErrUnknownOrder
	}
	o.Status = StatusFilled
	delete(m.active, id)
	metrics.ActiveOrders.Set(float64(len(m.active)))
	return nil
}

// ActiveCount returns the number of outstanding quotes.
func (m *Manager) ActiveCount() int {
	return len(m.active)
}

// Active returns a copy of the outstanding orders.
func (m *Manager) Active() []Order {
	out := make([]Order, 0, len(m.active))
	for _, o := range m.active {
		out = append(out, *o)
	}
	return out
}

func (m *Manager) submit(o Order) error {
	o.ID = m.nextID()
	o.Status = StatusNew
	id, err := m.gw.Place(o)
	if err != nil {
		o.Status = StatusRejected
		return fmt.Errorf("place %s %s: %w", o.Side, o.Symbol, err)
	}
	if id != "" {
		o.ID = id
	}
	o.Status = StatusAck
	m.active[o.ID] = &o
	return nil
}

func (m *Manager) nextID() string {
	m.seq++
	return fmt.Sprintf("qe-%s-%d", time.Now().UTC().Format("20060102150405"), m.seq)
}
