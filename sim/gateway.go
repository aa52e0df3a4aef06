package sim

import (
	"fmt"

	"quote-engine-go/order"
)

// Fill is one simulated execution.
type Fill struct {
	OrderID string
	Side    string
	Price   float64
	Amount  float64
}

// PaperGateway implements order.Gateway against the simulated account.
// Resting quotes fill when a later trade price crosses them.
type PaperGateway struct {
	account *Account
	resting map[string]order.Order
	seq     int
	fills   []Fill
	onFill  func(Fill)
}

// NewPaperGateway creates a gateway over account.
func NewPaperGateway(account *Account) *PaperGateway {
	return &PaperGateway{
		account: account,
		resting: make(map[string]order.Order),
	}
}

// OnFill registers a callback invoked for each simulated execution.
func (g *PaperGateway) OnFill(fn func(Fill)) { g.onFill = fn }

// Place accepts a limit order and lets it rest.
func (g *PaperGateway) Place(o order.Order) (string, error) {
	if o.Price <= 0 || o.Quantity <= 0 {
		return "", fmt.Errorf("invalid order %s %v@%v", o.Side, o.Quantity, o.Price)
	}
	g.seq++
	id := fmt.Sprintf("paper-%d", g.seq)
	o.ID = id
	g.resting[id] = o
	return id, nil
}

// Cancel removes a resting order. Unknown IDs are not an error: the order may
// have filled in the same cycle.
func (g *PaperGateway) Cancel(id string) error {
	delete(g.resting, id)
	return nil
}

// MarkPrice fills any resting quote the trade price crosses and returns the
// IDs that executed. A buy fills when the price trades at or below it, a sell
// when the price trades at or above it.
func (g *PaperGateway) MarkPrice(price float64) []string {
	var filled []string
	for id, o := range g.resting {
		crossed := (o.Side == "BUY" && price <= o.Price) ||
			(o.Side == "SELL" && price >= o.Price)
		if !crossed {
			continue
		}
		var err error
		if o.Side == "BUY" {
			err = g.account.Buy(o.Quantity, o.Price)
		} else {
			err = g.account.Sell(o.Quantity, o.Price)
		}
		if err != nil {
			// Unfundable fill: drop the quote, balances unchanged.
			delete(g.resting, id)
			continue
		}
		delete(g.resting, id)
		filled = append(filled, id)
		f := Fill{OrderID: id, Side: o.Side, Price: o.Price, Amount: o.Quantity}
		g.fills = append(g.fills, f)
		if g.onFill != nil {
			g.onFill(f)
		}
	}
	return filled
}

// Fills returns all executions so far.
func (g *PaperGateway) Fills() []Fill {
	out := make([]Fill, len(g.fills))
	copy(out, g.fills)
	return out
}

// RestingCount returns the number of open paper orders.
func (g *PaperGateway) RestingCount() int { return len(g.resting) }
