package sim

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"quote-engine-go/inventory"
	"quote-engine-go/market"
	"quote-engine-go/order"
	"quote-engine-go/strategy"
)

// Runner is the host side of the quoting contract: it owns the refresh timer,
// feeds prices into the engine, snapshots the paper account each tick and
// translates decisions into order placements. Tick execution is serialized;
// the engine never sees concurrent calls.
type Runner struct {
	Symbol  string
	Engine  *strategy.Engine
	Orders  *order.Manager
	Gateway *PaperGateway
	Account *Account
	Journal *Journal
	Log     *zap.Logger

	mu        sync.Mutex
	lastPrice float64
}

// OnPrice handles one market data point: records it into the engine's history
// and settles any resting paper quotes the price crossed.
func (r *Runner) OnPrice(p market.PricePoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.Engine.RecordPrice(p); err != nil {
		// Out-of-order points are dropped, prior state kept.
		return err
	}
	r.lastPrice = p.Price
	for _, id := range r.Gateway.MarkPrice(p.Price) {
		if err := r.Orders.MarkFilled(id); err != nil && !errors.Is(err, order.ErrUnknownOrder) {
			return err
		}
	}
	return nil
}

// TickOnce runs a single refresh cycle at now.
func (r *Runner) TickOnce(ctx context.Context, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv := inventory.State{
		BaseBalance:  r.Account.Base(),
		QuoteBalance: r.Account.Quote(),
		MidPrice:     r.lastPrice,
	}
	dec := r.Engine.Tick(inv)

	if r.Journal != nil {
		if err := r.Journal.RecordDecision(ctx, now, r.Symbol, dec); err != nil {
			r.log().Warn("journal decision failed", zap.Error(err))
		}
	}
	if !dec.ShouldRefresh {
		return nil
	}
	if !r.Account.CanFund(dec.OrderAmount, dec.BidPrice) {
		r.log().Warn("insufficient balance for orders",
			zap.Float64("base", r.Account.Base()), zap.Float64("quote", r.Account.Quote()))
		return nil
	}
	return r.Orders.ApplyDecision(r.Symbol, dec)
}

// Run ticks immediately, then on the configured refresh cadence until ctx ends.
func (r *Runner) Run(ctx context.Context) error {
	interval := r.Engine.Config().OrderRefreshTime

	if err := r.TickOnce(ctx, time.Now()); err != nil {
		r.log().Error("tick failed", zap.Error(err))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := r.TickOnce(ctx, now); err != nil {
				r.log().Error("tick failed", zap.Error(err))
			}
		}
	}
}

func (r *Runner) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
