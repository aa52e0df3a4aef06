// Package sim hosts the quote engine in a paper-trading loop: a simulated
// account, an order gateway that fills quotes when the price crosses them,
// and a runner that owns the refresh timer.
package sim

import "errors"

// Account tracks virtual base and quote balances for paper trading.
type Account struct {
	base  float64
	quote float64
}

// NewAccount creates an account seeded with starting balances.
func NewAccount(base, quote float64) *Account {
	return &Account{base: base, quote: quote}
}

// Base returns the base-asset balance.
func (a *Account) Base() float64 { return a.base }

// Quote returns the quote-asset balance.
func (a *Account) Quote() float64 { return a.quote }

// CanFund reports whether both legs of a two-sided quote can be funded:
// amount of base for the ask and amount*bidPrice of quote for the bid.
func (a *Account) CanFund(amount, bidPrice float64) bool {
	return a.base >= amount && a.quote >= amount*bidPrice
}

// Buy converts quote into base at price.
func (a *Account) Buy(amount, price float64) error {
	cost := amount * price
	if cost > a.quote {
		return errors.New("insufficient quote balance")
	}
	a.quote -= cost
	a.base += amount
	return nil
}

// Sell converts base into quote at price.
func (a *Account) Sell(amount, price float64) error {
	if amount > a.base {
		return errors.New("insufficient base balance")
	}
	a.base -= amount
	a.quote += amount * price
	return nil
}

// Equity returns total value in quote units at mid.
func (a *Account) Equity(mid float64) float64 {
	return a.base*mid + a.quote
}
