package sim

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"quote-engine-go/strategy"
)

// Journal persists per-tick decisions and fills to sqlite for offline review.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (or creates) the journal database at path.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS decisions (
	ts INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	bid REAL NOT NULL,
	ask REAL NOT NULL,
	amount REAL NOT NULL,
	refreshed INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS fills (
	ts INTEGER NOT NULL,
	order_id TEXT NOT NULL,
	side TEXT NOT NULL,
	price REAL NOT NULL,
	amount REAL NOT NULL
);`)
	return err
}

// RecordDecision appends one tick's decision.
func (j *Journal) RecordDecision(ctx context.Context, ts time.Time, symbol string, dec strategy.QuoteDecision) error {
	refreshed := 0
	if dec.ShouldRefresh {
		refreshed = 1
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO decisions (ts, symbol, bid, ask, amount, refreshed) VALUES (?, ?, ?, ?, ?, ?)`,
		ts.UnixMilli(), symbol, dec.BidPrice, dec.AskPrice, dec.OrderAmount, refreshed)
	return err
}

// RecordFill appends one simulated execution.
func (j *Journal) RecordFill(ctx context.Context, ts time.Time, f Fill) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO fills (ts, order_id, side, price, amount) VALUES (?, ?, ?, ?, ?)`,
		ts.UnixMilli(), f.OrderID, f.Side, f.Price, f.Amount)
	return err
}

// DecisionCount returns the number of journaled decisions, optionally only
// the ones that refreshed quotes.
func (j *Journal) DecisionCount(ctx context.Context, refreshedOnly bool) (int, error) {
	q := `SELECT COUNT(*) FROM decisions`
	if refreshedOnly {
		q += ` WHERE refreshed = 1`
	}
	var n int
	if err := j.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error { return j.db.Close() }
