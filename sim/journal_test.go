package sim

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"quote-engine-go/strategy"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := OpenJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournalRecordsDecisions(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	now := time.Now()

	refresh := strategy.QuoteDecision{BidPrice: 99.95, AskPrice: 100.05, OrderAmount: 0.01, ShouldRefresh: true}
	hold := strategy.QuoteDecision{}

	if err := j.RecordDecision(ctx, now, "BTCUSDT", refresh); err != nil {
		t.Fatalf("record refresh: %v", err)
	}
	if err := j.RecordDecision(ctx, now, "BTCUSDT", hold); err != nil {
		t.Fatalf("record hold: %v", err)
	}

	total, err := j.DecisionCount(ctx, false)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 2 {
		t.Fatalf("total decisions = %d, want 2", total)
	}
	refreshed, err := j.DecisionCount(ctx, true)
	if err != nil {
		t.Fatalf("count refreshed: %v", err)
	}
	if refreshed != 1 {
		t.Fatalf("refreshed decisions = %d, want 1", refreshed)
	}
}

func TestJournalRecordsFills(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	f := Fill{OrderID: "paper-1", Side: "BUY", Price: 99.95, Amount: 0.01}
	if err := j.RecordFill(ctx, time.Now(), f); err != nil {
		t.Fatalf("record fill: %v", err)
	}

	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fills`).Scan(&n); err != nil {
		t.Fatalf("query fills: %v", err)
	}
	if n != 1 {
		t.Fatalf("fills = %d, want 1", n)
	}
}
