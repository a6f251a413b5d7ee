package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tradesim/internal/exchange"
	"tradesim/internal/model"
)

func TestCandleRoundTrip(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "candles.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	in := []model.Candle{
		{TS: time.Unix(0, 0).UTC(), Open: 100, High: 110, Low: 90, Close: 105, Volume: 10},
		{TS: time.Unix(60, 0).UTC(), Open: 105, High: 115, Low: 100, Close: 110, Volume: 12},
		{TS: time.Unix(120, 0).UTC(), Open: 110, High: 112, Low: 108, Close: 111, Volume: 8},
	}
	if err := store.WriteCandles(ctx, in); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Re-writing the same timestamps must upsert, not duplicate.
	in[1].Close = 109
	if err := store.WriteCandles(ctx, in[1:2]); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	cur, err := store.Candles(ctx, 0)
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	defer cur.Close()

	var got []model.Candle
	for {
		c, ok, err := cur.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, c)
	}
	if len(got) != 2 { // afterTS=0 excludes the ts=0 candle
		t.Fatalf("got %d candles, want 2", len(got))
	}
	if got[0].Close != 109 {
		t.Fatalf("upsert not applied: close = %v", got[0].Close)
	}
	if !got[0].TS.Before(got[1].TS) {
		t.Fatal("candles not ascending")
	}
}

func TestJournalRecordsFills(t *testing.T) {
	j, err := NewJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer j.Close()

	ts := time.Unix(300, 0).UTC()
	err = j.Record(ts, []exchange.Report{
		{
			Order:     exchange.Order{ID: "a", Side: exchange.Buy, Type: exchange.Market, Qty: 10},
			Status:    exchange.Filled,
			FillPrice: 7000,
		},
		{
			Order:  exchange.Order{ID: "b", Side: exchange.Sell, Type: exchange.Limit, Qty: 5},
			Status: exchange.Rejected,
			Reason: "insufficient position",
		},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	fills, err := j.Fills(10)
	if err != nil {
		t.Fatalf("fills: %v", err)
	}
	if len(fills) != 2 {
		t.Fatalf("got %d records, want 2", len(fills))
	}
	// Newest first.
	if fills[0].OrderID != "b" || fills[0].Reason != "insufficient position" {
		t.Fatalf("first record = %+v", fills[0])
	}
	if fills[1].FillPrice != 7000 {
		t.Fatalf("fill price = %v", fills[1].FillPrice)
	}
}
