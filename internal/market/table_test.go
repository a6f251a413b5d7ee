package market

import (
	"testing"
	"time"

	"tradesim/internal/model"
	"tradesim/internal/series"
)

func bar(min int64, o, h, l, c, v float64) model.Candle {
	return model.Candle{
		TS: time.Unix(min*60, 0).UTC(),
		Open: o, High: h, Low: l, Close: c, Volume: v,
	}
}

func TestAppendAndReviseBar(t *testing.T) {
	tbl := New(true)
	tbl.AppendBar(bar(0, 10, 12, 9, 11, 100))
	tbl.AppendBar(bar(1, 11, 13, 10, 12, 200))

	if tbl.Len() != 2 {
		t.Fatalf("Len()=%d, want 2", tbl.Len())
	}
	if got := tbl.Chrono(ColClose); got[0] != 11 || got[1] != 12 {
		t.Errorf("chrono close=%v, want [11 12]", got)
	}
	// Inverted ordering: index 0 is the current bar.
	if got := tbl.Inv(ColClose).Get(0); got != 12 {
		t.Errorf("inv close[0]=%v, want 12", got)
	}
	if got := tbl.Inv(ColClose).Get(1); got != 11 {
		t.Errorf("inv close[1]=%v, want 11", got)
	}

	tbl.ReviseBar(bar(1, 11, 14, 10, 13, 250))
	if tbl.Len() != 2 {
		t.Fatalf("revise grew table: Len()=%d", tbl.Len())
	}
	if got := tbl.Current(ColHigh); got != 14 {
		t.Errorf("current high=%v, want 14", got)
	}
	if got := tbl.Inv(ColClose).Get(0); got != 13 {
		t.Errorf("inv close[0]=%v, want 13", got)
	}
}

func TestIndicatorColumnsLagBaseColumns(t *testing.T) {
	tbl := New(true)
	for i := 0; i < 5; i++ {
		tbl.AppendBar(bar(int64(i), 10, 12, 9, 11, 100))
	}
	// Indicator starts producing on the 4th bar.
	tbl.AppendValue("sma_3", 1.0)
	tbl.AppendValue("sma_3", 2.0)

	if tbl.ColLen("sma_3") != 2 {
		t.Fatalf("ColLen(sma_3)=%d, want 2", tbl.ColLen("sma_3"))
	}
	if got := tbl.Inv("sma_3").Get(0); got != 2.0 {
		t.Errorf("inv sma_3[0]=%v, want 2", got)
	}

	tbl.SetCurrent("sma_3", 2.5)
	if tbl.ColLen("sma_3") != 2 {
		t.Errorf("SetCurrent changed length: %d", tbl.ColLen("sma_3"))
	}
	if got := tbl.Chrono("sma_3")[1]; got != 2.5 {
		t.Errorf("chrono sma_3[1]=%v, want 2.5", got)
	}
}

func TestTrimKeepsAllColumnsAligned(t *testing.T) {
	tbl := New(true)
	for i := 0; i < 10; i++ {
		tbl.AppendBar(bar(int64(i), float64(i), float64(i), float64(i), float64(i), 1))
		if i >= 4 {
			tbl.AppendValue("x", float64(i))
		}
	}

	if d := tbl.Trim(3); d != 7 {
		t.Fatalf("Trim(3) discarded %d bars, want 7", d)
	}
	if tbl.Len() != 3 {
		t.Fatalf("Len()=%d, want 3", tbl.Len())
	}
	for _, name := range tbl.Columns() {
		if l := tbl.ColLen(name); l > 3 {
			t.Errorf("column %s: len %d > keep 3", name, l)
		}
		if l, il := tbl.ColLen(name), tbl.Inv(name).Len(); l != il {
			t.Errorf("column %s: chrono len %d != inverted len %d", name, l, il)
		}
	}
	// Newest values survive.
	if got := tbl.Current(ColClose); got != 9 {
		t.Errorf("current close=%v, want 9", got)
	}
	if got := tbl.Current("x"); got != 9 {
		t.Errorf("current x=%v, want 9", got)
	}
}

func TestRewoundDropsNewestBar(t *testing.T) {
	tbl := New(true)
	for i := 0; i < 4; i++ {
		tbl.AppendBar(bar(int64(i), 10+float64(i), 12, 9, 11+float64(i), 100))
	}
	tbl.AppendValue("sma_3", 42)

	snap := tbl.Rewound()
	if snap.Len() != 3 {
		t.Fatalf("rewound Len()=%d, want 3", snap.Len())
	}
	if snap.Current(ColClose) != 13 {
		t.Errorf("rewound current close=%v, want 13", snap.Current(ColClose))
	}
	if snap.Has("sma_3") {
		t.Error("rewound snapshot carried an indicator column")
	}
	if got := snap.Inv(ColClose).Get(0); got != 13 {
		t.Errorf("rewound inv close[0]=%v, want 13", got)
	}
}

func TestNonInvertedTable(t *testing.T) {
	tbl := New(false)
	tbl.AppendBar(bar(0, 10, 12, 9, 11, 100))
	if tbl.Inv(ColClose).Len() != 0 {
		t.Error("non-inverted table maintained an inverted ordering")
	}
	if got := tbl.Current(ColClose); got != 11 {
		t.Errorf("current close=%v, want 11", got)
	}
	if !series.IsEmpty(tbl.Current("missing")) {
		t.Error("Current on missing column should be Empty")
	}
}
