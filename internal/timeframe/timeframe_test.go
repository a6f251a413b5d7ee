package timeframe

import (
	"errors"
	"testing"
	"time"

	"tradesim/internal/model"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		unit Unit
	}{
		{"1m", 1, Minutes},
		{"15m", 15, Minutes},
		{"4h", 4, Hours},
		{"1d", 1, Days},
	}
	for _, c := range cases {
		tf, err := Parse(c.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", c.in, err)
			continue
		}
		if tf.N != c.n || tf.Unit != c.unit {
			t.Errorf("Parse(%q)=%+v, want {%d %c}", c.in, tf, c.n, c.unit)
		}
		if tf.String() != c.in {
			t.Errorf("String()=%q, want %q", tf.String(), c.in)
		}
	}

	for _, bad := range []string{"", "m", "0m", "-4h", "3w", "h4", "4.5h"} {
		if _, err := Parse(bad); !errors.Is(err, ErrBadTimeframe) {
			t.Errorf("Parse(%q): err=%v, want ErrBadTimeframe", bad, err)
		}
	}
}

func TestIsBoundaryUTC(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2024, 3, 7, h, m, 0, 0, time.UTC)
	}

	tf4h, _ := Parse("4h")
	if !tf4h.IsBoundary(at(8, 0)) {
		t.Error("4h: 08:00 UTC must be a boundary")
	}
	if tf4h.IsBoundary(at(8, 30)) {
		t.Error("4h: 08:30 UTC must not be a boundary")
	}
	if tf4h.IsBoundary(at(9, 0)) {
		t.Error("4h: 09:00 UTC must not be a boundary")
	}

	// Detection must use UTC regardless of the timestamp's location.
	ist := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2024, 3, 7, 13, 30, 0, 0, ist) // 08:00 UTC
	if !tf4h.IsBoundary(local) {
		t.Error("4h: 13:30 IST (08:00 UTC) must be a boundary")
	}

	tf15m, _ := Parse("15m")
	if !tf15m.IsBoundary(at(9, 45)) {
		t.Error("15m: :45 must be a boundary")
	}
	if tf15m.IsBoundary(at(9, 50)) {
		t.Error("15m: :50 must not be a boundary")
	}

	tf2d, _ := Parse("2d")
	day := func(d, h int) time.Time {
		return time.Date(2024, 1, d, h, 0, 0, 0, time.UTC)
	}
	if !tf2d.IsBoundary(day(2, 0)) { // yearDay 2, 2%2==0
		t.Error("2d: Jan 2 midnight must be a boundary")
	}
	if tf2d.IsBoundary(day(3, 0)) {
		t.Error("2d: Jan 3 midnight must not be a boundary")
	}
	if tf2d.IsBoundary(day(2, 1)) {
		t.Error("2d: Jan 2 01:00 must not be a boundary")
	}
}

func TestAggregatorMerge(t *testing.T) {
	// Two consecutive minute bars folded into a 2m bar: the first opens the
	// bar, the second extends it.
	first := model.FromTuple([6]float64{0, 7000, 7100, 6990, 7010, 10000})
	second := model.FromTuple([6]float64{1, 7010, 9500, 7000, 7900, 10000})

	tf, _ := Parse("2m")
	agg := NewAggregator(tf)

	out, boundary := agg.Step(first)
	if !boundary {
		t.Fatal("minute 0 must open a 2m bar")
	}
	if out != first {
		t.Fatalf("boundary must pass the candle through verbatim: %+v", out)
	}

	out, boundary = agg.Step(second)
	if boundary {
		t.Fatal("minute 1 must not open a 2m bar")
	}
	want := model.Candle{
		TS: first.TS, Open: 7000, High: 9500, Low: 6990, Close: 7900, Volume: 20000,
	}
	if out != want {
		t.Fatalf("merged bar=%+v, want %+v", out, want)
	}
}

func TestAggregatorSeedsMidBar(t *testing.T) {
	// First-ever candle lands off-boundary: the accumulator seeds from it
	// instead of merging against zero values.
	tf, _ := Parse("1h")
	agg := NewAggregator(tf)

	c := model.Candle{
		TS:   time.Date(2024, 3, 7, 9, 17, 0, 0, time.UTC),
		Open: 50, High: 55, Low: 48, Close: 52, Volume: 10,
	}
	out, boundary := agg.Step(c)
	if boundary {
		t.Fatal("09:17 must not be an hourly boundary")
	}
	if out != c {
		t.Fatalf("mid-bar seed=%+v, want incoming candle", out)
	}

	next := model.Candle{
		TS:   time.Date(2024, 3, 7, 9, 18, 0, 0, time.UTC),
		Open: 52, High: 60, Low: 51, Close: 59, Volume: 5,
	}
	out, _ = agg.Step(next)
	if out.Open != 50 || out.High != 60 || out.Low != 48 || out.Close != 59 || out.Volume != 15 {
		t.Fatalf("merge after seed=%+v", out)
	}
}

func TestAggregatorBarCountRatio(t *testing.T) {
	// floor(base/ratio)+1 bars for a stream starting on a boundary.
	tf, _ := Parse("5m")
	agg := NewAggregator(tf)

	base := 137
	boundaries := 0
	for i := 0; i < base; i++ {
		c := model.FromTuple([6]float64{float64(i), 100, 101, 99, 100, 1})
		if _, b := agg.Step(c); b {
			boundaries++
		}
	}
	want := base/5 + 1
	if boundaries != want {
		t.Errorf("boundaries=%d, want %d", boundaries, want)
	}
}
