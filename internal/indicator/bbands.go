package indicator

import (
	"math"

	"tradesim/internal/market"
)

// Bollinger computes Bollinger-style bands: an SMA middle band with upper and
// lower bands at width population standard deviations. Windowed over the last
// period closes; three output columns.
type Bollinger struct {
	period int
	width  float64
	keys   []string
}

// NewBollinger creates a Bollinger band indicator. width is the band distance
// in standard deviations (conventionally 2).
func NewBollinger(period int, width float64) *Bollinger {
	s := suffix(period)
	return &Bollinger{
		period: period,
		width:  width,
		keys:   []string{"bb_upper" + s, "bb_middle" + s, "bb_lower" + s},
	}
}

func (b *Bollinger) Name() string         { return "bbands" + suffix(b.period) }
func (b *Bollinger) OutputKeys() []string { return b.keys }
func (b *Bollinger) Lookback() int        { return b.period }

func (b *Bollinger) Insert(tbl *market.Table, prev State) State {
	if tbl.Len() < b.period {
		return nil
	}
	upper, middle, lower := b.bands(tbl)
	tbl.AppendValue(b.keys[0], upper)
	tbl.AppendValue(b.keys[1], middle)
	tbl.AppendValue(b.keys[2], lower)
	return produced{}
}

func (b *Bollinger) Update(tbl *market.Table, prev State) State {
	if tbl.ColLen(b.keys[1]) == 0 {
		return prev
	}
	upper, middle, lower := b.bands(tbl)
	tbl.SetCurrent(b.keys[0], upper)
	tbl.SetCurrent(b.keys[1], middle)
	tbl.SetCurrent(b.keys[2], lower)
	return produced{}
}

func (b *Bollinger) bands(tbl *market.Table) (upper, middle, lower float64) {
	closes := tbl.Chrono(market.ColClose)
	window := closes[len(closes)-b.period:]

	sum := 0.0
	for _, v := range window {
		sum += v
	}
	middle = sum / float64(b.period)

	variance := 0.0
	for _, v := range window {
		d := v - middle
		variance += d * d
	}
	dev := math.Sqrt(variance / float64(b.period))

	return middle + b.width*dev, middle, middle - b.width*dev
}
