package indicator

import (
	"math"

	"tradesim/internal/market"
)

// HeikinAshi is the recursive Heikin-Ashi candle transform. Each synthetic
// candle's open depends on the previous synthetic candle, making this the
// protocol's hard case for state threading: four output columns, recursion
// from the very first bar.
type HeikinAshi struct {
	keys []string
}

type haState struct {
	open  float64
	close float64
}

// NewHeikinAshi creates a Heikin-Ashi candle transform.
func NewHeikinAshi() *HeikinAshi {
	return &HeikinAshi{keys: []string{"ha_open", "ha_high", "ha_low", "ha_close"}}
}

func (h *HeikinAshi) Name() string         { return "heikinashi" }
func (h *HeikinAshi) OutputKeys() []string { return h.keys }
func (h *HeikinAshi) Lookback() int        { return 1 }

func (h *HeikinAshi) Insert(tbl *market.Table, prev State) State {
	if tbl.Len() == 0 {
		return nil
	}
	st, ok := prev.(haState)
	if !ok {
		st = h.batch(tbl)
	} else {
		st = h.step(st, tbl)
	}
	h.write(tbl, st, tbl.AppendValue)
	return st
}

func (h *HeikinAshi) Update(tbl *market.Table, prev State) State {
	if tbl.ColLen(h.keys[0]) == 0 {
		return prev
	}
	st, ok := prev.(haState)
	if !ok {
		st = h.batch(tbl)
	} else {
		st = h.step(st, tbl)
	}
	h.write(tbl, st, tbl.SetCurrent)
	return st
}

// step derives the synthetic candle for the table's current bar from the
// previous synthetic candle.
func (h *HeikinAshi) step(prev haState, tbl *market.Table) haState {
	o := tbl.Current(market.ColOpen)
	hi := tbl.Current(market.ColHigh)
	lo := tbl.Current(market.ColLow)
	c := tbl.Current(market.ColClose)
	return haState{
		open:  (prev.open + prev.close) / 2,
		close: (o + hi + lo + c) / 4,
	}
}

// batch recomputes the recursion from the first bar of the table.
func (h *HeikinAshi) batch(tbl *market.Table) haState {
	opens := tbl.Chrono(market.ColOpen)
	highs := tbl.Chrono(market.ColHigh)
	lows := tbl.Chrono(market.ColLow)
	closes := tbl.Chrono(market.ColClose)

	st := haState{
		open:  (opens[0] + closes[0]) / 2,
		close: (opens[0] + highs[0] + lows[0] + closes[0]) / 4,
	}
	for i := 1; i < len(opens); i++ {
		st = haState{
			open:  (st.open + st.close) / 2,
			close: (opens[i] + highs[i] + lows[i] + closes[i]) / 4,
		}
	}
	return st
}

func (h *HeikinAshi) write(tbl *market.Table, st haState, put func(string, float64)) {
	hi := math.Max(tbl.Current(market.ColHigh), math.Max(st.open, st.close))
	lo := math.Min(tbl.Current(market.ColLow), math.Min(st.open, st.close))
	put(h.keys[0], st.open)
	put(h.keys[1], hi)
	put(h.keys[2], lo)
	put(h.keys[3], st.close)
}
