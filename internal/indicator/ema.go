package indicator

import "tradesim/internal/market"

// EMA is the exponential moving average of the close, seeded by the simple
// average of the first period closes and recursive from there.
//
// Being recursive, it declares a convergence window of twice its nominal
// period: no output is produced until 2*period bars exist, at which point the
// streamed recursion and a from-scratch recomputation agree exactly.
type EMA struct {
	period int
	mult   float64
	key    string
}

type emaState struct {
	value float64 // EMA through the bar that was current when computed
}

// NewEMA creates an exponential moving average indicator with the given period.
func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		mult:   2.0 / float64(period+1),
		key:    "ema" + suffix(period),
	}
}

func (e *EMA) Name() string         { return e.key }
func (e *EMA) OutputKeys() []string { return []string{e.key} }
func (e *EMA) Lookback() int        { return 2 * e.period }

func (e *EMA) Insert(tbl *market.Table, prev State) State {
	st, ok := prev.(emaState)
	if !ok {
		if tbl.Len() < e.Lookback() {
			return nil
		}
		v := e.batch(tbl)
		tbl.AppendValue(e.key, v)
		return emaState{value: v}
	}
	v := e.step(st.value, tbl.Current(market.ColClose))
	tbl.AppendValue(e.key, v)
	return emaState{value: v}
}

func (e *EMA) Update(tbl *market.Table, prev State) State {
	if tbl.ColLen(e.key) == 0 {
		return prev
	}
	st, ok := prev.(emaState)
	if !ok {
		// No finalized-bar state yet (the value just written was the
		// first): revise from a full recomputation instead.
		v := e.batch(tbl)
		tbl.SetCurrent(e.key, v)
		return emaState{value: v}
	}
	v := e.step(st.value, tbl.Current(market.ColClose))
	tbl.SetCurrent(e.key, v)
	return emaState{value: v}
}

func (e *EMA) step(prev, close float64) float64 {
	return close*e.mult + prev*(1-e.mult)
}

// batch recomputes the EMA from scratch over the whole table.
func (e *EMA) batch(tbl *market.Table) float64 {
	closes := tbl.Chrono(market.ColClose)
	sum := 0.0
	for _, v := range closes[:e.period] {
		sum += v
	}
	v := sum / float64(e.period)
	for _, c := range closes[e.period:] {
		v = e.step(v, c)
	}
	return v
}
