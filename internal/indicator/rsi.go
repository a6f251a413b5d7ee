package indicator

import "tradesim/internal/market"

// RSI is the relative strength index using Wilder's smoothing: the first
// average gain/loss is the simple average of the first period deltas, later
// averages are recursively smoothed. First output after period+1 bars.
type RSI struct {
	period int
	key    string
}

type rsiState struct {
	prevClose float64
	avgGain   float64
	avgLoss   float64
}

// NewRSI creates an RSI indicator with the given period (typically 14).
func NewRSI(period int) *RSI {
	return &RSI{period: period, key: "rsi" + suffix(period)}
}

func (r *RSI) Name() string         { return r.key }
func (r *RSI) OutputKeys() []string { return []string{r.key} }
func (r *RSI) Lookback() int        { return r.period + 1 }

func (r *RSI) Insert(tbl *market.Table, prev State) State {
	st, ok := prev.(rsiState)
	if !ok {
		if tbl.Len() < r.Lookback() {
			return nil
		}
		st = r.batch(tbl)
		tbl.AppendValue(r.key, value(st))
		return st
	}
	next := r.step(st, tbl.Current(market.ColClose))
	tbl.AppendValue(r.key, value(next))
	return next
}

func (r *RSI) Update(tbl *market.Table, prev State) State {
	if tbl.ColLen(r.key) == 0 {
		return prev
	}
	st, ok := prev.(rsiState)
	if !ok {
		next := r.batch(tbl)
		tbl.SetCurrent(r.key, value(next))
		return next
	}
	next := r.step(st, tbl.Current(market.ColClose))
	tbl.SetCurrent(r.key, value(next))
	return next
}

func (r *RSI) step(st rsiState, close float64) rsiState {
	delta := close - st.prevClose
	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}
	p := float64(r.period)
	return rsiState{
		prevClose: close,
		avgGain:   (st.avgGain*(p-1) + gain) / p,
		avgLoss:   (st.avgLoss*(p-1) + loss) / p,
	}
}

// batch recomputes Wilder's recursion from scratch over the whole table.
func (r *RSI) batch(tbl *market.Table) rsiState {
	closes := tbl.Chrono(market.ColClose)
	var gains, losses float64
	for i := 1; i <= r.period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	p := float64(r.period)
	st := rsiState{
		prevClose: closes[r.period],
		avgGain:   gains / p,
		avgLoss:   losses / p,
	}
	for _, c := range closes[r.period+1:] {
		st = r.step(st, c)
	}
	return st
}

func value(st rsiState) float64 {
	if st.avgLoss == 0 {
		return 100.0
	}
	rs := st.avgGain / st.avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
