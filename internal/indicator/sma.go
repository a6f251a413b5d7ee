package indicator

import "tradesim/internal/market"

// SMA is the simple moving average of the close over a rolling window.
// Windowed: each value depends only on the last period closes, so no numeric
// state is carried between calls.
type SMA struct {
	period int
	key    string
}

// NewSMA creates a simple moving average indicator with the given period.
func NewSMA(period int) *SMA {
	return &SMA{period: period, key: "sma" + suffix(period)}
}

func (s *SMA) Name() string         { return s.key }
func (s *SMA) OutputKeys() []string { return []string{s.key} }
func (s *SMA) Lookback() int        { return s.period }

func (s *SMA) Insert(tbl *market.Table, prev State) State {
	if tbl.Len() < s.period {
		return nil
	}
	tbl.AppendValue(s.key, s.mean(tbl))
	return produced{}
}

func (s *SMA) Update(tbl *market.Table, prev State) State {
	if tbl.ColLen(s.key) == 0 {
		return prev
	}
	tbl.SetCurrent(s.key, s.mean(tbl))
	return produced{}
}

func (s *SMA) mean(tbl *market.Table) float64 {
	closes := tbl.Chrono(market.ColClose)
	sum := 0.0
	for _, v := range closes[len(closes)-s.period:] {
		sum += v
	}
	return sum / float64(s.period)
}
