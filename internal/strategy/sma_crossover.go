package strategy

import (
	"fmt"
	"log/slog"

	"tradesim/internal/exchange"
	"tradesim/internal/market"
	"tradesim/internal/pipeline"
)

// SMACrossover implements a simple SMA crossover strategy.
//
// Buy signal: fast SMA crosses above slow SMA (golden cross)
// Exit signal: fast SMA crosses below slow SMA (death cross)
//
// Signals are evaluated on finalized bars only. The newest table row tracks
// the in-progress bar, so the crossover test reads one row back.
type SMACrossover struct {
	tf   string
	fast int
	slow int
	qty  float64

	fastKey string
	slowKey string

	prevFast float64
	prevSlow float64
	ready    bool

	log *slog.Logger
}

// NewSMACrossover creates a new SMA crossover strategy.
// fast < slow (e.g., 9 and 21). qty is the order size per trade.
func NewSMACrossover(tf string, fast, slow int, qty float64, log *slog.Logger) *SMACrossover {
	return &SMACrossover{
		tf:      tf,
		fast:    fast,
		slow:    slow,
		qty:     qty,
		fastKey: fmt.Sprintf("sma_%d", fast),
		slowKey: fmt.Sprintf("sma_%d", slow),
		log:     log,
	}
}

func (s *SMACrossover) Name() string {
	return fmt.Sprintf("sma_crossover_%d_%d", s.fast, s.slow)
}

func (s *SMACrossover) Timeframe() string {
	return s.tf
}

func (s *SMACrossover) Indicators() []pipeline.IndicatorSpec {
	return []pipeline.IndicatorSpec{
		{Name: "sma", Params: []float64{float64(s.fast)}},
		{Name: "sma", Params: []float64{float64(s.slow)}},
	}
}

func (s *SMACrossover) OnBoundary(tbl *market.Table, st exchange.State) ([]exchange.Order, []exchange.Edit) {
	fastCol := tbl.Chrono(s.fastKey)
	slowCol := tbl.Chrono(s.slowKey)
	// The last row is the bar that just opened; the finalized value sits one
	// row back.
	if len(fastCol) < 2 || len(slowCol) < 2 {
		return nil, nil
	}
	fast := fastCol[len(fastCol)-2]
	slow := slowCol[len(slowCol)-2]

	defer func() {
		s.prevFast = fast
		s.prevSlow = slow
		s.ready = true
	}()

	if !s.ready {
		return nil, nil
	}

	switch {
	case s.prevFast <= s.prevSlow && fast > slow && st.Position <= 0:
		s.log.Info("golden cross", "fast", fast, "slow", slow)
		orders := []exchange.Order{{Type: exchange.Market, Side: exchange.Buy, Qty: s.qty, Group: s.Name()}}
		if st.Position < 0 {
			// Cover the short before going long.
			orders = append([]exchange.Order{{
				Type: exchange.Market, Side: exchange.Buy,
				Qty: -st.Position, ReduceOnly: true, Group: s.Name(),
			}}, orders...)
		}
		return orders, nil

	case s.prevFast >= s.prevSlow && fast < slow && st.Position > 0:
		s.log.Info("death cross", "fast", fast, "slow", slow)
		return []exchange.Order{{
			Type: exchange.Market, Side: exchange.Sell,
			Qty: st.Position, ReduceOnly: true, Group: s.Name(),
		}}, nil
	}
	return nil, nil
}
