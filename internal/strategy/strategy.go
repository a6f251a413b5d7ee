// Package strategy defines the interface between the data pipeline and order
// generation, plus a reference SMA crossover implementation.
//
// A Strategy declares the indicator columns it needs; the backtest runner
// binds them into the pipeline configuration and calls OnBoundary every time
// a bar finalizes on the strategy's timeframe, passing the table and the
// current account state. The strategy answers with new orders and edits,
// which the runner files for execution against the next bar.
package strategy

import (
	"tradesim/internal/exchange"
	"tradesim/internal/market"
	"tradesim/internal/pipeline"
)

// Strategy is the interface all trading strategies implement.
type Strategy interface {
	// Name returns the unique name of the strategy.
	Name() string

	// Timeframe returns the timeframe string the strategy trades on.
	Timeframe() string

	// Indicators returns the indicator specs the strategy reads, keyed the
	// way the pipeline config expects.
	Indicators() []pipeline.IndicatorSpec

	// OnBoundary is called after each finalized bar on the strategy's
	// timeframe with the bound table and the current account state.
	OnBoundary(tbl *market.Table, st exchange.State) ([]exchange.Order, []exchange.Edit)
}
