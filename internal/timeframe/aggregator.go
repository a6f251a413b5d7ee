package timeframe

import "tradesim/internal/model"

// Aggregator folds finer bars into one in-progress bar of its timeframe.
// Single-goroutine, step-at-a-time; the caller serializes Step calls in
// non-decreasing timestamp order.
type Aggregator struct {
	tf      Timeframe
	acc     model.Candle
	started bool
}

// NewAggregator creates an aggregator for the given target timeframe.
func NewAggregator(tf Timeframe) *Aggregator {
	return &Aggregator{tf: tf}
}

// Timeframe returns the target timeframe.
func (a *Aggregator) Timeframe() Timeframe { return a.tf }

// Step folds one finer bar into the accumulator and returns the resulting
// in-progress coarser bar plus whether c opened a new bar of the target
// timeframe. On a boundary the accumulator resets to the incoming candle
// verbatim; off boundary the run's timestamp and open are kept, high/low
// extend, close tracks the incoming close and volume accumulates.
func (a *Aggregator) Step(c model.Candle) (model.Candle, bool) {
	if a.tf.IsBoundary(c.TS) {
		a.acc = c
		a.started = true
		return a.acc, true
	}

	if !a.started {
		// Mid-bar start: seed from the incoming candle instead of
		// comparing against zero values.
		a.acc = c
		a.started = true
		return a.acc, false
	}

	if c.High > a.acc.High {
		a.acc.High = c.High
	}
	if c.Low < a.acc.Low {
		a.acc.Low = c.Low
	}
	a.acc.Close = c.Close
	a.acc.Volume += c.Volume
	return a.acc, false
}
