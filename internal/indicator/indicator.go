// Package indicator provides streaming technical indicators over market
// tables.
//
// Every indicator satisfies the Indicator interface: Insert appends exactly
// one value per output column when a bar finalizes, Update revises the
// current still-open bar in place, and an opaque State value is threaded from
// one call to the next. The binding contract is that replaying bars one at a
// time through Insert/Update produces, at every finalized bar, the exact
// value a from-scratch recomputation over the finalized history would give.
package indicator

import (
	"errors"
	"fmt"
	"strconv"

	"tradesim/internal/market"
)

// ErrUnknownIndicator reports an unrecognized indicator name in a
// configuration. It is fatal at setup time.
var ErrUnknownIndicator = errors.New("unknown indicator")

// State is the opaque streaming state of one indicator instance on one
// timeframe. A nil State means the indicator has not produced a value yet.
// Its only contract is "whatever is needed to keep future increments
// consistent with a full batch recomputation".
type State any

// Indicator is the streaming indicator contract.
//
// Insert is called exactly once when a timeframe's bar finalizes a boundary:
// it appends one new value to each output column, or, when fewer bars exist
// than Lookback requires, writes nothing and returns nil. Update is called on
// every later revision of the still-open current bar: it overwrites the
// newest value of each output column in place and never changes column
// length.
type Indicator interface {
	// Name returns the instance name, e.g. "sma_20".
	Name() string

	// OutputKeys returns the table column names this indicator writes.
	OutputKeys() []string

	// Lookback returns the minimum bars required before the first output.
	// Recursive indicators declare their full convergence window here, not
	// just their nominal period.
	Lookback() int

	Insert(tbl *market.Table, prev State) State
	Update(tbl *market.Table, prev State) State
}

// New instantiates an indicator by configuration name and parameters.
// Recognized names: "sma", "ema", "rsi", "bbands", "heikinashi".
func New(name string, params []float64) (Indicator, error) {
	switch name {
	case "sma":
		period, err := intParam(name, params, 0, "period")
		if err != nil {
			return nil, err
		}
		return NewSMA(period), nil
	case "ema":
		period, err := intParam(name, params, 0, "period")
		if err != nil {
			return nil, err
		}
		return NewEMA(period), nil
	case "rsi":
		period, err := intParam(name, params, 0, "period")
		if err != nil {
			return nil, err
		}
		return NewRSI(period), nil
	case "bbands":
		period, err := intParam(name, params, 0, "period")
		if err != nil {
			return nil, err
		}
		width := 2.0
		if len(params) > 1 {
			width = params[1]
		}
		return NewBollinger(period, width), nil
	case "heikinashi":
		return NewHeikinAshi(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndicator, name)
	}
}

func intParam(name string, params []float64, i int, label string) (int, error) {
	if i >= len(params) {
		return 0, fmt.Errorf("indicator %s: missing %s parameter", name, label)
	}
	n := int(params[i])
	if n <= 0 || float64(n) != params[i] {
		return 0, fmt.Errorf("indicator %s: %s must be a positive integer, got %v", name, label, params[i])
	}
	return n, nil
}

// produced is the State of windowed indicators, which carry no numeric state
// between calls; a non-nil value just records that output exists.
type produced struct{}

func suffix(period int) string { return "_" + strconv.Itoa(period) }
