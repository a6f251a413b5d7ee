// Package market provides the MarketTable: a set of named, length-aligned
// columns holding OHLCV data plus derived indicator outputs. Every column is
// kept in two orderings at once: chronological (oldest-first, the shape batch
// math and talib-style libraries want) and inverted (newest-first, index 0 =
// current bar, the shape indicators and strategies read).
package market

import (
	"tradesim/internal/model"
	"tradesim/internal/series"
)

// Base column names. Indicator outputs add further columns.
const (
	ColTime   = "time"
	ColOpen   = "open"
	ColHigh   = "high"
	ColLow    = "low"
	ColClose  = "close"
	ColVolume = "volume"
)

var baseColumns = []string{ColTime, ColOpen, ColHigh, ColLow, ColClose, ColVolume}

type column struct {
	chrono []float64
	inv    *series.Series
}

// Table is a mapping from column name to an aligned pair of orderings.
// The base OHLCV columns always share one length (the bar count); indicator
// columns may be shorter during their warm-up, covering only the most recent
// bars. Not safe for concurrent use.
type Table struct {
	names    []string
	cols     map[string]*column
	inverted bool
}

// New creates an empty table seeded with the base OHLCV columns.
// When inverted is false, the newest-first ordering is not maintained and
// Inv returns an empty series for every column.
func New(inverted bool) *Table {
	t := &Table{
		cols:     make(map[string]*column, 8),
		inverted: inverted,
	}
	for _, name := range baseColumns {
		t.addColumn(name)
	}
	return t
}

func (t *Table) addColumn(name string) *column {
	c := &column{inv: series.New(64)}
	t.cols[name] = c
	t.names = append(t.names, name)
	return c
}

// Len returns the bar count.
func (t *Table) Len() int { return len(t.cols[ColTime].chrono) }

// Columns returns the column names in creation order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Has reports whether a column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// ColLen returns a column's length (0 for unknown columns).
func (t *Table) ColLen(name string) int {
	c, ok := t.cols[name]
	if !ok {
		return 0
	}
	return len(c.chrono)
}

// AppendBar appends a new bar to every base column in both orderings.
func (t *Table) AppendBar(c model.Candle) {
	t.appendBase(ColTime, float64(c.TS.Unix()))
	t.appendBase(ColOpen, c.Open)
	t.appendBase(ColHigh, c.High)
	t.appendBase(ColLow, c.Low)
	t.appendBase(ColClose, c.Close)
	t.appendBase(ColVolume, c.Volume)
}

// ReviseBar overwrites the current (newest) bar in every base column.
// No-op on an empty table.
func (t *Table) ReviseBar(c model.Candle) {
	if t.Len() == 0 {
		return
	}
	t.SetCurrent(ColTime, float64(c.TS.Unix()))
	t.SetCurrent(ColOpen, c.Open)
	t.SetCurrent(ColHigh, c.High)
	t.SetCurrent(ColLow, c.Low)
	t.SetCurrent(ColClose, c.Close)
	t.SetCurrent(ColVolume, c.Volume)
}

func (t *Table) appendBase(name string, v float64) {
	col := t.cols[name]
	col.chrono = append(col.chrono, v)
	if t.inverted {
		col.inv.Prepend(v)
	}
}

// AppendValue appends one value to a column, creating it on first use.
// Indicator outputs land here exactly once per finalized bar.
func (t *Table) AppendValue(name string, v float64) {
	col, ok := t.cols[name]
	if !ok {
		col = t.addColumn(name)
	}
	col.chrono = append(col.chrono, v)
	if t.inverted {
		col.inv.Prepend(v)
	}
}

// SetCurrent overwrites the newest value of a column in both orderings
// without changing its length. Unknown or empty columns are ignored.
func (t *Table) SetCurrent(name string, v float64) {
	col, ok := t.cols[name]
	if !ok || len(col.chrono) == 0 {
		return
	}
	col.chrono[len(col.chrono)-1] = v
	if t.inverted {
		col.inv.Set(0, v)
	}
}

// Chrono returns a column in chronological (oldest-first) order. The slice
// aliases table storage; callers must not mutate it.
func (t *Table) Chrono(name string) []float64 {
	c, ok := t.cols[name]
	if !ok {
		return nil
	}
	return c.chrono
}

// Inv returns a column in inverted (newest-first) order.
func (t *Table) Inv(name string) *series.Series {
	c, ok := t.cols[name]
	if !ok {
		return series.New(2)
	}
	return c.inv
}

// Current returns the newest value of a column, or series.Empty if the
// column is missing or empty.
func (t *Table) Current(name string) float64 {
	c, ok := t.cols[name]
	if !ok || len(c.chrono) == 0 {
		return series.Empty
	}
	return c.chrono[len(c.chrono)-1]
}

// Trim retains only the keep most recent values of every column, preserving
// the aligned-length invariant. Returns the number of bars discarded.
func (t *Table) Trim(keep int) int {
	if keep < 0 {
		keep = 0
	}
	discarded := t.Len() - keep
	if discarded <= 0 {
		return 0
	}
	for _, name := range t.names {
		col := t.cols[name]
		if d := len(col.chrono) - keep; d > 0 {
			col.chrono = col.chrono[d:]
		}
		col.inv.Keep(keep)
	}
	return discarded
}

// Rewound returns a snapshot of the table with the newest bar removed from
// the base columns and no indicator columns. It backs the pipeline's
// first-value fix-up: an indicator's Insert can be replayed against it as if
// the still-partial newest bar had never arrived.
func (t *Table) Rewound() *Table {
	snap := New(t.inverted)
	for _, name := range baseColumns {
		src := t.cols[name].chrono
		if len(src) == 0 {
			continue
		}
		for _, v := range src[:len(src)-1] {
			snap.appendBase(name, v)
		}
	}
	return snap
}
