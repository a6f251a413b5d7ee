// Package timeframe provides timeframe parsing, UTC boundary detection, and
// an incremental aggregator that folds finer bars into a coarser timeframe's
// in-progress bar.
package timeframe

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrBadTimeframe reports a malformed timeframe string. It is a
// configuration mistake and aborts construction.
var ErrBadTimeframe = errors.New("malformed timeframe")

// Unit is a timeframe duration unit.
type Unit byte

const (
	Minutes Unit = 'm'
	Hours   Unit = 'h'
	Days    Unit = 'd'
)

// Timeframe is a nominal bar duration such as "1m", "4h" or "2d".
type Timeframe struct {
	N    int
	Unit Unit
}

// Parse parses a timeframe string like "15m", "4h", "1d".
func Parse(s string) (Timeframe, error) {
	if len(s) < 2 {
		return Timeframe{}, fmt.Errorf("%w: %q", ErrBadTimeframe, s)
	}
	unit := Unit(s[len(s)-1])
	switch unit {
	case Minutes, Hours, Days:
	default:
		return Timeframe{}, fmt.Errorf("%w: %q (unit must be m, h or d)", ErrBadTimeframe, s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return Timeframe{}, fmt.Errorf("%w: %q (count must be a positive integer)", ErrBadTimeframe, s)
	}
	return Timeframe{N: n, Unit: unit}, nil
}

// String returns the canonical "15m"-style form.
func (tf Timeframe) String() string {
	return strconv.Itoa(tf.N) + string(tf.Unit)
}

// Duration returns the nominal bar duration.
func (tf Timeframe) Duration() time.Duration {
	switch tf.Unit {
	case Minutes:
		return time.Duration(tf.N) * time.Minute
	case Hours:
		return time.Duration(tf.N) * time.Hour
	default:
		return time.Duration(tf.N) * 24 * time.Hour
	}
}

// IsBoundary reports whether ts opens a new bar of this timeframe.
// Detection is calendar-field modulo in UTC, never local time: a timeframe of
// n minutes starts when minute%n == 0; n hours when hour%n == 0 at the top of
// the hour; n days when dayOfYear%n == 0 at midnight.
func (tf Timeframe) IsBoundary(ts time.Time) bool {
	u := ts.UTC()
	switch tf.Unit {
	case Minutes:
		return u.Minute()%tf.N == 0
	case Hours:
		return u.Hour()%tf.N == 0 && u.Minute() == 0
	default:
		return u.YearDay()%tf.N == 0 && u.Hour() == 0 && u.Minute() == 0
	}
}
