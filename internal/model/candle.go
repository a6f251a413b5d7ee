package model

import (
	"time"

	json "github.com/goccy/go-json"
)

// Candle represents one OHLCV observation over a fixed duration.
// TS is the bar's opening time (UTC-aligned to the bar's timeframe).
type Candle struct {
	TS     time.Time `json:"ts"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// FromTuple builds a Candle from a 6-field fixture tuple
// [minuteIndex, open, high, low, close, volume]. The first field is an
// abstract minute index realized as a UTC minute-aligned timestamp, which is
// the format backtest fixtures are written in.
func FromTuple(t [6]float64) Candle {
	return Candle{
		TS:     time.Unix(int64(t[0])*60, 0).UTC(),
		Open:   t[1],
		High:   t[2],
		Low:    t[3],
		Close:  t[4],
		Volume: t[5],
	}
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// DecodeCandle parses a JSON-encoded candle.
func DecodeCandle(b []byte) (Candle, error) {
	var c Candle
	err := json.Unmarshal(b, &c)
	return c, err
}
