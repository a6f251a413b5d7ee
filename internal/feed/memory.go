// Package feed provides candle sources for the backtest loop: in-memory
// fixtures, SQLite history, Redis streams, and websocket feeds. All satisfy
// model.CandleSource.
package feed

import (
	"context"

	"tradesim/internal/model"
)

// Memory replays a fixed candle slice. Used for fixtures and tests.
type Memory struct {
	candles []model.Candle
	i       int
}

// NewMemory builds a source over the given candles, replayed in order.
func NewMemory(candles []model.Candle) *Memory {
	return &Memory{candles: candles}
}

// NewMemoryFromTuples builds a source from fixture tuples
// [minuteIndex, open, high, low, close, volume].
func NewMemoryFromTuples(tuples [][6]float64) *Memory {
	candles := make([]model.Candle, len(tuples))
	for i, t := range tuples {
		candles[i] = model.FromTuple(t)
	}
	return NewMemory(candles)
}

func (m *Memory) Next(ctx context.Context) (model.Candle, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.Candle{}, false, err
	}
	if m.i >= len(m.candles) {
		return model.Candle{}, false, nil
	}
	c := m.candles[m.i]
	m.i++
	return c, true, nil
}

func (m *Memory) Close() error { return nil }
