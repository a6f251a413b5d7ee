package model

import "context"

// ── Port Interfaces ──
// These interfaces decouple the engine from concrete candle transports and
// stores (memory fixtures, SQLite, Redis Streams, websockets). Each feed or
// store implementation satisfies one or more of them.

// CandleSource yields candles one at a time in non-decreasing timestamp
// order. Retrieval may block (file/network); the engine's step functions
// never do. ok=false signals exhaustion.
type CandleSource interface {
	// Next returns the next candle, or ok=false when the source is drained.
	Next(ctx context.Context) (c Candle, ok bool, err error)

	// Close releases underlying resources.
	Close() error
}

// CandleWriter persists candles for later replay.
type CandleWriter interface {
	// WriteCandles persists a batch of candles.
	WriteCandles(ctx context.Context, candles []Candle) error

	// Close releases underlying resources.
	Close() error
}
