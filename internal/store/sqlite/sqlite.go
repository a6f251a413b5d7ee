// Package sqlite persists candles and fills for replay and audit.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tradesim/internal/model"
)

// Store wraps a SQLite database holding replayable candle history.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the candle database in WAL mode.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	schema := `
	CREATE TABLE IF NOT EXISTS candles (
		ts      INTEGER NOT NULL PRIMARY KEY,
		open    REAL NOT NULL,
		high    REAL NOT NULL,
		low     REAL NOT NULL,
		close   REAL NOT NULL,
		volume  REAL NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	slog.Debug("opened candle store", "path", path)
	return &Store{db: db}, nil
}

// WriteCandles upserts a batch of candles inside one transaction.
func (s *Store) WriteCandles(ctx context.Context, candles []model.Candle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO candles (ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(ts) DO UPDATE SET
			open=excluded.open, high=excluded.high, low=excluded.low,
			close=excluded.close, volume=excluded.volume
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, c.TS.Unix(), c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert candle: %w", err)
		}
	}
	return tx.Commit()
}

// Cursor streams candles in ascending timestamp order.
type Cursor struct {
	rows *sql.Rows
}

// Candles opens a cursor over all candles after afterTS (exclusive), ordered
// ascending for replay.
func (s *Store) Candles(ctx context.Context, afterTS int64) (*Cursor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM candles
		WHERE ts > ?
		ORDER BY ts ASC
	`, afterTS)
	if err != nil {
		return nil, fmt.Errorf("sqlite query candles: %w", err)
	}
	return &Cursor{rows: rows}, nil
}

// Next returns the next candle, ok=false once the cursor is drained.
func (c *Cursor) Next() (model.Candle, bool, error) {
	if !c.rows.Next() {
		return model.Candle{}, false, c.rows.Err()
	}
	var out model.Candle
	var ts int64
	if err := c.rows.Scan(&ts, &out.Open, &out.High, &out.Low, &out.Close, &out.Volume); err != nil {
		return model.Candle{}, false, fmt.Errorf("sqlite scan candle: %w", err)
	}
	out.TS = time.Unix(ts, 0).UTC()
	return out, true, nil
}

// Close releases the cursor.
func (c *Cursor) Close() error { return c.rows.Close() }

// Close closes the store.
func (s *Store) Close() error { return s.db.Close() }
