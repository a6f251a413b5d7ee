package feed

import (
	"context"
	"fmt"

	"tradesim/internal/model"
	sqlitestore "tradesim/internal/store/sqlite"
)

// SQLite streams candles out of a candle store, oldest first.
type SQLite struct {
	store *sqlitestore.Store
	cur   *sqlitestore.Cursor
	after int64
}

// NewSQLite opens the database at path and positions the source after
// afterTS (unix seconds, exclusive; 0 replays everything).
func NewSQLite(path string, afterTS int64) (*SQLite, error) {
	store, err := sqlitestore.Open(path)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	return &SQLite{store: store, after: afterTS}, nil
}

func (s *SQLite) Next(ctx context.Context) (model.Candle, bool, error) {
	if s.cur == nil {
		cur, err := s.store.Candles(ctx, s.after)
		if err != nil {
			return model.Candle{}, false, fmt.Errorf("feed: %w", err)
		}
		s.cur = cur
	}
	return s.cur.Next()
}

func (s *SQLite) Close() error {
	if s.cur != nil {
		s.cur.Close()
	}
	return s.store.Close()
}
