package sqlite

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tradesim/internal/exchange"
)

// Journal persists execution reports to SQLite for post-run analysis.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// NewJournal opens (or creates) a fill journal database.
func NewJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_sync=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("journal open: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS fills (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id    TEXT NOT NULL,
		grp         TEXT,
		side        TEXT NOT NULL,
		type        TEXT NOT NULL,
		status      TEXT NOT NULL,
		qty         REAL NOT NULL,
		fill_price  REAL,
		realized    REAL,
		reason      TEXT,
		converted   INTEGER DEFAULT 0,
		recorded_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_fills_order ON fills(order_id);
	CREATE INDEX IF NOT EXISTS idx_fills_grp ON fills(grp);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record persists one step's execution reports.
func (j *Journal) Record(ts time.Time, reports []exchange.Report) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, r := range reports {
		converted := 0
		if r.Converted {
			converted = 1
		}
		_, err := j.db.Exec(
			`INSERT INTO fills (order_id, grp, side, type, status, qty, fill_price, realized, reason, converted, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Order.ID,
			r.Order.Group,
			r.Order.Side.String(),
			r.Order.Type.String(),
			r.Status.String(),
			r.Order.Qty,
			r.FillPrice,
			r.Realized,
			r.Reason,
			converted,
			ts.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("journal insert: %w", err)
		}
	}
	return nil
}

// FillRecord is one row from the fills table.
type FillRecord struct {
	ID        int64   `json:"id"`
	OrderID   string  `json:"order_id"`
	Group     string  `json:"group"`
	Side      string  `json:"side"`
	Type      string  `json:"type"`
	Status    string  `json:"status"`
	Qty       float64 `json:"qty"`
	FillPrice float64 `json:"fill_price"`
	Realized  float64 `json:"realized"`
	Reason    string  `json:"reason"`
}

// Fills returns the last N records, newest first.
func (j *Journal) Fills(limit int) ([]FillRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT id, order_id, grp, side, type, status, qty, fill_price, realized, reason
		 FROM fills ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	var out []FillRecord
	for rows.Next() {
		var f FillRecord
		if err := rows.Scan(&f.ID, &f.OrderID, &f.Group, &f.Side, &f.Type,
			&f.Status, &f.Qty, &f.FillPrice, &f.Realized, &f.Reason); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error { return j.db.Close() }
