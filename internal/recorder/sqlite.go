package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists bookkeeping to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboard reads don't block the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS quote_ticks (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			price     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quote_ts ON quote_ticks(timestamp)`,

		`CREATE TABLE IF NOT EXISTS series_snapshots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			symbol     TEXT NOT NULL,
			timeframe  TEXT,
			bars       INTEGER,
			first_time INTEGER,
			last_time  INTEGER,
			source     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_series_ts ON series_snapshots(timestamp)`,

		`CREATE TABLE IF NOT EXISTS monitor_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			symbol     TEXT NOT NULL,
			event_type TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_monitor_ts ON monitor_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordQuote(tick *QuoteTick) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO quote_ticks (timestamp, symbol, price) VALUES (?,?,?)`,
		time.Now().Unix(), tick.Symbol, tick.Price,
	)
	return err
}

func (r *SQLiteRecorder) RecordSeries(snap *SeriesSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO series_snapshots
		(timestamp, symbol, timeframe, bars, first_time, last_time, source)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), snap.Symbol, string(snap.Timeframe),
		snap.Bars, snap.FirstTime, snap.LastTime, snap.Source,
	)
	return err
}

func (r *SQLiteRecorder) RecordMonitorEvent(evt *MonitorEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO monitor_events (timestamp, symbol, event_type) VALUES (?,?,?)`,
		time.Now().Unix(), evt.Symbol, evt.EventType,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
