package tracking

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charleschow/kalshi-mm/internal/telemetry"

	_ "modernc.org/sqlite"
)

const (
	maxStoreBytes  int64   = 256 << 20 // 256 MiB
	evictPct       float64 = 0.10      // evict oldest 10% of rows
	vacuumInterval         = 10        // incremental vacuum every N evictions
)

// Store appends engine actions to a FIFO SQLite table capped at
// maxStoreBytes. Nothing in the engines reads it back.
type Store struct {
	db           *sql.DB
	mu           sync.Mutex
	cachedSize   int64
	rowCount     int64
	evictCounter int
	maxBytes     int64
}

func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	var avMode int
	if err := db.QueryRow(`PRAGMA auto_vacuum`).Scan(&avMode); err != nil {
		db.Close()
		return nil, fmt.Errorf("read auto_vacuum: %w", err)
	}
	if avMode != 2 {
		if _, err := db.Exec(`PRAGMA auto_vacuum = INCREMENTAL`); err != nil {
			db.Close()
			return nil, fmt.Errorf("set auto_vacuum: %w", err)
		}
		if _, err := db.Exec(`VACUUM`); err != nil {
			telemetry.Warnf("journal: VACUUM to enable auto_vacuum failed: %v", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}

	var size int64
	db.QueryRow(`SELECT COALESCE(page_count * page_size, 0) FROM pragma_page_count(), pragma_page_size()`).Scan(&size)
	var rowCount int64
	db.QueryRow(`SELECT COUNT(*) FROM engine_actions`).Scan(&rowCount)

	telemetry.Infof("journal: opened %s size=%d rows=%d", path, size, rowCount)
	return &Store{db: db, cachedSize: size, rowCount: rowCount, maxBytes: maxStoreBytes}, nil
}

const schema = `CREATE TABLE IF NOT EXISTS engine_actions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	engine      TEXT    NOT NULL,
	kind        TEXT    NOT NULL,
	recorded_at TEXT    NOT NULL,

	ticker      TEXT    NOT NULL DEFAULT '',
	side        TEXT    NOT NULL DEFAULT '',
	order_id    TEXT    NOT NULL DEFAULT '',
	price_cents INTEGER NOT NULL DEFAULT 0,
	qty         INTEGER NOT NULL DEFAULT 0,

	-- running totals at the time of the action
	total_filled INTEGER,
	combined     INTEGER,

	detail      TEXT    NOT NULL DEFAULT ''
)`

// Insert appends one action and returns its row id.
func (s *Store) Insert(a Action) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := a.At
	if at.IsZero() {
		at = time.Now()
	}

	res, err := s.db.Exec(
		`INSERT INTO engine_actions (
			engine, kind, recorded_at, ticker, side, order_id, price_cents, qty,
			total_filled, combined, detail
		) VALUES (?,?,?,?,?,?,?,?, ?,?,?)`,
		a.Engine, string(a.Kind), at.UTC().Format(time.RFC3339Nano),
		a.Ticker, a.Side, a.OrderID, a.PriceCents, a.Count,
		nullInt(a.TotalFilled), nullInt(a.Combined), a.Detail,
	)
	if err != nil {
		return 0, fmt.Errorf("insert engine action: %w", err)
	}

	id, _ := res.LastInsertId()
	s.rowCount++
	s.refreshSize()
	if s.cachedSize > s.maxBytes {
		s.evict()
	}
	return id, nil
}

// Count returns the number of rows of kind, or of every kind when kind is
// empty. Used by operators and tests.
func (s *Store) Count(kind Kind) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	var err error
	if kind == "" {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM engine_actions`).Scan(&n)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM engine_actions WHERE kind = ?`, string(kind)).Scan(&n)
	}
	return n, err
}

// refreshSize re-reads the database file size from SQLite pragmas.
// Must be called with s.mu held.
func (s *Store) refreshSize() {
	var size int64
	row := s.db.QueryRow(`SELECT COALESCE(page_count * page_size, 0) FROM pragma_page_count(), pragma_page_size()`)
	if err := row.Scan(&size); err == nil {
		s.cachedSize = size
	}
}

// evict deletes the oldest 10% of rows by count.
// Must be called with s.mu held.
func (s *Store) evict() {
	toDelete := int64(float64(s.rowCount) * evictPct)
	if toDelete < 1 {
		toDelete = 1
	}

	res, err := s.db.Exec(
		`DELETE FROM engine_actions WHERE id IN (
			SELECT id FROM engine_actions ORDER BY id ASC LIMIT ?
		)`, toDelete,
	)
	if err != nil {
		telemetry.Warnf("journal evict: %v", err)
		return
	}

	deleted, _ := res.RowsAffected()
	s.rowCount -= deleted
	s.evictCounter++

	telemetry.Infof("journal: evicted %d rows (target %d)", deleted, toDelete)

	if s.evictCounter%vacuumInterval == 0 {
		s.db.Exec(`PRAGMA incremental_vacuum`)
	}

	s.refreshSize()
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
