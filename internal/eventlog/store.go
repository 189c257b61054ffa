package eventlog

import (
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tomvargas/cardmarket-data/internal/model"
)

// Position is an opaque offset into one (season, kind) stream. Positions
// strictly increase in append order and are never reused. The zero value
// means "log start".
type Position int64

// Entry is a fact plus its assigned log position.
type Entry struct {
	Position   Position
	Season     model.Season
	Kind       model.FactKind
	Fact       model.Fact
	AppendedAt time.Time
}

// Store is the SQLite-backed fact log, dedup index and checkpoint store.
// Safe for concurrent use; SQLite serializes writers internally.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS facts (
    position    INTEGER PRIMARY KEY AUTOINCREMENT,
    season      INTEGER NOT NULL,
    kind        TEXT    NOT NULL,
    card_id     INTEGER NOT NULL,
    natural_key TEXT    NOT NULL,
    fact_date   INTEGER,
    buy_price   INTEGER,
    sell_price  INTEGER,
    order_ts    INTEGER,
    order_price INTEGER,
    order_qty   INTEGER,
    appended_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS facts_dedup
    ON facts (season, kind, card_id, natural_key);

CREATE INDEX IF NOT EXISTS facts_by_card
    ON facts (season, card_id, kind, position);

CREATE TABLE IF NOT EXISTS cards (
    season  INTEGER NOT NULL,
    card_id INTEGER NOT NULL,
    name    TEXT    NOT NULL,
    PRIMARY KEY (season, card_id)
);

CREATE TABLE IF NOT EXISTS checkpoints (
    season     INTEGER NOT NULL,
    kind       TEXT    NOT NULL,
    position   INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (season, kind)
);
`

// Open opens (or creates) the event log at path and ensures the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("event log path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	// modernc.org/sqlite applies pragmas via _pragma= query params; other
	// driver-style params are silently ignored. WAL plus a busy timeout is
	// what lets concurrent appenders queue instead of failing SQLITE_BUSY.
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping event log: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure event log schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
