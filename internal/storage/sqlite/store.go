package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS orders (
    id              TEXT PRIMARY KEY,
    description     TEXT NOT NULL DEFAULT '',
    planned_minutes REAL NOT NULL DEFAULT 0,
    planned_qty     REAL NOT NULL DEFAULT 0,
    realized_qty    REAL NOT NULL DEFAULT 0,
    status          TEXT NOT NULL DEFAULT 'pending',
    version         INTEGER NOT NULL DEFAULT 0,
    created_at      INTEGER NOT NULL,
    updated_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS order_events (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id    TEXT NOT NULL,
    kind        TEXT NOT NULL,
    occurred    INTEGER NOT NULL,
    cause       TEXT NOT NULL DEFAULT '',
    note        TEXT NOT NULL DEFAULT '',
    qty         REAL NOT NULL DEFAULT 0,
    recorded_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_events_order_id ON order_events (order_id, seq);
`

// toMillis нормализует временные метки до миллисекунд для хранения.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis восстанавливает метку из миллисекунд в UTC.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store — локальное файловое хранилище на SQLite. Один файл держит и
// реестр заказов, и журнал событий, поэтому сервис можно запускать без
// внешней БД.
type Store struct {
	db *sql.DB
}

// Open открывает файл SQLite и применяет схему.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &Store{db: db}, nil
}

// DB возвращает raw SQL DB, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlite store is not initialized")
	}
	return s.db.PingContext(ctx)
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
