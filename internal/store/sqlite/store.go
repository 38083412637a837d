// internal/store/sqlite/store.go
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/shrimpsizemoose/gradebook/internal/store"
)

const (
	defaultPath = "gradebook.db"
	memoryDSN   = ":memory:"
)

var memoryDBSeq atomic.Int64

// SQLiteStore runs on a regular connection pool, so a store call made while
// a ClassGrades or ExportRows stream is open gets its own connection.
type SQLiteStore struct {
	store.BaseStore
	// keepalive pins a shared-cache in-memory database for the store's lifetime
	keepalive *sqlx.Conn
}

// dataSource rewrites dsn so that every pooled connection sees the same data.
// :memory: becomes a uniquely named shared-cache database and file databases
// run in WAL mode so readers and the writer do not block each other.
func dataSource(dsn string) (string, bool) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = defaultPath
	}

	memory := dsn == memoryDSN || strings.Contains(dsn, "mode=memory")
	if dsn == memoryDSN {
		dsn = fmt.Sprintf("file:gradebook-mem-%d?mode=memory&cache=shared", memoryDBSeq.Add(1))
	}

	params := []string{"_busy_timeout=5000"}
	if !memory {
		params = append(params, "_journal_mode=WAL")
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&"), memory
}

func NewSQLiteStore(config *store.DBConfig) (*SQLiteStore, error) {
	dsn, memory := dataSource(config.DSN)

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	var keepalive *sqlx.Conn
	if memory {
		keepalive, err = db.Connx(context.Background())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to pin in-memory database: %w", err)
		}
	}

	s := &SQLiteStore{keepalive: keepalive, BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			return query
		},
		IsUniqueViolation: isUniqueViolation,
	}}

	if err := s.ApplyMigrations(context.Background()); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	if s.keepalive != nil {
		if err := s.keepalive.Close(); err != nil {
			return fmt.Errorf("failed to release in-memory database: %w", err)
		}
		s.keepalive = nil
	}
	return s.BaseStore.Close()
}

func (s *SQLiteStore) ApplyMigrations(ctx context.Context) error {
	return s.BaseStore.ApplyMigrations(ctx, translateToSQLite)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// translateToSQLite converts Postgres SQL to SQLite dialect. Longer patterns
// come first so BIGSERIAL is not half-rewritten by SERIAL.
func translateToSQLite(sql string) string {
	replacements := []struct{ from, to string }{
		{"BIGSERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT"},
		{"SERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT"},
		{"BIGINT", "INTEGER"},
		{"TRUE", "1"},
		{"FALSE", "0"},
		{"now()", "CURRENT_TIMESTAMP"},
		{"::text", ""},
	}
	result := sql
	for _, r := range replacements {
		result = strings.ReplaceAll(result, r.from, r.to)
	}
	return result
}
