package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shrimpsizemoose/gradebook/internal/store"
)

const uniqueViolationCode = "23505"

type PostgresStore struct {
	store.BaseStore
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := New(db)
	if err := s.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return s, nil
}

// New wraps an already opened connection without touching the schema.
func New(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{BaseStore: store.BaseStore{
		DB:                db,
		Converter:         convertPlaceholders,
		IsUniqueViolation: isUniqueViolation,
	}}
}

func (s *PostgresStore) ApplyMigrations(ctx context.Context) error {
	return s.BaseStore.ApplyMigrations(ctx, nil)
}

func convertPlaceholders(query string) string {
	out := query
	for i := 1; strings.Contains(out, "?"); i++ {
		out = strings.Replace(out, "?", fmt.Sprintf("$%d", i), 1)
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode
}
