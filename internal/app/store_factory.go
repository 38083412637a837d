package app

import (
	"fmt"
	"strings"

	"github.com/shrimpsizemoose/gradebook/internal/store"
	"github.com/shrimpsizemoose/gradebook/internal/store/postgres"
	"github.com/shrimpsizemoose/gradebook/internal/store/sqlite"
)

func DatabaseTypeFor(dsn string) store.DatabaseType {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return store.DBTypePostgres
	}
	return store.DBTypeSQLite
}

func NewStore(dsn string) (store.GradebookStore, error) {
	dbType := DatabaseTypeFor(dsn)

	switch dbType {
	case store.DBTypePostgres:
		s, err := postgres.NewPostgresStore(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case store.DBTypeSQLite:
		s, err := sqlite.NewSQLiteStore(&store.DBConfig{DSN: dsn, Type: dbType})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", dsn)
	}
}
