package storage

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// NewSQLiteStorage opens a SQLite database at path (":memory:" works for tests).
func NewSQLiteStorage(path string, logger *zap.Logger) (*SQLStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite database: %w", err)
	}
	// A single connection keeps :memory: databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	store, err := newSQLStorage(db, dialectSQLite, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
