package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"highlight-dl/pkg/domain"
)

// DefaultSQLitePath is used when no database file is configured.
const DefaultSQLitePath = "highlights.db"

// SQLiteClient keeps the highlight catalog in a local SQLite file.
type SQLiteClient struct {
	db   *sql.DB
	path string
}

// NewSQLiteClient constructs a SQLite client for the database file at path.
func NewSQLiteClient(path string) *SQLiteClient {
	if path == "" {
		path = DefaultSQLitePath
	}
	return &SQLiteClient{path: path}
}

// Connect opens the database file, creating it if needed, and creates the highlight table.
func (c *SQLiteClient) Connect(ctx context.Context) error {
	db, err := sql.Open("sqlite", c.path)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", c.path, err)
	}
	// A single connection serialises writers on the file.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping sqlite %s: %w", c.path, err)
	}

	c.db = db
	return EnsureHighlightSchema(ctx, c, DialectSQLite)
}

// Close closes the database file.
func (c *SQLiteClient) Close(ctx context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DB exposes the underlying handle.
func (c *SQLiteClient) DB() *sql.DB {
	return c.db
}

// SaveHighlight upserts the record keyed by its path.
func (c *SQLiteClient) SaveHighlight(ctx context.Context, record *domain.HighlightRecord) error {
	return SaveHighlightSQL(ctx, c, DialectSQLite, record)
}
