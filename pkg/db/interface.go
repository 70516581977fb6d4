package db

import (
	"context"
	"database/sql"

	"highlight-dl/pkg/domain"
)

// DBProvider is an interface for database clients that provide access to a sql.DB handle.
// This allows PostgresClient, SupabaseClient and SQLiteClient to share the SQL catalog code.
type DBProvider interface {
	DB() *sql.DB
}

// Catalog stores a record for every downloaded highlight.
// Records are only ever written; nothing in a run reads them back.
type Catalog interface {
	SaveHighlight(ctx context.Context, record *domain.HighlightRecord) error
	Close(ctx context.Context) error
}
