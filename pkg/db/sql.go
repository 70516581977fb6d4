package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"highlight-dl/pkg/domain"
)

// HighlightTable is the SQL table holding highlight records.
const HighlightTable = "highlight"

// Dialect selects placeholder and column-type syntax.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

var highlightColumns = []string{
	"path", "run_id", "forum", "title", "post_url", "video_url", "size", "posted_at", "downloaded_at",
}

func (d Dialect) placeholder(n int) string {
	if d == DialectSQLite {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

func (d Dialect) timestampType() string {
	if d == DialectSQLite {
		return "DATETIME"
	}
	return "TIMESTAMPTZ"
}

// createHighlightTableSQL returns the CREATE TABLE statement for the dialect.
func createHighlightTableSQL(d Dialect) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	path TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	forum TEXT NOT NULL,
	title TEXT NOT NULL,
	post_url TEXT NOT NULL,
	video_url TEXT NOT NULL,
	size BIGINT NOT NULL,
	posted_at %s,
	downloaded_at %s
)`, HighlightTable, d.timestampType(), d.timestampType())
}

// upsertHighlightSQL returns an INSERT that replaces the row with the same path.
func upsertHighlightSQL(d Dialect) string {
	placeholders := make([]string, len(highlightColumns))
	updates := make([]string, 0, len(highlightColumns)-1)
	for i, col := range highlightColumns {
		placeholders[i] = d.placeholder(i + 1)
		if col != "path" {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
		}
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (path) DO UPDATE SET %s",
		HighlightTable,
		strings.Join(highlightColumns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "))
}

// EnsureHighlightSchema creates the highlight table if it does not exist.
func EnsureHighlightSchema(ctx context.Context, provider DBProvider, d Dialect) error {
	db := provider.DB()
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	if _, err := db.ExecContext(ctx, createHighlightTableSQL(d)); err != nil {
		return fmt.Errorf("create %s table: %w", HighlightTable, err)
	}
	return nil
}

// SaveHighlightSQL upserts record into the highlight table.
func SaveHighlightSQL(ctx context.Context, provider DBProvider, d Dialect, record *domain.HighlightRecord) error {
	db := provider.DB()
	if db == nil {
		return fmt.Errorf("database not connected")
	}

	_, err := db.ExecContext(ctx, upsertHighlightSQL(d),
		record.Path,
		record.RunID,
		record.Forum,
		record.Title,
		record.PostURL,
		record.VideoURL,
		record.Size,
		nullTime(record.PostedAt),
		nullTime(record.DownloadedAt),
	)
	if err != nil {
		return fmt.Errorf("save highlight %s: %w", record.Path, err)
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}
