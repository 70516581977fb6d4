package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	supabase "github.com/supabase-community/supabase-go"

	"highlight-dl/pkg/domain"
)

// Supabase's pooler runs in transaction mode and does not keep prepared statements.
var supabasePoolerParams = [][2]string{
	{"statement_cache_capacity", "0"},
	{"default_query_exec_mode", "simple_protocol"},
}

// SupabaseConfig selects how highlight records reach a Supabase project.
// DSN, or ProjectURL plus Password, gives a direct Postgres connection.
// ProjectURL plus APIKey gives the REST API, used when there is no direct connection.
type SupabaseConfig struct {
	ProjectURL string // https://<project-ref>.supabase.co
	APIKey     string
	Password   string
	DSN        string
	Pool       PoolConfig
}

// SupabaseClient saves highlight records to a Supabase project.
type SupabaseClient struct {
	cfg  SupabaseConfig
	db   *sql.DB
	rest *supabase.Client
}

// NewSupabaseClient constructs a Supabase client. Call Connect before use.
func NewSupabaseClient(cfg SupabaseConfig) *SupabaseClient {
	return &SupabaseClient{cfg: cfg}
}

// Connect sets up every transport the config allows. An unreachable database
// is an error only when there is no REST client to fall back on.
func (c *SupabaseClient) Connect(ctx context.Context) error {
	if c.cfg.ProjectURL != "" && c.cfg.APIKey != "" {
		rest, err := supabase.NewClient(c.cfg.ProjectURL, c.cfg.APIKey, nil)
		if err != nil {
			return fmt.Errorf("initialize supabase REST client: %w", err)
		}
		c.rest = rest
	}

	dsn, err := c.dsn()
	if err != nil {
		return err
	}
	if dsn == "" {
		if c.rest == nil {
			return fmt.Errorf("supabase catalog needs a DSN, a database password or an API key")
		}
		log.Printf("SupabaseClient: No database credentials, saving highlights via REST")
		return nil
	}

	if err := c.openDirect(ctx, dsn); err != nil {
		if c.rest == nil {
			return err
		}
		log.Printf("SupabaseClient: %v; saving highlights via REST", err)
	}
	return nil
}

func (c *SupabaseClient) openDirect(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open supabase postgres: %w", err)
	}
	c.cfg.Pool.apply(db)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping supabase postgres: %w", err)
	}

	c.db = db
	if err := EnsureHighlightSchema(ctx, c, DialectPostgres); err != nil {
		_ = db.Close()
		c.db = nil
		return err
	}
	return nil
}

// SaveHighlight upserts the record keyed by its path, over SQL when connected
// directly and through the REST API otherwise. REST mode expects the highlight
// table to exist already.
func (c *SupabaseClient) SaveHighlight(ctx context.Context, record *domain.HighlightRecord) error {
	if c.db != nil {
		return SaveHighlightSQL(ctx, c, DialectPostgres, record)
	}
	if c.rest == nil {
		return fmt.Errorf("supabase client not connected")
	}

	if _, _, err := c.rest.From(HighlightTable).Insert(record, true, "path", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("save highlight %s via REST: %w", record.Path, err)
	}
	return nil
}

func (c *SupabaseClient) Close(ctx context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DB returns the direct connection, or nil in REST mode.
func (c *SupabaseClient) DB() *sql.DB {
	return c.db
}

// dsn returns the direct connection string with the pooler parameters set.
// "" means there are no database credentials.
func (c *SupabaseClient) dsn() (string, error) {
	dsn := c.cfg.DSN
	if dsn == "" {
		if c.cfg.Password == "" {
			return "", nil
		}
		var err error
		if dsn, err = projectDSN(c.cfg.ProjectURL, c.cfg.Password); err != nil {
			return "", err
		}
	}

	for _, p := range supabasePoolerParams {
		dsn = withParam(dsn, p[0], p[1])
	}
	return dsn, nil
}

// projectDSN derives a hosted project's database URL,
// e.g. https://abcd.supabase.co -> db.abcd.supabase.co:5432.
func projectDSN(projectURL, password string) (string, error) {
	if projectURL == "" {
		return "", fmt.Errorf("supabase project URL is required with a database password")
	}
	u, err := url.Parse(projectURL)
	if err != nil {
		return "", fmt.Errorf("parse supabase project URL: %w", err)
	}
	ref, _, ok := strings.Cut(u.Hostname(), ".")
	if !ok || ref == "" {
		return "", fmt.Errorf("supabase project URL %q has no project ref", projectURL)
	}

	dsn := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword("postgres", password),
		Host:     "db." + ref + ".supabase.co:5432",
		Path:     "/postgres",
		RawQuery: "sslmode=require",
	}
	return dsn.String(), nil
}

// withParam appends key=value to a URL-style DSN unless key is already set.
func withParam(dsn, key, value string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + value
}
