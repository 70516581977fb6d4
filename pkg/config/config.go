package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"highlight-dl/pkg/filter"
	"highlight-dl/pkg/search"
	"highlight-dl/pkg/storage"
)

// Search backends.
const (
	BackendAPI  = "api"
	BackendFeed = "feed"
)

// Storage backends.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Catalog backends.
const (
	CatalogNone     = "none"
	CatalogMongo    = "mongo"
	CatalogPostgres = "postgres"
	CatalogSupabase = "supabase"
	CatalogSQLite   = "sqlite"
)

type Config struct {
	Reddit   RedditConfig   `toml:"reddit"`
	Search   SearchConfig   `toml:"search"`
	Fetch    FetchConfig    `toml:"fetch"`
	Download DownloadConfig `toml:"download"`
	Storage  StorageConfig  `toml:"storage"`
	Catalog  CatalogConfig  `toml:"catalog"`
}

type RedditConfig struct {
	Username     string        `toml:"username"`
	Password     string        `toml:"password"`
	ClientID     string        `toml:"client_id"`
	ClientSecret string        `toml:"client_secret"`
	UserAgent    string        `toml:"user_agent"`
	AuthURL      string        `toml:"auth_url"`
	APIURL       string        `toml:"api_url"`
	FeedURL      string        `toml:"feed_url"`
	PageInterval time.Duration `toml:"page_interval"`
	Timeout      time.Duration `toml:"timeout"`
}

type SearchConfig struct {
	Backend       string `toml:"backend"` // "api" or "feed"
	Forum         string `toml:"forum"`
	LinkDomain    string `toml:"link_domain"`
	TitleToken    string `toml:"title_token"`
	Query         string `toml:"query"` // overrides link_domain/title_token when set
	MaxPages      int    `toml:"max_pages"`
	Order         string `toml:"order"` // "search", "newest" or "oldest"
	MaxCandidates int    `toml:"max_candidates"`
	Timezone      string `toml:"timezone"` // IANA name; empty means local time
	StartHour     int    `toml:"start_hour"`
	EndHour       int    `toml:"end_hour"`
}

type FetchConfig struct {
	MaxRetries int           `toml:"max_retries"`
	RetryDelay time.Duration `toml:"retry_delay"`
	Timeout    time.Duration `toml:"timeout"`
}

type DownloadConfig struct {
	Folder      string        `toml:"folder"`
	TitlePrefix string        `toml:"title_prefix"`
	Extension   string        `toml:"extension"`
	Timeout     time.Duration `toml:"timeout"`
	Progress    bool          `toml:"progress"`
}

type StorageConfig struct {
	Backend string   `toml:"backend"` // "local" or "s3"
	BaseDir string   `toml:"base_dir"`
	S3      S3Config `toml:"s3"`
}

type S3Config struct {
	Bucket       string `toml:"bucket"`
	Prefix       string `toml:"prefix"`
	Region       string `toml:"region"`
	Profile      string `toml:"profile"`
	Endpoint     string `toml:"endpoint"`
	UsePathStyle bool   `toml:"use_path_style"`
}

type CatalogConfig struct {
	Backend          string `toml:"backend"`
	MongoURI         string `toml:"mongo_uri"`
	MongoDatabase    string `toml:"mongo_database"`
	MongoCollection  string `toml:"mongo_collection"`
	PostgresDSN      string `toml:"postgres_dsn"`
	SupabaseURL      string `toml:"supabase_url"`
	SupabaseKey      string `toml:"supabase_key"`
	SupabasePassword string `toml:"supabase_password"`
	SupabaseDSN      string `toml:"supabase_dsn"` // pooler or direct connection string; wins over supabase_password
	SQLitePath       string `toml:"sqlite_path"`

	// Pool settings for the postgres and supabase backends.
	MaxOpenConns    int           `toml:"max_open_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Reddit: RedditConfig{
			UserAgent:    search.DefaultUserAgent,
			AuthURL:      search.DefaultAuthURL,
			APIURL:       search.DefaultAPIURL,
			FeedURL:      search.DefaultFeedBaseURL,
			PageInterval: time.Second,
			Timeout:      30 * time.Second,
		},
		Search: SearchConfig{
			Backend:       BackendAPI,
			Forum:         "nba",
			LinkDomain:    "streamable.com",
			TitleToken:    "[Highlight]",
			MaxPages:      search.DefaultMaxPages,
			Order:         string(filter.OrderSearch),
			MaxCandidates: 2,
			StartHour:     6,
			EndHour:       9,
		},
		Fetch: FetchConfig{
			MaxRetries: 20,
			RetryDelay: 2 * time.Second,
			Timeout:    30 * time.Second,
		},
		Download: DownloadConfig{
			Folder:      "highlights",
			TitlePrefix: "[Highlight] ",
			Extension:   ".mp4",
			Timeout:     5 * time.Minute,
			Progress:    true,
		},
		Storage: StorageConfig{
			Backend: StorageLocal,
		},
		Catalog: CatalogConfig{
			Backend:         CatalogNone,
			MongoDatabase:   "highlight_dl",
			MongoCollection: "highlights",
			SQLitePath:      "highlights.db",
		},
	}
}

// Load reads the TOML file at path on top of Default. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	return cfg, nil
}

// LoadEnv loads envFile into the process environment, if it exists, and then applies
// environment overrides. Variables already set in the environment win over the file.
func LoadEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	return nil
}

// ApplyEnv overrides secrets from the environment. getenv is os.Getenv outside tests.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	set(&c.Reddit.Username, "REDDIT_USERNAME")
	set(&c.Reddit.Password, "REDDIT_PASSWORD")
	set(&c.Reddit.ClientID, "REDDIT_CLIENT_ID")
	set(&c.Reddit.ClientSecret, "REDDIT_CLIENT_SECRET")
	set(&c.Catalog.MongoURI, "MONGO_URI")
	set(&c.Catalog.PostgresDSN, "POSTGRES_DSN")
	set(&c.Catalog.SupabaseURL, "SUPABASE_URL")
	set(&c.Catalog.SupabaseKey, "SUPABASE_KEY")
	set(&c.Catalog.SupabasePassword, "SUPABASE_PASSWORD")
	set(&c.Catalog.SupabaseDSN, "SUPABASE_DSN")
}

// Validate checks every policy value. Credentials are checked only for the api backend.
func (c *Config) Validate() error {
	switch c.Search.Backend {
	case BackendAPI:
		if err := c.Credentials().Validate(); err != nil {
			return err
		}
	case BackendFeed:
	default:
		return fmt.Errorf("unknown search backend %q", c.Search.Backend)
	}

	if c.Search.Forum == "" {
		return fmt.Errorf("search forum is required")
	}
	if c.Search.Query == "" && (c.Search.LinkDomain == "" || c.Search.TitleToken == "") {
		return fmt.Errorf("search needs either query or both link_domain and title_token")
	}
	if _, err := filter.ParseOrder(c.Search.Order); err != nil {
		return err
	}
	if c.Search.MaxCandidates < 1 {
		return fmt.Errorf("max_candidates must be at least 1, got %d", c.Search.MaxCandidates)
	}
	if c.Search.MaxPages < 1 {
		return fmt.Errorf("max_pages must be at least 1, got %d", c.Search.MaxPages)
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if c.Fetch.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", c.Fetch.MaxRetries)
	}
	if c.Fetch.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must not be negative")
	}

	if c.Download.Folder == "" {
		return fmt.Errorf("download folder is required")
	}
	if !strings.HasPrefix(c.Download.Extension, ".") {
		return fmt.Errorf("download extension must start with a dot, got %q", c.Download.Extension)
	}

	switch c.Storage.Backend {
	case StorageLocal:
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	return c.validateCatalog()
}

func (c *Config) validateCatalog() error {
	if c.Catalog.MaxOpenConns < 0 || c.Catalog.ConnMaxLifetime < 0 {
		return fmt.Errorf("catalog pool settings must not be negative")
	}

	switch c.Catalog.Backend {
	case "", CatalogNone:
	case CatalogMongo:
		if c.Catalog.MongoURI == "" {
			return fmt.Errorf("mongo catalog needs MONGO_URI")
		}
	case CatalogPostgres:
		if c.Catalog.PostgresDSN == "" {
			return fmt.Errorf("postgres catalog needs POSTGRES_DSN")
		}
	case CatalogSupabase:
		if c.Catalog.SupabaseDSN != "" {
			break
		}
		if c.Catalog.SupabaseURL == "" {
			return fmt.Errorf("supabase catalog needs SUPABASE_URL or SUPABASE_DSN")
		}
		if c.Catalog.SupabaseKey == "" && c.Catalog.SupabasePassword == "" {
			return fmt.Errorf("supabase catalog needs SUPABASE_KEY, SUPABASE_PASSWORD or SUPABASE_DSN")
		}
	case CatalogSQLite:
		if c.Catalog.SQLitePath == "" {
			return fmt.Errorf("sqlite catalog needs sqlite_path")
		}
	default:
		return fmt.Errorf("unknown catalog backend %q", c.Catalog.Backend)
	}
	return nil
}

// Credentials returns the Reddit credentials in the form the search client takes.
func (c *Config) Credentials() search.Credentials {
	return search.Credentials{
		Username:     c.Reddit.Username,
		Password:     c.Reddit.Password,
		ClientID:     c.Reddit.ClientID,
		ClientSecret: c.Reddit.ClientSecret,
		UserAgent:    c.Reddit.UserAgent,
	}
}

// RedditOptions returns the API client options.
func (c *Config) RedditOptions() search.RedditOptions {
	return search.RedditOptions{
		AuthURL:      c.Reddit.AuthURL,
		APIURL:       c.Reddit.APIURL,
		MaxPages:     c.Search.MaxPages,
		PageInterval: c.Reddit.PageInterval,
		Timeout:      c.Reddit.Timeout,
	}
}

// SearchQuery returns the lucene query to run.
func (c *Config) SearchQuery() string {
	if c.Search.Query != "" {
		return c.Search.Query
	}
	return search.BuildQuery(c.Search.LinkDomain, c.Search.TitleToken)
}

// Order returns the parsed order policy. Call Validate first.
func (c *Config) Order() filter.Order {
	order, err := filter.ParseOrder(c.Search.Order)
	if err != nil {
		return filter.OrderSearch
	}
	return order
}

// Location resolves the window timezone. Empty means time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Search.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Search.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Search.Timezone, err)
	}
	return loc, nil
}

// S3 returns the S3 store configuration.
func (c *Config) S3() storage.S3Config {
	s := c.Storage.S3
	return storage.S3Config{
		Bucket:       s.Bucket,
		Prefix:       s.Prefix,
		Region:       s.Region,
		Profile:      s.Profile,
		UsePathStyle: s.UsePathStyle,
		Endpoint:     s.Endpoint,
	}
}
