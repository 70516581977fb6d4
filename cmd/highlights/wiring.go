package main

import (
	"context"
	"fmt"
	"time"

	"highlight-dl/pkg/config"
	"highlight-dl/pkg/db"
	"highlight-dl/pkg/domain"
	"highlight-dl/pkg/filter"
	"highlight-dl/pkg/pipeline"
	"highlight-dl/pkg/search"
	"highlight-dl/pkg/storage"
)

// Exit codes.
const (
	exitOK      = 0
	exitFatal   = 1 // config, invalid date, search unavailable, interrupted
	exitNone    = 2 // every attempted post failed
	exitPartial = 3 // some attempted posts failed
)

// exitCode maps a run result to the process exit status.
func exitCode(summary domain.RunSummary, err error) int {
	switch {
	case err != nil:
		return exitFatal
	case summary.Attempted == 0 || summary.Succeeded == summary.Attempted:
		return exitOK
	case summary.Succeeded == 0:
		return exitNone
	default:
		return exitPartial
	}
}

// buildRequest fills unset flags from the config and from today's date in now's location.
// Negative hours and zero date parts mean "not given".
func buildRequest(cfg *config.Config, now time.Time, year, month, day, startHour, endHour int, forum string) pipeline.Request {
	req := pipeline.Request{
		Year:      year,
		Month:     month,
		Day:       day,
		StartHour: startHour,
		EndHour:   endHour,
		Forum:     forum,
	}
	if req.Year == 0 {
		req.Year = now.Year()
	}
	if req.Month == 0 {
		req.Month = int(now.Month())
	}
	if req.Day == 0 {
		req.Day = now.Day()
	}
	if req.StartHour < 0 {
		req.StartHour = cfg.Search.StartHour
	}
	if req.EndHour < 0 {
		req.EndHour = cfg.Search.EndHour
	}
	if req.Forum == "" {
		req.Forum = cfg.Search.Forum
	}
	return req
}

func newSearcher(cfg *config.Config) (search.Searcher, error) {
	switch cfg.Search.Backend {
	case config.BackendFeed:
		return search.NewFeedSearcher(cfg.Reddit.FeedURL, cfg.Reddit.UserAgent, cfg.Reddit.Timeout), nil
	case config.BackendAPI:
		return search.NewRedditClient(cfg.Credentials(), cfg.RedditOptions())
	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.Search.Backend)
	}
}

func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageS3:
		return storage.NewS3Store(ctx, cfg.S3())
	case config.StorageLocal, "":
		return storage.NewLocalStore(cfg.Storage.BaseDir), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newCatalog connects the configured catalog. It returns nil when the catalog is disabled.
func newCatalog(ctx context.Context, cfg *config.Config) (db.Catalog, error) {
	c := cfg.Catalog
	pool := db.PoolConfig{MaxOpenConns: c.MaxOpenConns, ConnMaxLifetime: c.ConnMaxLifetime}

	switch c.Backend {
	case "", config.CatalogNone:
		return nil, nil

	case config.CatalogMongo:
		client := db.NewClient(c.MongoURI, c.MongoDatabase, c.MongoCollection)
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		return client, nil

	case config.CatalogPostgres:
		client := db.NewPostgresClient(db.PostgresConfig{DSN: c.PostgresDSN, Pool: pool})
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		return client, nil

	case config.CatalogSupabase:
		client := db.NewSupabaseClient(db.SupabaseConfig{
			ProjectURL: c.SupabaseURL,
			APIKey:     c.SupabaseKey,
			Password:   c.SupabasePassword,
			DSN:        c.SupabaseDSN,
			Pool:       pool,
		})
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		return client, nil

	case config.CatalogSQLite:
		client := db.NewSQLiteClient(c.SQLitePath)
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unknown catalog backend %q", c.Backend)
	}
}

func builderConfig(cfg *config.Config) pipeline.BuilderConfig {
	return pipeline.BuilderConfig{
		MaxRetries:      cfg.Fetch.MaxRetries,
		RetryDelay:      cfg.Fetch.RetryDelay,
		FetchTimeout:    cfg.Fetch.Timeout,
		DownloadTimeout: cfg.Download.Timeout,
		Folder:          cfg.Download.Folder,
		TitlePrefix:     cfg.Download.TitlePrefix,
		Extension:       cfg.Download.Extension,
		Progress:        cfg.Download.Progress,
	}
}

func pipelineOptions(cfg *config.Config) pipeline.Options {
	loc, err := cfg.Location()
	if err != nil {
		loc = time.Local
	}
	opts := pipeline.Options{
		MaxCandidates: cfg.Search.MaxCandidates,
		Order:         cfg.Order(),
		Query:         cfg.SearchQuery(),
		Location:      loc,
	}
	// The feed backend does not honour url: reliably, so check the link host ourselves.
	if cfg.Search.Backend == config.BackendFeed && cfg.Search.Query == "" && cfg.Search.LinkDomain != "" {
		opts.Filters = append(opts.Filters, filter.NewLinkDomainFilter(cfg.Search.LinkDomain))
	}
	return opts
}
