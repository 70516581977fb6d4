package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"highlight-dl/pkg/config"
	"highlight-dl/pkg/pipeline"
)

func main() {
	var (
		year      = flag.Int("year", 0, "Year of the day to search (default: today)")
		month     = flag.Int("month", 0, "Month of the day to search, 1-12 (default: today)")
		day       = flag.Int("day", 0, "Day of the month to search (default: today)")
		startHour = flag.Int("start-hour", -1, "First hour of the window, 0-24 (default: search.start_hour)")
		endHour   = flag.Int("end-hour", -1, "Last hour of the window, 0-24 (default: search.end_hour)")
		forum     = flag.String("forum", "", "Subreddit to search (default: search.forum)")

		configPath = flag.String("config", "", "Path to a TOML config file")
		envFile    = flag.String("env", ".env", "Path to a .env file with credentials")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := config.LoadEnv(cfg, *envFile); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	req := buildRequest(cfg, time.Now().In(loc), *year, *month, *day, *startHour, *endHour, *forum)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received interrupt signal, cancelling...")
		cancel()
	}()

	os.Exit(run(ctx, cfg, req))
}

func run(ctx context.Context, cfg *config.Config, req pipeline.Request) int {
	searcher, err := newSearcher(cfg)
	if err != nil {
		log.Printf("Failed to initialize search: %v", err)
		return exitFatal
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		log.Printf("Failed to initialize storage: %v", err)
		return exitFatal
	}

	catalog, err := newCatalog(ctx, cfg)
	if err != nil {
		log.Printf("Failed to connect to catalog: %v", err)
		return exitFatal
	}
	var saver pipeline.RecordSaver
	if catalog != nil {
		defer catalog.Close(context.Background())
		saver = pipeline.NewDBRecordSaver(catalog)
	}

	p := pipeline.HighlightPipelineBuilder(searcher, store, saver, builderConfig(cfg), pipelineOptions(cfg))

	start := time.Now()
	log.Printf("Downloading highlights from r/%s on %04d-%02d-%02d, %02d:00-%02d:00", req.Forum, req.Year, req.Month, req.Day, req.StartHour, req.EndHour)

	summary, err := p.Run(ctx, req)
	if err != nil {
		log.Printf("Run failed: %v", err)
	}
	log.Printf("Done. Duration: %s", time.Since(start))

	return exitCode(summary, err)
}
