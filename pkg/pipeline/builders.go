package pipeline

import (
	"time"

	"highlight-dl/pkg/content"
	"highlight-dl/pkg/download"
	"highlight-dl/pkg/httpclient"
	"highlight-dl/pkg/search"
	"highlight-dl/pkg/storage"
)

// BuilderConfig carries the policy values the builders need
type BuilderConfig struct {
	MaxRetries      int
	RetryDelay      time.Duration
	FetchTimeout    time.Duration
	DownloadTimeout time.Duration
	Folder          string
	TitlePrefix     string
	Extension       string
	Progress        bool
}

// HighlightPipelineBuilder builds the standard pipeline
// Pipeline: [Searcher] → [Window filter / order / cap] → [RetryingFetcher] → [Extractor] → [Downloader] → [RecordSaver]
func HighlightPipelineBuilder(searcher search.Searcher, store storage.Store, saver RecordSaver, cfg BuilderConfig, opts Options) *Pipeline {
	fetcher := NewBrowserPageFetcher(cfg.MaxRetries, cfg.RetryDelay, cfg.FetchTimeout)

	downloadTimeout := cfg.DownloadTimeout
	if downloadTimeout <= 0 {
		downloadTimeout = httpclient.DefaultTimeout
	}
	downloader := download.NewDownloader(httpclient.NewClientWithTimeout(httpclient.DefaultClient, downloadTimeout), store, cfg.Folder)
	downloader.SetProgress(cfg.Progress)

	processor := NewHighlightProcessor(fetcher, content.NewDefaultExtractor(), downloader)
	processor.SetTitlePrefix(cfg.TitlePrefix)
	processor.SetExtension(cfg.Extension)

	return NewPipeline(searcher, processor, saver, opts)
}
