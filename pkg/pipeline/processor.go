package pipeline

import (
	"context"
	"log"
	"time"

	"highlight-dl/pkg/content"
	"highlight-dl/pkg/db"
	"highlight-dl/pkg/domain"
)

// VideoDownloader writes a resolved video URL to storage under filename.
type VideoDownloader interface {
	Download(ctx context.Context, videoURL, filename string) (domain.VideoAsset, bool)
}

// RecordSaver saves a catalog entry for a downloaded highlight
type RecordSaver interface {
	SaveHighlight(ctx context.Context, record *domain.HighlightRecord) error
}

// HighlightProcessor takes one post through fetch → extract → download.
type HighlightProcessor struct {
	fetcher     PageFetcher
	extractor   content.Extractor
	downloader  VideoDownloader
	titlePrefix string
	extension   string
}

// NewHighlightProcessor creates a processor using the default title prefix and extension.
// A nil extractor means content.NewDefaultExtractor().
func NewHighlightProcessor(fetcher PageFetcher, extractor content.Extractor, downloader VideoDownloader) *HighlightProcessor {
	if extractor == nil {
		extractor = content.NewDefaultExtractor()
	}
	return &HighlightProcessor{
		fetcher:     fetcher,
		extractor:   extractor,
		downloader:  downloader,
		titlePrefix: DefaultTitlePrefix,
		extension:   DefaultExtension,
	}
}

// SetTitlePrefix sets the token stripped from post titles. Empty disables stripping.
func (p *HighlightProcessor) SetTitlePrefix(prefix string) {
	p.titlePrefix = prefix
}

// SetExtension sets the suffix appended to filenames. Empty means DefaultExtension.
func (p *HighlightProcessor) SetExtension(ext string) {
	if ext == "" {
		ext = DefaultExtension
	}
	p.extension = ext
}

// Process handles a single post. It never returns an error: every failure is logged
// and reported through the outcome so the caller can move on to the next post.
func (p *HighlightProcessor) Process(ctx context.Context, post domain.Post) domain.PostOutcome {
	title := StripTitlePrefix(post.Title, p.titlePrefix)
	outcome := domain.PostOutcome{Post: post, Title: title}

	log.Printf("Processing: %s", title)
	log.Printf("URL: %s", post.URL)

	page := p.fetcher.Fetch(ctx, post.URL)
	if !page.OK {
		outcome.Failure = domain.FailureTransport
		return outcome
	}

	videoURL, ok := p.extractor.ExtractVideoURL(page.Body)
	if !ok {
		log.Printf("Could not extract video URL.")
		outcome.Failure = domain.FailureExtraction
		return outcome
	}
	outcome.VideoURL = videoURL

	filename := p.filename(title, page.Body, post.ID)
	asset, ok := p.downloader.Download(ctx, videoURL, filename)
	if !ok {
		outcome.Failure = domain.FailureDownload
		return outcome
	}

	outcome.Success = true
	outcome.Asset = asset
	return outcome
}

// filename derives the destination name from the stripped title, falling back to
// the page title and then the post ID when nothing usable remains.
func (p *HighlightProcessor) filename(title, page, postID string) string {
	name := SanitizeFilename(title)
	if name == "" {
		if pageTitle, err := p.extractor.ExtractTitle(page); err == nil {
			name = SanitizeFilename(pageTitle)
		}
	}
	if name == "" {
		name = SanitizeFilename(postID)
	}
	if name == "" {
		name = "highlight"
	}
	return name + p.extension
}

// DBRecordSaver implements RecordSaver on top of a catalog backend
type DBRecordSaver struct {
	catalog db.Catalog
	now     func() time.Time
}

// NewDBRecordSaver creates a saver writing to catalog
func NewDBRecordSaver(catalog db.Catalog) *DBRecordSaver {
	return &DBRecordSaver{
		catalog: catalog,
		now:     time.Now,
	}
}

// SaveHighlight stamps DownloadedAt when it is unset and saves the record
func (s *DBRecordSaver) SaveHighlight(ctx context.Context, record *domain.HighlightRecord) error {
	if record.DownloadedAt.IsZero() {
		record.DownloadedAt = s.now().UTC()
	}
	return s.catalog.SaveHighlight(ctx, record)
}

// NewHighlightRecord builds the catalog entry for a successful outcome.
func NewHighlightRecord(runID, forum string, outcome domain.PostOutcome) *domain.HighlightRecord {
	return &domain.HighlightRecord{
		RunID:    runID,
		Forum:    forum,
		Title:    outcome.Title,
		PostURL:  outcome.Post.URL,
		VideoURL: outcome.VideoURL,
		Path:     outcome.Asset.DestinationPath,
		Size:     outcome.Asset.Size,
		PostedAt: outcome.Post.CreatedAt.UTC(),
	}
}
