package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"highlight-dl/pkg/domain"
)

func pageWithVideo(name string) string {
	return `<html><head><title>` + name + `</title>` +
		`<meta property="og:video:url" content="https://cdn.example.com/` + name + `.mp4">` +
		`</head><body></body></html>`
}

const pageWithoutVideo = `<html><head><title>Removed</title></head><body>This video was removed.</body></html>`

// mockFetcher serves canned pages keyed by URL. Unknown URLs fail.
type mockFetcher struct {
	pages   map[string]string
	fetched []string
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) domain.FetchResult {
	m.fetched = append(m.fetched, url)
	body, ok := m.pages[url]
	if !ok {
		return domain.FetchResult{Attempts: 20, Err: errors.New("connection refused")}
	}
	return domain.FetchResult{OK: true, StatusCode: 200, Body: body, Attempts: 1}
}

type downloadCall struct {
	videoURL string
	filename string
}

type mockDownloader struct {
	fail      bool
	downloads []downloadCall
}

func (m *mockDownloader) Download(ctx context.Context, videoURL, filename string) (domain.VideoAsset, bool) {
	m.downloads = append(m.downloads, downloadCall{videoURL: videoURL, filename: filename})
	if m.fail {
		return domain.VideoAsset{}, false
	}
	return domain.VideoAsset{SourceURL: videoURL, DestinationPath: "highlights/" + filename, Size: 42}, true
}

type mockRecordSaver struct {
	err     error
	records []*domain.HighlightRecord
}

func (m *mockRecordSaver) SaveHighlight(ctx context.Context, record *domain.HighlightRecord) error {
	m.records = append(m.records, record)
	return m.err
}

func TestHighlightProcessor_Process_Success(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string]string{"https://streamable.com/a": pageWithVideo("a")}}
	downloader := &mockDownloader{}
	processor := NewHighlightProcessor(fetcher, nil, downloader)

	post := domain.Post{ID: "1", Title: "[Highlight] Curry from the logo", URL: "https://streamable.com/a"}
	outcome := processor.Process(context.Background(), post)

	if !outcome.Success {
		t.Fatalf("expected success, got %+v", outcome)
	}
	if outcome.Title != "Curry from the logo" {
		t.Errorf("expected stripped title, got %q", outcome.Title)
	}
	if len(downloader.downloads) != 1 {
		t.Fatalf("expected 1 download, got %d", len(downloader.downloads))
	}
	got := downloader.downloads[0]
	if got.videoURL != "https://cdn.example.com/a.mp4" {
		t.Errorf("expected extracted video URL, got %q", got.videoURL)
	}
	if got.filename != "Curry from the logo.mp4" {
		t.Errorf("expected filename %q, got %q", "Curry from the logo.mp4", got.filename)
	}
	if outcome.Asset.DestinationPath != "highlights/Curry from the logo.mp4" {
		t.Errorf("unexpected asset path %q", outcome.Asset.DestinationPath)
	}
}

func TestHighlightProcessor_Process_FetchFailure(t *testing.T) {
	fetcher := &mockFetcher{}
	downloader := &mockDownloader{}
	processor := NewHighlightProcessor(fetcher, nil, downloader)

	outcome := processor.Process(context.Background(), domain.Post{Title: "[Highlight] X", URL: "https://streamable.com/gone"})

	if outcome.Success || outcome.Failure != domain.FailureTransport {
		t.Errorf("expected transport failure, got %+v", outcome)
	}
	if len(downloader.downloads) != 0 {
		t.Error("expected no download after fetch failure")
	}
}

func TestHighlightProcessor_Process_ExtractionFailure(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string]string{"https://streamable.com/x": pageWithoutVideo}}
	downloader := &mockDownloader{}
	processor := NewHighlightProcessor(fetcher, nil, downloader)

	outcome := processor.Process(context.Background(), domain.Post{Title: "[Highlight] X", URL: "https://streamable.com/x"})

	if outcome.Success || outcome.Failure != domain.FailureExtraction {
		t.Errorf("expected extraction failure, got %+v", outcome)
	}
	if len(downloader.downloads) != 0 {
		t.Error("expected no download after extraction failure")
	}
}

func TestHighlightProcessor_Process_DownloadFailure(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string]string{"https://streamable.com/a": pageWithVideo("a")}}
	processor := NewHighlightProcessor(fetcher, nil, &mockDownloader{fail: true})

	outcome := processor.Process(context.Background(), domain.Post{Title: "[Highlight] A", URL: "https://streamable.com/a"})

	if outcome.Success || outcome.Failure != domain.FailureDownload {
		t.Errorf("expected download failure, got %+v", outcome)
	}
	if outcome.VideoURL != "https://cdn.example.com/a.mp4" {
		t.Errorf("expected video URL on outcome, got %q", outcome.VideoURL)
	}
}

func TestHighlightProcessor_Process_SanitizesFilename(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string]string{"https://streamable.com/a": pageWithVideo("a")}}
	downloader := &mockDownloader{}
	processor := NewHighlightProcessor(fetcher, nil, downloader)

	processor.Process(context.Background(), domain.Post{Title: "[Highlight] LeBron 40/10/10 vs. GSW?", URL: "https://streamable.com/a"})

	if got := downloader.downloads[0].filename; got != "LeBron 40_10_10 vs. GSW_.mp4" {
		t.Errorf("unexpected filename %q", got)
	}
}

func TestHighlightProcessor_Process_FallsBackToPageTitle(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string]string{"https://streamable.com/a": pageWithVideo("Page Title")}}
	downloader := &mockDownloader{}
	processor := NewHighlightProcessor(fetcher, nil, downloader)

	processor.Process(context.Background(), domain.Post{ID: "abc", Title: "[Highlight] ", URL: "https://streamable.com/a"})

	if got := downloader.downloads[0].filename; got != "Page Title.mp4" {
		t.Errorf("expected page title fallback, got %q", got)
	}
}

func TestHighlightProcessor_Process_FallsBackToPostID(t *testing.T) {
	page := `<html><head><meta property="og:video:url" content="https://cdn.example.com/v.mp4"></head><body></body></html>`
	fetcher := &mockFetcher{pages: map[string]string{"https://streamable.com/a": page}}
	downloader := &mockDownloader{}
	processor := NewHighlightProcessor(fetcher, nil, downloader)

	processor.Process(context.Background(), domain.Post{ID: "1kx2yz", Title: "[Highlight] ???", URL: "https://streamable.com/a"})

	// "???" sanitises to "___", which is still usable.
	if got := downloader.downloads[0].filename; got != "___.mp4" {
		t.Errorf("unexpected filename %q", got)
	}

	downloader.downloads = nil
	processor.Process(context.Background(), domain.Post{ID: "1kx2yz", Title: "[Highlight] ..", URL: "https://streamable.com/a"})

	if got := downloader.downloads[0].filename; got != "1kx2yz.mp4" {
		t.Errorf("expected post ID fallback, got %q", got)
	}
}

func TestHighlightProcessor_SetTitlePrefixAndExtension(t *testing.T) {
	fetcher := &mockFetcher{pages: map[string]string{"https://streamable.com/a": pageWithVideo("a")}}
	downloader := &mockDownloader{}
	processor := NewHighlightProcessor(fetcher, nil, downloader)
	processor.SetTitlePrefix("[Goal] ")
	processor.SetExtension(".webm")

	processor.Process(context.Background(), domain.Post{Title: "[Goal] Messi free kick", URL: "https://streamable.com/a"})

	if got := downloader.downloads[0].filename; got != "Messi free kick.webm" {
		t.Errorf("unexpected filename %q", got)
	}
}

func TestDBRecordSaver_SaveHighlight_StampsDownloadedAt(t *testing.T) {
	catalog := &mockCatalog{}
	saver := NewDBRecordSaver(catalog)
	fixed := time.Date(2025, 5, 22, 10, 0, 0, 0, time.UTC)
	saver.now = func() time.Time { return fixed }

	record := &domain.HighlightRecord{Path: "highlights/A.mp4"}
	if err := saver.SaveHighlight(context.Background(), record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(catalog.records) != 1 {
		t.Fatalf("expected 1 saved record, got %d", len(catalog.records))
	}
	if !catalog.records[0].DownloadedAt.Equal(fixed) {
		t.Errorf("expected DownloadedAt %v, got %v", fixed, catalog.records[0].DownloadedAt)
	}
}

type mockCatalog struct {
	records []*domain.HighlightRecord
}

func (m *mockCatalog) SaveHighlight(ctx context.Context, record *domain.HighlightRecord) error {
	m.records = append(m.records, record)
	return nil
}

func (m *mockCatalog) Close(ctx context.Context) error {
	return nil
}
