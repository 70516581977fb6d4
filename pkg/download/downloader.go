package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"highlight-dl/pkg/domain"
	"highlight-dl/pkg/httpclient"
	"highlight-dl/pkg/storage"
)

// DefaultFolder is where videos land when no folder is configured.
const DefaultFolder = "highlights"

// maxPrealloc caps how much of a declared Content-Length is reserved up front.
// Larger bodies still download; the buffer grows as data arrives.
const maxPrealloc = 64 << 20

// Downloader fetches a resolved video URL and writes the payload into a folder.
type Downloader struct {
	client       httpclient.Doer
	store        storage.Store
	folder       string
	showProgress bool
}

// NewDownloader creates a downloader writing into folder through store.
// An empty folder means DefaultFolder.
func NewDownloader(client httpclient.Doer, store storage.Store, folder string) *Downloader {
	if folder == "" {
		folder = DefaultFolder
	}
	return &Downloader{
		client: client,
		store:  store,
		folder: folder,
	}
}

// SetProgress turns the stderr progress bar on or off.
func (d *Downloader) SetProgress(enabled bool) {
	d.showProgress = enabled
}

// Folder returns the destination folder.
func (d *Downloader) Folder() string {
	return d.folder
}

// Download makes the folder, issues a single GET for videoURL and, on a 2xx response,
// writes the fully buffered body to folder/filename. Every failure is logged and
// reported as false; nothing is retried.
func (d *Downloader) Download(ctx context.Context, videoURL, filename string) (domain.VideoAsset, bool) {
	if err := d.store.EnsureDir(ctx, d.folder); err != nil {
		log.Printf("Error downloading video: %v", err)
		return domain.VideoAsset{}, false
	}
	filePath := filepath.Join(d.folder, filename)

	data, err := d.fetch(ctx, videoURL)
	if err != nil {
		log.Printf("Error downloading video: %v", err)
		return domain.VideoAsset{}, false
	}

	if err := d.store.Write(ctx, filePath, data); err != nil {
		log.Printf("Error downloading video: %v", err)
		return domain.VideoAsset{}, false
	}

	log.Printf("Video downloaded successfully: %s", filePath)
	return domain.VideoAsset{
		SourceURL:       videoURL,
		DestinationPath: filePath,
		Size:            int64(len(data)),
	}, true
}

// fetch buffers the whole response body in memory.
func (d *Downloader) fetch(ctx context.Context, videoURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video: %w", err)
	}
	defer resp.Body.Close()

	if !httpclient.IsSuccess(resp.StatusCode) {
		log.Printf("Failed to download video. Status code: %d", resp.StatusCode)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(min(resp.ContentLength, maxPrealloc)))
	}

	var dst io.Writer = &buf
	if d.showProgress {
		bar := newProgressBar(resp.ContentLength, filepath.Base(req.URL.Path))
		defer bar.Finish()
		dst = io.MultiWriter(&buf, bar)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read video body: %w", err)
	}
	return buf.Bytes(), nil
}

func newProgressBar(size int64, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]Downloading[reset] %s", name)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
