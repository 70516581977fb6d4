package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"highlight-dl/pkg/domain"
	"highlight-dl/pkg/httpclient"
)

const (
	// DefaultMaxRetries is the number of GET attempts made for a page.
	DefaultMaxRetries = 20
	// DefaultRetryDelay is the constant wait after a transport failure.
	DefaultRetryDelay = 2 * time.Second
)

// PageFetcher retrieves a web page. A result with OK=false means no page could be retrieved.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) domain.FetchResult
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryingFetcher performs GETs with a bounded number of attempts and a constant delay
// between attempts that failed at the transport level.
//
// A response with a non-2xx status uses up an attempt but is not followed by a delay,
// and its body is never read.
type RetryingFetcher struct {
	client     httpclient.Doer
	maxRetries int
	retryDelay time.Duration
	sleep      SleepFunc
}

// NewRetryingFetcher creates a fetcher. maxRetries <= 0 means DefaultMaxRetries,
// retryDelay < 0 means DefaultRetryDelay.
func NewRetryingFetcher(client httpclient.Doer, maxRetries int, retryDelay time.Duration) *RetryingFetcher {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if retryDelay < 0 {
		retryDelay = DefaultRetryDelay
	}
	return &RetryingFetcher{
		client:     client,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		sleep:      sleepContext,
	}
}

// NewBrowserPageFetcher creates a RetryingFetcher that sends the fixed browser User-Agent.
func NewBrowserPageFetcher(maxRetries int, retryDelay, timeout time.Duration) *RetryingFetcher {
	return NewRetryingFetcher(httpclient.NewClientWithTimeout(httpclient.BrowserClient, timeout), maxRetries, retryDelay)
}

// SetSleep replaces the delay function (tests use this to avoid real waits).
func (f *RetryingFetcher) SetSleep(sleep SleepFunc) {
	f.sleep = sleep
}

// Fetch returns the first successful response. After maxRetries failed attempts it
// returns a result with OK=false; the caller treats that post as unprocessable.
func (f *RetryingFetcher) Fetch(ctx context.Context, url string) domain.FetchResult {
	result := domain.FetchResult{}

	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		result.Attempts = attempt

		status, body, err := f.get(ctx, url)
		if err != nil {
			result.Err = err
			log.Printf("RetryingFetcher: Request failed (attempt %d/%d): %v", attempt, f.maxRetries, err)

			if ctx.Err() != nil {
				log.Printf("RetryingFetcher: Context cancelled, giving up on %s", url)
				return result
			}
			if attempt < f.maxRetries {
				if err := f.sleep(ctx, f.retryDelay); err != nil {
					log.Printf("RetryingFetcher: Context cancelled, giving up on %s", url)
					return result
				}
			}
			continue
		}

		result.StatusCode = status
		if !httpclient.IsSuccess(status) {
			log.Printf("RetryingFetcher: Unexpected status code %d (attempt %d/%d)", status, attempt, f.maxRetries)
			continue
		}

		result.OK = true
		result.Body = body
		result.Err = nil
		return result
	}

	log.Printf("RetryingFetcher: Maximum retries exceeded. Unable to establish connection to %s", url)
	return result
}

// get performs one attempt. A failure to read the body counts as a transport failure.
func (f *RetryingFetcher) get(ctx context.Context, url string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if !httpclient.IsSuccess(resp.StatusCode) {
		return resp.StatusCode, "", nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, string(body), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
