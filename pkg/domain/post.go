package domain

import "time"

// Post is a search result returned by the external post-search capability.
// The pipeline only reads it.
type Post struct {
	ID        string
	Title     string
	URL       string // external link (the video host page)
	Permalink string // discussion page on the forum, when known
	CreatedAt time.Time
}

// FetchResult is what the retrying fetcher hands to the extractor.
// OK=false means "no result": every attempt failed.
type FetchResult struct {
	OK         bool
	StatusCode int
	Body       string
	Attempts   int
	Err        error // last transport error, if any
}

// VideoAsset describes a video that has been written to storage.
type VideoAsset struct {
	SourceURL       string
	DestinationPath string
	Size            int64
}
