package domain

import "time"

// HighlightRecord is the catalog entry written after a video has been saved.
//
// The catalog is write-only: nothing reads it back during a run.
type HighlightRecord struct {
	// RunID identifies the run that produced the file.
	RunID string `bson:"run_id" json:"run_id"`

	// Forum is the forum (subreddit) the post was found in.
	Forum string `bson:"forum" json:"forum"`

	// Title is the post title with the highlight prefix removed.
	Title string `bson:"title" json:"title"`

	// PostURL is the external page the post linked to.
	PostURL string `bson:"post_url" json:"post_url"`

	// VideoURL is the og:video:url value extracted from PostURL.
	VideoURL string `bson:"video_url" json:"video_url"`

	// Path is where the video was written.
	Path string `bson:"path" json:"path"`

	Size int64 `bson:"size" json:"size"`

	PostedAt     time.Time `bson:"posted_at" json:"posted_at"`
	DownloadedAt time.Time `bson:"downloaded_at" json:"downloaded_at"`
}
