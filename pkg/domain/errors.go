package domain

import "errors"

var (
	// ErrInvalidDate is returned when a calendar date or hour cannot be constructed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrSearchUnavailable is returned when the post-search capability cannot be
	// reached or rejects our credentials. It aborts the run.
	ErrSearchUnavailable = errors.New("search unavailable")
)

// FailureKind classifies why a single post could not be processed.
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureTransport  FailureKind = "transport"
	FailureExtraction FailureKind = "extraction"
	FailureDownload   FailureKind = "download"
)
