package storage

import "context"

// Store is the filesystem capability the downloader writes through.
type Store interface {
	// EnsureDir creates dir if it does not exist. Calling it again is a no-op.
	EnsureDir(ctx context.Context, dir string) error

	// Write stores data at path, replacing anything already there.
	Write(ctx context.Context, path string, data []byte) error
}
