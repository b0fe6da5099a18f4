package storage

import (
	"context"
	"time"

	"kotoba-press/pkg/models"
)

// BuildStore persists per-file build state between pipeline runs so
// incremental builds can skip content files whose hash has not changed.
// Content files themselves are never stored here; they stay the source
// of truth on disk.
type BuildStore interface {
	// CheckPostStatus retrieves the status and details of a content file
	// Returns status (PostStatusSuccess, PostStatusFailure, PostStatusNotFound, PostStatusDBError),
	// the PostDBEntry if found and parsed, and any error
	CheckPostStatus(sourcePath string) (status models.PostStatus, entry *models.PostDBEntry, err error)

	// UpdatePostStatus updates the status and details for a content file
	UpdatePostStatus(sourcePath string, entry *models.PostDBEntry) error

	// GetPostCount returns an approximate count of tracked content files
	GetPostCount() (int, error)

	// RunGC runs periodic garbage collection. Should be run in a goroutine
	RunGC(ctx context.Context, interval time.Duration)

	// Close cleanly closes the database connection
	Close() error
}
