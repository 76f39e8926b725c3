// Package store defines the tag frequency store contract shared by the
// Postgres backend, the in-memory backend and the read-through cache.
package store

import (
	"context"
	"errors"

	"tagratio/internal/models"
)

// Store errors.
var (
	// ErrEmptyStore is returned by ranking queries while no records exist.
	ErrEmptyStore = errors.New("store is empty")
	// ErrTagNotFound is returned when a tag has no record.
	ErrTagNotFound = errors.New("tag not found")
	// ErrInvalidTopN is returned when a ranking query asks for n <= 0 tags.
	ErrInvalidTopN = errors.New("top n must be positive")
)

// Store persists TagRecords keyed by tag name and answers ranking queries.
type Store interface {
	// MergeTagRecords inserts or replaces every record by tag key. Tags absent
	// from records are left untouched.
	MergeTagRecords(ctx context.Context, records map[string]models.TagRecord) error
	// ReplaceAllTagRecords atomically swaps the store contents for records.
	ReplaceAllTagRecords(ctx context.Context, records map[string]models.TagRecord) error
	// TopTags returns up to n tag names by descending ratio, ties by tag name.
	TopTags(ctx context.Context, n int) ([]string, error)
	GetTagRecord(ctx context.Context, tag string) (*models.TagRecord, error)
	// ListTagRecords returns records in ranked order; limit <= 0 means all.
	ListTagRecords(ctx context.Context, limit int) ([]models.TagRecord, error)
	CountTagRecords(ctx context.Context) (int, error)
}

// RunRecorder is implemented by stores that keep an index run history.
type RunRecorder interface {
	RecordIndexRun(ctx context.Context, run *models.IndexRun) error
	ListIndexRuns(ctx context.Context, limit int) ([]models.IndexRun, error)
}
