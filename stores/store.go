package stores

import (
	"context"

	"github.com/imgstash/imgstash/models"
)

// Totals aggregates size statistics across all stored records.
type Totals struct {
	Count           int64
	OriginalBytes   int64
	CompressedBytes int64
}

// FileRecordStore is the persistence boundary for upload metadata. The
// pipeline only appends; records are never updated or deleted by it.
type FileRecordStore interface {
	Insert(ctx context.Context, record *models.FileRecord) error
	Totals(ctx context.Context) (Totals, error)
	HasPath(ctx context.Context, path string) (bool, error)
}
