package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/imgstash/imgstash/models"
	"github.com/imgstash/imgstash/stores"
)

// Manager walks one upload through transcoding, original cleanup,
// measurement and persistence. A single instance serves all requests; it
// holds no per-upload state.
type Manager struct {
	store      stores.FileRecordStore
	transcoder Transcoder
	log        *zap.SugaredLogger
}

func NewManager(store stores.FileRecordStore, transcoder Transcoder, log *zap.SugaredLogger) *Manager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Manager{store: store, transcoder: transcoder, log: log}
}

// Result reports a completed upload.
type Result struct {
	Record          *models.FileRecord
	OriginalBytes   int64
	CompressedBytes int64
}

// Process runs the upload pipeline for one file. On a transcode failure the
// original stays on disk for inspection; on a persistence failure the
// derivative stays on disk rather than deleting the only remaining copy of
// the data.
func (m *Manager) Process(ctx context.Context, up *models.UploadedFile) (*Result, error) {
	if up == nil {
		return nil, ErrNoFile
	}

	targetPath := filepath.Join(filepath.Dir(up.StoredPath), DerivedName(up.StoredName))
	if err := m.transcoder.Transcode(ctx, up.StoredPath, targetPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscode, err)
	}

	// Best-effort: reclaiming the original's disk space is not a
	// precondition for anything after this point.
	if err := os.Remove(up.StoredPath); err != nil {
		m.log.Warnw("failed to delete original upload", "path", up.StoredPath, "error", err)
	}

	info, err := os.Stat(targetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMeasure, err)
	}
	derived := &models.DerivedArtifact{StoredPath: targetPath, SizeBytes: info.Size()}

	record := models.NewFileRecord(up, derived)
	if err := m.store.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersist, err)
	}

	m.log.Infow("upload processed",
		"original", up.OriginalName,
		"stored", up.StoredName,
		"original_bytes", up.SizeBytes,
		"compressed_bytes", derived.SizeBytes,
	)

	return &Result{
		Record:          record,
		OriginalBytes:   up.SizeBytes,
		CompressedBytes: derived.SizeBytes,
	}, nil
}
