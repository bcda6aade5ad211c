package utils

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/imgstash/imgstash/config"
	"github.com/imgstash/imgstash/pipeline"
	"github.com/imgstash/imgstash/stores"
)

// StartArtifactSweeper launches a background goroutine that reconciles the
// upload directory with the record store: derived files past the grace
// period with no matching record are removed, as are stale originals left
// behind by failed transcodes. Best-effort; failures are logged. Disabled
// unless configured on.
func StartArtifactSweeper(cfg config.AppConfig, store stores.FileRecordStore) {
	if !cfg.SweeperEnabled {
		return
	}

	interval := time.Duration(cfg.SweeperIntervalMin) * time.Minute
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	grace := time.Duration(cfg.SweeperGraceMinutes) * time.Minute
	if grace <= 0 {
		grace = time.Hour
	}

	go func() {
		for {
			// Sleep first to avoid racing the pipeline at startup.
			time.Sleep(interval)
			SweepOnce(cfg.UploadDir, grace, store)
		}
	}()
}

// SweepOnce scans the upload directory once. The grace period protects
// in-flight uploads: nothing newer than the cutoff is considered.
func SweepOnce(dir string, grace time.Duration, store stores.FileRecordStore) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		Sugar.Warnf("sweeper: read upload dir: %v", err)
		return
	}

	cutoff := time.Now().Add(-grace)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		if strings.HasPrefix(e.Name(), pipeline.DerivedPrefix) {
			// A derivative with a record is the canonical copy; keep it.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			known, err := store.HasPath(ctx, path)
			cancel()
			if err != nil {
				Sugar.Warnf("sweeper: record lookup for %s: %v", path, err)
				continue
			}
			if known {
				continue
			}
		}

		if err := os.Remove(path); err != nil {
			Sugar.Warnf("sweeper: remove %s: %v", path, err)
		} else {
			Sugar.Infof("sweeper: removed stale file %s", path)
		}
	}
}
