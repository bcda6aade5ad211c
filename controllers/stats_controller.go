package controllers

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/imgstash/imgstash/stores"
	"github.com/imgstash/imgstash/utils"
)

const (
	statsCacheKey = "imgstash:stats"
	statsCacheTTL = 30 * time.Second
)

// StatsController reports aggregate upload statistics.
type StatsController struct {
	store stores.FileRecordStore
	cache *redis.Client
}

// NewStatsController creates a new StatsController instance. cache may be
// nil; the endpoint then always hits the store.
func NewStatsController(store stores.FileRecordStore, cache *redis.Client) *StatsController {
	return &StatsController{store: store, cache: cache}
}

// GetStats returns upload counts and byte totals. The redis cache is
// best-effort: any cache failure falls through to the store.
func (s *StatsController) GetStats(ctx *gin.Context) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, statsCacheKey).Result(); err == nil {
			var cached gin.H
			if json.Unmarshal([]byte(raw), &cached) == nil {
				utils.OK(ctx, cached)
				return
			}
		}
	}

	totals, err := s.store.Totals(ctx)
	if err != nil {
		utils.Sugar.Errorw("stats query failed", "error", err)
		utils.ServerError(ctx, "failed to load stats")
		return
	}

	payload := gin.H{
		"upload_count":           totals.Count,
		"total_original_bytes":   totals.OriginalBytes,
		"total_compressed_bytes": totals.CompressedBytes,
		"bytes_saved":            totals.OriginalBytes - totals.CompressedBytes,
	}

	if s.cache != nil {
		if raw, err := json.Marshal(payload); err == nil {
			_ = s.cache.Set(ctx, statsCacheKey, raw, statsCacheTTL).Err()
		}
	}

	utils.OK(ctx, payload)
}
