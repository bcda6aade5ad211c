package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"

	"github.com/imgstash/imgstash/config"
	"github.com/imgstash/imgstash/controllers"
	"github.com/imgstash/imgstash/middleware"
	"github.com/imgstash/imgstash/pipeline"
	"github.com/imgstash/imgstash/stores"
	"github.com/imgstash/imgstash/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, store stores.FileRecordStore) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if utils.Logger != nil {
		r.Use(ginzap.Ginzap(utils.Logger, time.RFC3339, true))
		r.Use(ginzap.RecoveryWithZap(utils.Logger, false))
	} else {
		// fallback when the logger was not initialized (tests)
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.Static("/uploads", cfg.UploadDir)

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	manager := pipeline.NewManager(store, pipeline.ImagingTranscoder{}, utils.Sugar)
	uploadController := controllers.NewUploadController(manager, cfg.UploadDir, cfg.MaxUploadSizeMB)
	statsController := controllers.NewStatsController(store, utils.GetRedis(cfg))

	r.POST("/upload", middleware.RateLimit(cfg.RateLimitPerMinute), uploadController.Upload)

	api := r.Group("/api/v1")
	api.GET("/stats", statsController.GetStats)

	return r
}
