package main

import (
	"log"
	"os"

	"github.com/imgstash/imgstash/config"
	"github.com/imgstash/imgstash/routes"
	"github.com/imgstash/imgstash/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	// The upload directory must exist before the first request.
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("failed to create upload directory %s: %v", cfg.UploadDir, err)
	}

	store := config.InitStore(cfg)

	r := routes.SetupRouter(cfg, store)

	// Reconcile orphaned artifacts in the background when enabled.
	utils.StartArtifactSweeper(cfg, store)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
