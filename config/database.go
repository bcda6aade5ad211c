package config

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/imgstash/imgstash/stores"
)

// InitStore builds the metadata record store selected by configuration and
// verifies the connection. Connection problems are fatal at boot; the
// pipeline itself never reconnects, it only issues inserts and observes
// success or failure.
func InitStore(cfg AppConfig) stores.FileRecordStore {
	switch strings.ToLower(cfg.StoreBackend) {
	case "", "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store, err := stores.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			log.Fatalf("failed to connect metadata store: %v", err)
		}
		return store
	case "mysql":
		store, err := stores.NewMySQLStore(cfg.MySQLDSN)
		if err != nil {
			log.Fatalf("failed to connect metadata store: %v", err)
		}
		return store
	default:
		log.Fatalf("unknown store backend %q", cfg.StoreBackend)
		return nil
	}
}
