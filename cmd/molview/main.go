package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"molview/adapters/postgres"
	"molview/internal/config"
	"molview/internal/dataset"
	"molview/internal/depict"
	"molview/internal/logging"
	"molview/internal/session"
	"molview/ports"
	"molview/ui"
)

func main() {
	// .env is optional; environment variables win either way.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewDefaultLogger()

	var catalog ports.CatalogRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			cancel()
			log.Fatalf("Failed to prepare database schema: %v", err)
		}
		cancel()
		catalog = postgres.NewCatalogRepository(db)
		logger.Info("upload catalog enabled")
	} else {
		logger.Info("DATABASE_URL not set, upload catalog disabled")
	}

	sessions := session.NewStore(cfg.Session.TTL, cfg.Session.SweepInterval, logger)
	defer sessions.Close()

	loader := dataset.NewLoader(logger)
	renderer := depict.NewRenderer(
		cfg.Depict.Width,
		cfg.Depict.Height,
		cfg.Depict.CacheSize,
		cfg.Depict.MaxParallel,
	)

	server, err := ui.NewServer(cfg, loader, sessions, renderer, catalog, logger)
	if err != nil {
		log.Fatalf("Failed to initialize UI server: %v", err)
	}

	go func() {
		addr := ":" + cfg.Server.OpsPort
		logger.Info("ops server listening on %s", addr)
		if err := http.ListenAndServe(addr, server.NewOpsRouter()); err != nil {
			logger.Error("ops server failed: %v", err)
		}
	}()

	if err := server.Run(":" + cfg.Server.Port); err != nil {
		logger.Error("server exited: %v", err)
		os.Exit(1)
	}
}
