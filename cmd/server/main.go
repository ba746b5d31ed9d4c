// backend-go/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verdantiq/buyerview/backend-go/internal/api"
	"github.com/verdantiq/buyerview/backend-go/internal/archive"
	"github.com/verdantiq/buyerview/backend-go/internal/cache"
	"github.com/verdantiq/buyerview/backend-go/internal/config"
	"github.com/verdantiq/buyerview/backend-go/internal/repository"
	"github.com/verdantiq/buyerview/backend-go/internal/repository/postgres"
	"github.com/verdantiq/buyerview/backend-go/internal/service"
	"github.com/verdantiq/buyerview/backend-go/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Snapshot persistence is optional; the engine itself is in-memory.
	var repo repository.SnapshotRepository
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
		repo = repository.NewSnapshotRepository(db)
	}

	buyerViewCache, err := cache.NewBuyerViewCache(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to cache")
	}

	var storage archive.ObjectStorage
	if cfg.Archive.Enabled {
		client, err := archive.NewMinioClient(cfg.Archive)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to archive storage")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := client.EnsureBucket(ctx); err != nil {
			cancel()
			logger.Log.Fatal().Err(err).Msg("Failed to prepare archive bucket")
		}
		cancel()
		storage = client
	}

	buyerViewService := service.NewBuyerViewService(repo, buyerViewCache, storage, cfg.App.ExportDir)

	router := api.NewRouter(&api.Services{BuyerView: buyerViewService}, cfg)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
