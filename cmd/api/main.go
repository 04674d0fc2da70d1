package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/docrisk/internal/api"
	"github.com/dvloznov/docrisk/internal/api/handlers"
	"github.com/dvloznov/docrisk/internal/app"
	"github.com/dvloznov/docrisk/internal/config"
	"github.com/dvloznov/docrisk/internal/jobs"
	"github.com/dvloznov/docrisk/internal/jobs/inmemory"
	"github.com/dvloznov/docrisk/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Parse command-line flags
	var (
		port   = flag.String("port", cfg.Server.Port, "HTTP server port (or set PORT env)")
		bucket = flag.String("bucket", cfg.GCS.Bucket, "GCS bucket for archived uploads (or set GCS_BUCKET env)")
	)
	flag.Parse()

	log := logger.NewWithLevel(cfg.Log.Level, nil)
	ctx := logger.WithContext(context.Background(), log)

	if *bucket == "" {
		log.Warn().Msg("No GCS bucket configured - upload archiving and gs:// jobs will be disabled")
	}

	a, err := app.Build(ctx, cfg, log, app.Options{GCS: *bucket != ""})
	if err != nil {
		a.Close()
		log.Fatal().Err(err).Msg("Failed to build analysis stack")
	}
	defer a.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Jobs.BufferSize, jobStore,
		inmemory.WithWorkers(cfg.Jobs.Workers),
		inmemory.WithMaxRetries(cfg.Jobs.MaxRetries),
	)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, jobs.NewAnalyzeHandler(a.Analyzer, a.Loader())); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job queue")
	}

	var sweeper *jobs.RetentionSweeper
	if cfg.Jobs.RetentionSchedule != "" {
		sweeper, err = jobs.NewRetentionSweeper(cfg.Jobs.RetentionSchedule, cfg.Jobs.RetentionMaxAge, jobStore, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create job retention sweeper")
		}
		sweeper.Start()
	}

	docs := handlers.DocumentsConfig{
		Bucket:         *bucket,
		Publisher:      jobQueue,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}
	if a.Storage != nil {
		docs.Storage = a.Storage
	}

	server := &http.Server{
		Addr: ":" + *port,
		Handler: api.NewRouter(api.Deps{
			Analyzer:   a.Analyzer,
			Extractor:  a.Extractor,
			Documents:  docs,
			Repository: a.Repository,
			JobStore:   jobStore,
			Log:        log,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if sweeper != nil {
		if err := sweeper.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping retention sweeper")
		}
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
