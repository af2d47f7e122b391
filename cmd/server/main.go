package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"taxline/internal/config"
	"taxline/internal/extract"
	"taxline/internal/handler"
	"taxline/internal/provider"
	_ "taxline/internal/provider/formrec"
	_ "taxline/internal/provider/vision"
	"taxline/internal/repository/postgres"
	"taxline/internal/router"
	"taxline/internal/service"
	s3storage "taxline/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	returnRepo := postgres.NewReturnRepo(db)
	docRepo := postgres.NewDocumentRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize the provider chain and extraction engine
	docProvider, err := provider.NewFromConfig(&cfg.Provider)
	if err != nil {
		return fmt.Errorf("failed to build provider chain: %w", err)
	}
	engineCfg := extract.DefaultConfig()
	if cfg.Engine.ReconcileThreshold != "" {
		threshold, err := decimal.NewFromString(cfg.Engine.ReconcileThreshold)
		if err != nil {
			return fmt.Errorf("invalid reconcile threshold %q: %w", cfg.Engine.ReconcileThreshold, err)
		}
		engineCfg.ReconcileThreshold = threshold
	}
	if cfg.Engine.ProviderTimeoutSecs > 0 {
		engineCfg.ProviderTimeout = time.Duration(cfg.Engine.ProviderTimeoutSecs) * time.Second
	}
	engine := extract.NewEngine(docProvider, engineCfg)

	// Initialize services
	returnSvc := service.NewReturnService(returnRepo, docRepo)
	docSvc := service.NewDocumentService(docRepo, returnRepo, returnSvc, s3Client, engine, cfg.S3.Bucket, cfg.S3.MaxFileSizeMB)

	// Initialize handlers
	returnH := handler.NewReturnHandler(returnSvc)
	docH := handler.NewDocumentHandler(docSvc, returnSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(returnH, docH, healthH, cfg.CORS.AllowedOrigins)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the extraction queue worker
	worker := service.NewExtractQueueWorker(docRepo, docSvc, service.ExtractQueueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		MaxRetries:   cfg.Queue.MaxRetries,
		Concurrency:  cfg.Queue.Concurrency,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(ctx)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		stop()
		<-workerDone
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Printf("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	<-workerDone

	return nil
}
