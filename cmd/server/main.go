package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finsight/internal/config"
	"finsight/internal/engine/claude"
	"finsight/internal/handler"
	"finsight/internal/metrics"
	"finsight/internal/repository/postgres"
	"finsight/internal/router"
	"finsight/internal/service"
	s3storage "finsight/internal/storage/s3"
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
	docRepo := postgres.NewDocumentRepo(db)
	jobRepo := postgres.NewJobRepo(db)
	stmtRepo := postgres.NewStatementRepo(db)
	lineItemRepo := postgres.NewLineItemRepo(db)
	metricRepo := postgres.NewMetricRepo(db)

	// Initialize storage and extraction engine
	storage, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	engine := claude.NewEngine(&cfg.Engine)
	workerMetrics := metrics.NewWorkerMetrics()

	// Initialize services
	extractionSvc := service.NewExtractionService(docRepo, jobRepo, stmtRepo, engine, storage, workerMetrics, cfg.Worker.ChunkConcurrency)
	statementSvc := service.NewStatementService(docRepo, jobRepo, stmtRepo)
	reviewSvc := service.NewReviewService(stmtRepo, lineItemRepo, metricRepo)
	normalizeSvc := service.NewNormalizeService(lineItemRepo, metricRepo)
	mappingSvc := service.NewMappingService(stmtRepo, docRepo)
	trendSvc := service.NewTrendService(stmtRepo, metricRepo)

	// Initialize handlers
	extractionH := handler.NewExtractionHandler(extractionSvc)
	statementH := handler.NewStatementHandler(statementSvc, reviewSvc, mappingSvc)
	lineItemH := handler.NewLineItemHandler(reviewSvc)
	investmentH := handler.NewInvestmentHandler(statementSvc, normalizeSvc, trendSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(extractionH, statementH, lineItemH, investmentH, healthH, workerMetrics.Handler(), cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start the extraction worker alongside the HTTP server. Canceling
	// workerCtx drains in-flight jobs before Start returns.
	workerCtx, stopWorker := context.WithCancel(context.Background())
	worker := service.NewExtractionWorker(jobRepo, extractionSvc, service.ExtractionWorkerConfig{
		PollInterval: time.Duration(cfg.Worker.PollIntervalSecs) * time.Second,
		Concurrency:  cfg.Worker.Concurrency,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(workerCtx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		stopWorker()
		<-workerDone
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Printf("Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown: %v", err)
	}

	stopWorker()
	<-workerDone

	return nil
}
