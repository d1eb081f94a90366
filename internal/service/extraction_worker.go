package service

import (
	"context"
	"log"
	"sync"
	"time"

	"finsight/internal/port"
)

// ExtractionWorkerConfig holds settings for the extraction worker.
type ExtractionWorkerConfig struct {
	PollInterval time.Duration
	Concurrency  int
	JobTimeout   time.Duration
}

// ExtractionWorker polls for pending extraction jobs and runs them.
type ExtractionWorker struct {
	jobRepo    port.JobRepository
	extraction ExtractionService
	cfg        ExtractionWorkerConfig
	wg         sync.WaitGroup
}

// NewExtractionWorker creates a new ExtractionWorker.
func NewExtractionWorker(jobRepo port.JobRepository, extraction ExtractionService, cfg ExtractionWorkerConfig) *ExtractionWorker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 15 * time.Minute
	}
	return &ExtractionWorker{
		jobRepo:    jobRepo,
		extraction: extraction,
		cfg:        cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight jobs have finished.
func (w *ExtractionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("extractionWorker: started (poll=%s, concurrency=%d)",
		w.cfg.PollInterval, w.cfg.Concurrency)

	for {
		select {
		case <-ctx.Done():
			log.Printf("extractionWorker: shutting down, waiting for in-flight jobs...")
			w.wg.Wait()
			log.Printf("extractionWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			jobs, err := w.jobRepo.ClaimPending(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					// Context canceled during poll, exit on the next tick
					continue
				}
				log.Printf("extractionWorker: ClaimPending error: %v", err)
				continue
			}

			for i := range jobs {
				job := jobs[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Use a fresh context independent of the poll context
					// so in-flight jobs complete even during shutdown.
					jobCtx, cancel := context.WithTimeout(context.Background(), w.cfg.JobTimeout)
					defer cancel()

					log.Printf("extractionWorker: dispatching job %s (document %s, %d chunks)",
						job.ID, job.DocumentID, job.TotalChunks)
					w.extraction.RunJob(jobCtx, &job)
				}()
			}
		}
	}
}
