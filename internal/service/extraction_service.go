package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"finsight/internal/domain"
	"finsight/internal/metrics"
	"finsight/internal/port"
)

// ExtractionService manages extraction jobs over uploaded documents.
type ExtractionService interface {
	// Trigger starts a new extraction job for a document. The document's
	// unlocked statements are replaced by the job's results; locked ones are
	// preserved and their count recorded on the job.
	Trigger(ctx context.Context, documentID uuid.UUID) (*domain.ExtractionJob, error)
	// GetStatus returns the most recent job for a document.
	GetStatus(ctx context.Context, documentID uuid.UUID) (*domain.ExtractionJob, error)
	// RunJob executes a claimed job to its terminal state.
	RunJob(ctx context.Context, job *domain.ExtractionJob)
}

type extractionService struct {
	docRepo  port.DocumentRepository
	jobRepo  port.JobRepository
	stmtRepo port.StatementRepository
	engine   port.ExtractionEngine
	storage  port.ObjectStorage
	metrics  *metrics.WorkerMetrics

	chunkConcurrency int
}

// NewExtractionService creates a new ExtractionService implementation.
func NewExtractionService(
	docRepo port.DocumentRepository,
	jobRepo port.JobRepository,
	stmtRepo port.StatementRepository,
	engine port.ExtractionEngine,
	storage port.ObjectStorage,
	workerMetrics *metrics.WorkerMetrics,
	chunkConcurrency int,
) ExtractionService {
	if chunkConcurrency <= 0 {
		chunkConcurrency = 4
	}
	return &extractionService{
		docRepo:          docRepo,
		jobRepo:          jobRepo,
		stmtRepo:         stmtRepo,
		engine:           engine,
		storage:          storage,
		metrics:          workerMetrics,
		chunkConcurrency: chunkConcurrency,
	}
}

func (s *extractionService) Trigger(ctx context.Context, documentID uuid.UUID) (*domain.ExtractionJob, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	active, err := s.jobRepo.HasActiveByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, domain.ErrJobConflict
	}

	fileBytes, err := s.storage.Download(ctx, doc.StorageBucket, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("downloading document %s: %w", documentID, err)
	}
	chunks, err := s.engine.PlanChunks(ctx, fileBytes, doc.ContentType)
	if err != nil {
		return nil, fmt.Errorf("planning chunks for document %s: %w", documentID, err)
	}

	// Prior results are replaced only once the job is sure to start.
	preserved, err := s.stmtRepo.DeleteUnlockedByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	job := &domain.ExtractionJob{
		ID:              uuid.New(),
		DocumentID:      documentID,
		Status:          domain.JobStatusPending,
		TotalChunks:     len(chunks),
		LockedPreserved: len(preserved),
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	log.Printf("extractionService.Trigger: job %s queued for document %s (%d chunks, %d locked preserved)",
		job.ID, documentID, job.TotalChunks, job.LockedPreserved)
	return job, nil
}

func (s *extractionService) GetStatus(ctx context.Context, documentID uuid.UUID) (*domain.ExtractionJob, error) {
	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.jobRepo.GetLatestByDocument(ctx, documentID)
}

// foldState accumulates per-statement results while a job's chunks land.
// Access is serialized by the job-run mutex; one non-terminal job per
// document makes that a per-document lock.
type foldState struct {
	mu       sync.Mutex
	byKey    map[port.StatementKey]*foldEntry
	locked   map[port.StatementKey]bool
	firstErr error
}

type foldEntry struct {
	statementID uuid.UUID
	labels      map[string]bool
}

func (s *extractionService) RunJob(ctx context.Context, job *domain.ExtractionJob) {
	s.metrics.StartJob()
	start := time.Now()

	err := s.runChunks(ctx, job)
	if err != nil {
		log.Printf("extractionService.RunJob: job %s failed: %v", job.ID, err)
		if termErr := s.jobRepo.MarkTerminal(ctx, job.ID, domain.JobStatusFailed, err.Error()); termErr != nil {
			log.Printf("extractionService.RunJob: marking job %s failed: %v", job.ID, termErr)
		}
	} else {
		log.Printf("extractionService.RunJob: job %s completed in %s", job.ID, time.Since(start))
		if termErr := s.jobRepo.MarkTerminal(ctx, job.ID, domain.JobStatusCompleted, ""); termErr != nil {
			log.Printf("extractionService.RunJob: marking job %s completed: %v", job.ID, termErr)
		}
	}

	s.metrics.FinishJob(time.Since(start), err)
}

func (s *extractionService) runChunks(ctx context.Context, job *domain.ExtractionJob) error {
	doc, err := s.docRepo.GetByID(ctx, job.DocumentID)
	if err != nil {
		return err
	}
	fileBytes, err := s.storage.Download(ctx, doc.StorageBucket, doc.StorageKey)
	if err != nil {
		return fmt.Errorf("downloading document %s: %w", doc.ID, err)
	}
	// Planning is deterministic over the same bytes, so the worker sees the
	// chunk boundaries the trigger counted.
	chunks, err := s.engine.PlanChunks(ctx, fileBytes, doc.ContentType)
	if err != nil {
		return fmt.Errorf("planning chunks for document %s: %w", doc.ID, err)
	}

	state := &foldState{
		byKey:  make(map[port.StatementKey]*foldEntry),
		locked: make(map[port.StatementKey]bool),
	}
	existing, err := s.stmtRepo.ListByDocument(ctx, job.DocumentID, false)
	if err != nil {
		return err
	}
	for _, stmt := range existing {
		if stmt.Locked {
			state.locked[port.StatementKey{StatementType: stmt.StatementType, Period: stmt.Period}] = true
		}
	}

	sem := make(chan struct{}, s.chunkConcurrency)
	var wg sync.WaitGroup

	for _, chunk := range chunks {
		chunk := chunk
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			chunkErr := s.processChunk(ctx, job, doc, fileBytes, chunk, state)
			s.metrics.ObserveChunk(chunkErr)
			if chunkErr != nil {
				state.mu.Lock()
				if state.firstErr == nil {
					state.firstErr = fmt.Errorf("chunk %d: %w", chunk.Index, chunkErr)
				}
				state.mu.Unlock()
			}
		}()
	}
	wg.Wait()

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.firstErr
}

func (s *extractionService) processChunk(ctx context.Context, job *domain.ExtractionJob, doc *domain.Document, fileBytes []byte, chunk port.Chunk, state *foldState) error {
	statements, err := s.engine.ExtractChunk(ctx, fileBytes, doc.ContentType, chunk)
	if err != nil {
		return err
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fold(ctx, job, statements, state); err != nil {
		return err
	}
	// Counts successes only, so completed == total implies every chunk landed.
	return s.jobRepo.IncrementCompleted(ctx, job.ID)
}

// fold merges one chunk's statements into the document. The first chunk to
// see a (statement_type, period) creates the statement; later chunks append
// only items whose effective label is new. Caller holds state.mu.
func (s *extractionService) fold(ctx context.Context, job *domain.ExtractionJob, statements []port.ChunkStatement, state *foldState) error {
	for _, cs := range statements {
		stmtType := domain.StatementType(cs.StatementType)
		if !domain.ValidStatementTypes[stmtType] {
			log.Printf("extractionService.fold: job %s skipping unknown statement type %q", job.ID, cs.StatementType)
			continue
		}
		key := port.StatementKey{StatementType: stmtType, Period: cs.Period}
		if state.locked[key] {
			continue
		}

		entry, ok := state.byKey[key]
		if !ok {
			stmt := &domain.Statement{
				ID:            uuid.New(),
				DocumentID:    job.DocumentID,
				StatementType: stmtType,
				Period:        cs.Period,
				PeriodEndDate: cs.PeriodEndDate,
				Currency:      cs.Currency,
				Unit:          cs.Unit,
				SourcePages:   cs.SourcePages,
				ReviewStatus:  domain.ReviewStatusPending,
			}
			items := buildLineItems(cs.LineItems, 0)
			if err := s.stmtRepo.CreateWithItems(ctx, stmt, items); err != nil {
				return err
			}
			entry = &foldEntry{statementID: stmt.ID, labels: make(map[string]bool, len(items))}
			for _, item := range items {
				entry.labels[foldLabel(item.Label)] = true
			}
			state.byKey[key] = entry
			continue
		}

		var fresh []port.ChunkLineItem
		for _, li := range cs.LineItems {
			if !entry.labels[foldLabel(li.Label)] {
				fresh = append(fresh, li)
			}
		}
		if len(fresh) == 0 {
			continue
		}
		items := buildLineItems(fresh, 0)
		if err := s.stmtRepo.AppendItems(ctx, entry.statementID, items); err != nil {
			return err
		}
		for _, item := range items {
			entry.labels[foldLabel(item.Label)] = true
		}
	}
	return nil
}

func buildLineItems(src []port.ChunkLineItem, startOrder int) []domain.LineItem {
	items := make([]domain.LineItem, 0, len(src))
	for i, li := range src {
		category := li.Category
		if category == "" {
			category = "other"
		}
		items = append(items, domain.LineItem{
			ID:          uuid.New(),
			Category:    category,
			Label:       li.Label,
			Value:       li.Value,
			IsTotal:     li.IsTotal,
			IndentLevel: li.IndentLevel,
			SortOrder:   startOrder + i,
		})
	}
	return items
}

func foldLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
