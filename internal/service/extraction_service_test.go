package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finsight/internal/domain"
	"finsight/internal/metrics"
	"finsight/internal/port"
	"finsight/mocks"
)

type extractionFixture struct {
	docRepo  *mocks.MockDocumentRepo
	jobRepo  *mocks.MockJobRepo
	stmtRepo *mocks.MockStatementRepo
	engine   *mocks.MockExtractionEngine
	storage  *mocks.MockObjectStorage
	svc      ExtractionService
}

func newExtractionFixture() *extractionFixture {
	f := &extractionFixture{
		docRepo:  &mocks.MockDocumentRepo{},
		jobRepo:  &mocks.MockJobRepo{},
		stmtRepo: &mocks.MockStatementRepo{},
		engine:   &mocks.MockExtractionEngine{},
		storage:  &mocks.MockObjectStorage{},
	}
	// Chunk concurrency of 1 keeps chunk order deterministic in tests.
	f.svc = NewExtractionService(f.docRepo, f.jobRepo, f.stmtRepo, f.engine, f.storage, metrics.NewWorkerMetrics(), 1)
	return f
}

func testDocument() *domain.Document {
	return &domain.Document{
		ID:            uuid.New(),
		DocumentType:  domain.DocumentTypePDF,
		StorageBucket: "finsight-documents",
		StorageKey:    "docs/report.pdf",
		ContentType:   "application/pdf",
	}
}

func chunkStatement(stmtType, period string, labels ...string) port.ChunkStatement {
	cs := port.ChunkStatement{StatementType: stmtType, Period: period, Currency: "USD", Unit: "thousands"}
	for _, label := range labels {
		v := 100.0
		cs.LineItems = append(cs.LineItems, port.ChunkLineItem{Category: "revenue", Label: label, Value: &v})
	}
	return cs
}

func TestTriggerRejectsActiveJob(t *testing.T) {
	f := newExtractionFixture()
	doc := testDocument()

	f.docRepo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	f.jobRepo.On("HasActiveByDocument", mock.Anything, doc.ID).Return(true, nil)

	_, err := f.svc.Trigger(context.Background(), doc.ID)
	assert.ErrorIs(t, err, domain.ErrJobConflict)
	f.stmtRepo.AssertNotCalled(t, "DeleteUnlockedByDocument", mock.Anything, mock.Anything)
}

func TestTriggerCreatesPendingJobAndPreservesLocked(t *testing.T) {
	f := newExtractionFixture()
	doc := testDocument()

	f.docRepo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	f.jobRepo.On("HasActiveByDocument", mock.Anything, doc.ID).Return(false, nil)
	f.storage.On("Download", mock.Anything, doc.StorageBucket, doc.StorageKey).Return([]byte("%PDF-"), nil)
	f.engine.On("PlanChunks", mock.Anything, mock.Anything, doc.ContentType).Return([]port.Chunk{
		{Index: 0, StartPage: 1, EndPage: 10},
		{Index: 1, StartPage: 10, EndPage: 19},
		{Index: 2, StartPage: 19, EndPage: 24},
	}, nil)
	f.stmtRepo.On("DeleteUnlockedByDocument", mock.Anything, doc.ID).Return([]port.StatementKey{
		{StatementType: domain.StatementTypeIncome, Period: "FY2023"},
	}, nil)
	f.jobRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ExtractionJob")).Return(nil)

	job, err := f.svc.Trigger(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, job.Status)
	assert.Equal(t, 3, job.TotalChunks)
	assert.Equal(t, 0, job.CompletedChunks)
	assert.Equal(t, 1, job.LockedPreserved)
}

func TestRunJobPartialFailureRetainsFoldedChunks(t *testing.T) {
	f := newExtractionFixture()
	doc := testDocument()
	job := &domain.ExtractionJob{ID: uuid.New(), DocumentID: doc.ID, Status: domain.JobStatusProcessing, TotalChunks: 3}

	chunks := []port.Chunk{{Index: 0, StartPage: 1, EndPage: 5}, {Index: 1, StartPage: 5, EndPage: 9}, {Index: 2, StartPage: 9, EndPage: 12}}

	f.docRepo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	f.storage.On("Download", mock.Anything, doc.StorageBucket, doc.StorageKey).Return([]byte("%PDF-"), nil)
	f.engine.On("PlanChunks", mock.Anything, mock.Anything, doc.ContentType).Return(chunks, nil)
	f.stmtRepo.On("ListByDocument", mock.Anything, doc.ID, false).Return([]domain.Statement{}, nil)

	f.engine.On("ExtractChunk", mock.Anything, mock.Anything, doc.ContentType, chunks[0]).
		Return([]port.ChunkStatement{chunkStatement("income_statement", "Q1 2024", "Revenue")}, nil)
	f.engine.On("ExtractChunk", mock.Anything, mock.Anything, doc.ContentType, chunks[1]).
		Return(nil, errors.New("upstream timeout"))
	f.engine.On("ExtractChunk", mock.Anything, mock.Anything, doc.ContentType, chunks[2]).
		Return([]port.ChunkStatement{chunkStatement("income_statement", "Q2 2024", "Revenue")}, nil)

	f.stmtRepo.On("CreateWithItems", mock.Anything, mock.AnythingOfType("*domain.Statement"), mock.Anything).Return(nil).Twice()
	f.jobRepo.On("IncrementCompleted", mock.Anything, job.ID).Return(nil).Twice()
	f.jobRepo.On("MarkTerminal", mock.Anything, job.ID, domain.JobStatusFailed, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil).Once()

	f.svc.RunJob(context.Background(), job)

	f.stmtRepo.AssertExpectations(t)
	f.jobRepo.AssertExpectations(t)
}

func TestRunJobFoldAppendsOnlyNewLabels(t *testing.T) {
	f := newExtractionFixture()
	doc := testDocument()
	job := &domain.ExtractionJob{ID: uuid.New(), DocumentID: doc.ID, Status: domain.JobStatusProcessing, TotalChunks: 2}

	chunks := []port.Chunk{{Index: 0, StartPage: 1, EndPage: 5}, {Index: 1, StartPage: 5, EndPage: 9}}

	f.docRepo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	f.storage.On("Download", mock.Anything, doc.StorageBucket, doc.StorageKey).Return([]byte("%PDF-"), nil)
	f.engine.On("PlanChunks", mock.Anything, mock.Anything, doc.ContentType).Return(chunks, nil)
	f.stmtRepo.On("ListByDocument", mock.Anything, doc.ID, false).Return([]domain.Statement{}, nil)

	f.engine.On("ExtractChunk", mock.Anything, mock.Anything, doc.ContentType, chunks[0]).
		Return([]port.ChunkStatement{chunkStatement("income_statement", "Q1 2024", "Revenue", "COGS")}, nil)
	f.engine.On("ExtractChunk", mock.Anything, mock.Anything, doc.ContentType, chunks[1]).
		Return([]port.ChunkStatement{chunkStatement("income_statement", "Q1 2024", "Revenue", "Operating Expenses")}, nil)

	f.stmtRepo.On("CreateWithItems", mock.Anything, mock.AnythingOfType("*domain.Statement"), mock.MatchedBy(func(items []domain.LineItem) bool {
		return len(items) == 2
	})).Return(nil).Once()
	f.stmtRepo.On("AppendItems", mock.Anything, mock.Anything, mock.MatchedBy(func(items []domain.LineItem) bool {
		return len(items) == 1 && items[0].Label == "Operating Expenses"
	})).Return(nil).Once()
	f.jobRepo.On("IncrementCompleted", mock.Anything, job.ID).Return(nil).Twice()
	f.jobRepo.On("MarkTerminal", mock.Anything, job.ID, domain.JobStatusCompleted, "").Return(nil).Once()

	f.svc.RunJob(context.Background(), job)

	f.stmtRepo.AssertExpectations(t)
	f.jobRepo.AssertExpectations(t)
}

func TestRunJobSkipsLockedStatementKeys(t *testing.T) {
	f := newExtractionFixture()
	doc := testDocument()
	job := &domain.ExtractionJob{ID: uuid.New(), DocumentID: doc.ID, Status: domain.JobStatusProcessing, TotalChunks: 1}

	chunks := []port.Chunk{{Index: 0, StartPage: 1, EndPage: 5}}

	f.docRepo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	f.storage.On("Download", mock.Anything, doc.StorageBucket, doc.StorageKey).Return([]byte("%PDF-"), nil)
	f.engine.On("PlanChunks", mock.Anything, mock.Anything, doc.ContentType).Return(chunks, nil)
	f.stmtRepo.On("ListByDocument", mock.Anything, doc.ID, false).Return([]domain.Statement{
		{DocumentID: doc.ID, StatementType: domain.StatementTypeIncome, Period: "Q1 2024", Locked: true},
	}, nil)
	f.engine.On("ExtractChunk", mock.Anything, mock.Anything, doc.ContentType, chunks[0]).
		Return([]port.ChunkStatement{chunkStatement("income_statement", "Q1 2024", "Revenue")}, nil)
	f.jobRepo.On("IncrementCompleted", mock.Anything, job.ID).Return(nil).Once()
	f.jobRepo.On("MarkTerminal", mock.Anything, job.ID, domain.JobStatusCompleted, "").Return(nil).Once()

	f.svc.RunJob(context.Background(), job)

	f.stmtRepo.AssertNotCalled(t, "CreateWithItems", mock.Anything, mock.Anything, mock.Anything)
	f.jobRepo.AssertExpectations(t)
}

func TestRunJobIgnoresUnknownStatementTypes(t *testing.T) {
	f := newExtractionFixture()
	doc := testDocument()
	job := &domain.ExtractionJob{ID: uuid.New(), DocumentID: doc.ID, Status: domain.JobStatusProcessing, TotalChunks: 1}

	chunks := []port.Chunk{{Index: 0, StartPage: 1, EndPage: 5}}

	f.docRepo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	f.storage.On("Download", mock.Anything, doc.StorageBucket, doc.StorageKey).Return([]byte("%PDF-"), nil)
	f.engine.On("PlanChunks", mock.Anything, mock.Anything, doc.ContentType).Return(chunks, nil)
	f.stmtRepo.On("ListByDocument", mock.Anything, doc.ID, false).Return([]domain.Statement{}, nil)
	f.engine.On("ExtractChunk", mock.Anything, mock.Anything, doc.ContentType, chunks[0]).
		Return([]port.ChunkStatement{chunkStatement("equity_rollforward", "Q1 2024", "Beginning Balance")}, nil)
	f.jobRepo.On("IncrementCompleted", mock.Anything, job.ID).Return(nil).Once()
	f.jobRepo.On("MarkTerminal", mock.Anything, job.ID, domain.JobStatusCompleted, "").Return(nil).Once()

	f.svc.RunJob(context.Background(), job)

	f.stmtRepo.AssertNotCalled(t, "CreateWithItems", mock.Anything, mock.Anything, mock.Anything)
	f.jobRepo.AssertExpectations(t)
}

func TestGetStatusReturnsLatestJob(t *testing.T) {
	f := newExtractionFixture()
	doc := testDocument()
	job := &domain.ExtractionJob{ID: uuid.New(), DocumentID: doc.ID, Status: domain.JobStatusCompleted}

	f.docRepo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	f.jobRepo.On("GetLatestByDocument", mock.Anything, doc.ID).Return(job, nil)

	got, err := f.svc.GetStatus(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
}
