package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finsight/internal/domain"
	"finsight/mocks"
)

type statementFixture struct {
	docRepo  *mocks.MockDocumentRepo
	jobRepo  *mocks.MockJobRepo
	stmtRepo *mocks.MockStatementRepo
	svc      StatementService
}

func newStatementFixture() *statementFixture {
	f := &statementFixture{
		docRepo:  &mocks.MockDocumentRepo{},
		jobRepo:  &mocks.MockJobRepo{},
		stmtRepo: &mocks.MockStatementRepo{},
	}
	f.svc = NewStatementService(f.docRepo, f.jobRepo, f.stmtRepo)
	return f
}

func TestListByDocumentIncludesLatestJob(t *testing.T) {
	f := newStatementFixture()
	docID := uuid.New()
	job := &domain.ExtractionJob{ID: uuid.New(), DocumentID: docID, Status: domain.JobStatusCompleted}

	f.docRepo.On("GetByID", mock.Anything, docID).Return(&domain.Document{ID: docID}, nil)
	f.stmtRepo.On("ListByDocument", mock.Anything, docID, true).
		Return([]domain.Statement{{ID: uuid.New(), DocumentID: docID}}, nil)
	f.jobRepo.On("GetLatestByDocument", mock.Anything, docID).Return(job, nil)

	result, err := f.svc.ListByDocument(context.Background(), docID)

	require.NoError(t, err)
	assert.Len(t, result.Statements, 1)
	assert.Equal(t, job, result.LatestJob)
}

func TestListByDocumentToleratesNoJob(t *testing.T) {
	f := newStatementFixture()
	docID := uuid.New()

	f.docRepo.On("GetByID", mock.Anything, docID).Return(&domain.Document{ID: docID}, nil)
	f.stmtRepo.On("ListByDocument", mock.Anything, docID, true).Return([]domain.Statement{}, nil)
	f.jobRepo.On("GetLatestByDocument", mock.Anything, docID).Return(nil, domain.ErrJobNotFound)

	result, err := f.svc.ListByDocument(context.Background(), docID)

	require.NoError(t, err)
	assert.Empty(t, result.Statements)
	assert.Nil(t, result.LatestJob)
}

func TestListByDocumentUnknownDocument(t *testing.T) {
	f := newStatementFixture()
	docID := uuid.New()

	f.docRepo.On("GetByID", mock.Anything, docID).Return(nil, domain.ErrDocumentNotFound)

	_, err := f.svc.ListByDocument(context.Background(), docID)

	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestListByInvestmentRejectsUnknownType(t *testing.T) {
	f := newStatementFixture()

	_, err := f.svc.ListByInvestment(context.Background(), uuid.New(), domain.StatementType("ledger"))

	assert.ErrorIs(t, err, domain.ErrInvalidStatementType)
}

func TestListByInvestmentAllTypes(t *testing.T) {
	f := newStatementFixture()
	investmentID := uuid.New()

	f.stmtRepo.On("ListByInvestment", mock.Anything, investmentID, domain.StatementType(""), true).
		Return([]domain.Statement{{ID: uuid.New()}}, nil)

	stmts, err := f.svc.ListByInvestment(context.Background(), investmentID, "")

	require.NoError(t, err)
	assert.Len(t, stmts, 1)
}
