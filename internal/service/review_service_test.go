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

type reviewFixture struct {
	stmtRepo     *mocks.MockStatementRepo
	lineItemRepo *mocks.MockLineItemRepo
	metricRepo   *mocks.MockMetricRepo
	svc          ReviewService
}

func newReviewFixture() *reviewFixture {
	f := &reviewFixture{
		stmtRepo:     &mocks.MockStatementRepo{},
		lineItemRepo: &mocks.MockLineItemRepo{},
		metricRepo:   &mocks.MockMetricRepo{},
	}
	f.svc = NewReviewService(f.stmtRepo, f.lineItemRepo, f.metricRepo)
	return f
}

func floatPtr(v float64) *float64 { return &v }

func TestEditLineItemRecordsValueHistory(t *testing.T) {
	f := newReviewFixture()
	item := &domain.LineItem{ID: uuid.New(), StatementID: uuid.New(), Label: "Revenue", Value: floatPtr(100)}

	f.lineItemRepo.On("GetByID", mock.Anything, item.ID).Return(item, nil)
	f.lineItemRepo.On("UpdateWithHistory", mock.Anything, item, mock.MatchedBy(func(records []domain.EditRecord) bool {
		return len(records) == 1 &&
			records[0].Field == domain.EditFieldValue &&
			records[0].OldValue != nil && *records[0].OldValue == "100" &&
			records[0].NewValue != nil && *records[0].NewValue == "150"
	})).Return(nil)

	updated, err := f.svc.EditLineItem(context.Background(), item.ID, &EditLineItemInput{EditedValue: floatPtr(150)})
	require.NoError(t, err)
	assert.True(t, updated.IsUserModified)
	require.NotNil(t, updated.EffectiveValue())
	assert.Equal(t, 150.0, *updated.EffectiveValue())
}

func TestEditLineItemRejectedWhenStatementLocked(t *testing.T) {
	f := newReviewFixture()
	item := &domain.LineItem{ID: uuid.New(), StatementID: uuid.New(), Label: "Revenue", Value: floatPtr(150)}

	f.lineItemRepo.On("GetByID", mock.Anything, item.ID).Return(item, nil)
	f.lineItemRepo.On("UpdateWithHistory", mock.Anything, mock.Anything, mock.Anything).Return(domain.ErrStatementLocked)

	_, err := f.svc.EditLineItem(context.Background(), item.ID, &EditLineItemInput{EditedValue: floatPtr(200)})
	assert.ErrorIs(t, err, domain.ErrStatementLocked)
}

func TestEditLineItemClearRestoresExtractedValue(t *testing.T) {
	f := newReviewFixture()
	item := &domain.LineItem{
		ID: uuid.New(), StatementID: uuid.New(),
		Label: "Revenue", Value: floatPtr(100),
		EditedValue: floatPtr(150), IsUserModified: true,
	}

	f.lineItemRepo.On("GetByID", mock.Anything, item.ID).Return(item, nil)
	f.lineItemRepo.On("UpdateWithHistory", mock.Anything, item, mock.MatchedBy(func(records []domain.EditRecord) bool {
		return len(records) == 1 &&
			*records[0].OldValue == "150" && *records[0].NewValue == "100"
	})).Return(nil)

	updated, err := f.svc.EditLineItem(context.Background(), item.ID, &EditLineItemInput{ClearValue: true})
	require.NoError(t, err)
	assert.False(t, updated.IsUserModified)
	assert.Nil(t, updated.EditedValue)
}

func TestEditLineItemNoRecordWhenNothingChanges(t *testing.T) {
	f := newReviewFixture()
	item := &domain.LineItem{ID: uuid.New(), StatementID: uuid.New(), Label: "Revenue", Value: floatPtr(100)}

	f.lineItemRepo.On("GetByID", mock.Anything, item.ID).Return(item, nil)
	f.lineItemRepo.On("UpdateWithHistory", mock.Anything, item, mock.MatchedBy(func(records []domain.EditRecord) bool {
		return len(records) == 0
	})).Return(nil)

	updated, err := f.svc.EditLineItem(context.Background(), item.ID, &EditLineItemInput{EditedValue: floatPtr(100)})
	require.NoError(t, err)
	// An override equal to the extracted value is not a user modification.
	assert.False(t, updated.IsUserModified)
}

func TestSetReviewStatusForwardOnly(t *testing.T) {
	f := newReviewFixture()
	stmtID := uuid.New()
	stmt := &domain.Statement{ID: stmtID, ReviewStatus: domain.ReviewStatusReviewed}

	f.stmtRepo.On("GetByID", mock.Anything, stmtID).Return(stmt, nil)

	err := f.svc.SetReviewStatus(context.Background(), stmtID, domain.ReviewStatusPending)
	assert.ErrorIs(t, err, domain.ErrInvalidReviewTransition)

	f.stmtRepo.On("SetReviewStatus", mock.Anything, stmtID, domain.ReviewStatusApproved).Return(nil)
	err = f.svc.SetReviewStatus(context.Background(), stmtID, domain.ReviewStatusApproved)
	assert.NoError(t, err)
}

func TestSetReviewStatusSameStatusIsNoOp(t *testing.T) {
	f := newReviewFixture()
	stmtID := uuid.New()
	stmt := &domain.Statement{ID: stmtID, ReviewStatus: domain.ReviewStatusReviewed}

	f.stmtRepo.On("GetByID", mock.Anything, stmtID).Return(stmt, nil)

	err := f.svc.SetReviewStatus(context.Background(), stmtID, domain.ReviewStatusReviewed)
	assert.NoError(t, err)
	f.stmtRepo.AssertNotCalled(t, "SetReviewStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetReviewStatusRejectsUnknownStatus(t *testing.T) {
	f := newReviewFixture()

	err := f.svc.SetReviewStatus(context.Background(), uuid.New(), domain.ReviewStatus("archived"))
	assert.ErrorIs(t, err, domain.ErrInvalidReviewTransition)
}

func TestSetReviewStatusRejectedWhenLocked(t *testing.T) {
	f := newReviewFixture()
	stmtID := uuid.New()
	stmt := &domain.Statement{ID: stmtID, ReviewStatus: domain.ReviewStatusApproved, Locked: true}

	f.stmtRepo.On("GetByID", mock.Anything, stmtID).Return(stmt, nil)

	err := f.svc.SetReviewStatus(context.Background(), stmtID, domain.ReviewStatusApproved)
	assert.ErrorIs(t, err, domain.ErrStatementLocked)
}

func TestLockIsIdempotent(t *testing.T) {
	f := newReviewFixture()
	stmtID := uuid.New()

	f.stmtRepo.On("GetByID", mock.Anything, stmtID).Return(&domain.Statement{ID: stmtID}, nil).Once()
	f.stmtRepo.On("Lock", mock.Anything, stmtID).Return(nil).Once()
	require.NoError(t, f.svc.Lock(context.Background(), stmtID))

	f.stmtRepo.On("GetByID", mock.Anything, stmtID).Return(&domain.Statement{ID: stmtID, Locked: true, ReviewStatus: domain.ReviewStatusApproved}, nil).Once()
	require.NoError(t, f.svc.Lock(context.Background(), stmtID))

	f.stmtRepo.AssertNumberOfCalls(t, "Lock", 1)
}

func TestOverrideCanonicalValidatesCatalog(t *testing.T) {
	f := newReviewFixture()
	item := &domain.LineItem{ID: uuid.New(), StatementID: uuid.New(), Label: "Revenue"}

	f.lineItemRepo.On("GetByID", mock.Anything, item.ID).Return(item, nil)
	f.metricRepo.On("ListCatalog", mock.Anything).Return([]domain.CanonicalMetric{
		{ID: uuid.New(), Name: "Total Revenue", StatementType: domain.StatementTypeIncome},
	}, nil)

	_, err := f.svc.OverrideCanonical(context.Background(), item.ID, "Unknown Metric")
	assert.ErrorIs(t, err, domain.ErrMetricNotFound)

	f.lineItemRepo.On("UpdateWithHistory", mock.Anything, item, mock.MatchedBy(func(records []domain.EditRecord) bool {
		return len(records) == 1 && records[0].Field == domain.EditFieldCanonical &&
			records[0].OldValue == nil && *records[0].NewValue == "Total Revenue"
	})).Return(nil)

	updated, err := f.svc.OverrideCanonical(context.Background(), item.ID, "Total Revenue")
	require.NoError(t, err)
	assert.Equal(t, domain.CanonicalSourceUser, updated.CanonicalSource)
	require.NotNil(t, updated.CanonicalLabel)
	assert.Equal(t, "Total Revenue", *updated.CanonicalLabel)
}
