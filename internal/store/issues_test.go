// internal/store/issues_test.go
package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"maintenance-dispatch/internal/common/errors"
	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssueStore(t *testing.T) (*IssueStore, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewIssueStore(db, logger.NewTestLogger(t)), mock, db
}

func issueColumns() []string {
	return []string{
		"id", "company_id", "title", "description", "category", "severity",
		"location", "property_id", "requester_id", "status", "contractor_id",
		"estimated_cost", "notes", "created_at", "assigned_at",
	}
}

func TestIssueStore_GetIssue(t *testing.T) {
	store, mock, db := newIssueStore(t)
	defer db.Close()

	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, company_id, title")).
		WithArgs("issue-1").
		WillReturnRows(sqlmock.NewRows(issueColumns()).AddRow(
			"issue-1", "company-1", "Leaking pipe", "Water under sink",
			"PLUMBING", "HIGH", "Unit 2A", "prop-1", "user-1",
			"UNASSIGNED", nil, 150.0, pq.StringArray{}, created, nil,
		))

	issue, err := store.GetIssue(context.Background(), "issue-1")
	require.NoError(t, err)

	assert.Equal(t, "issue-1", issue.ID)
	assert.Equal(t, models.CategoryPlumbing, issue.Category)
	assert.Equal(t, models.StatusUnassigned, issue.Status)
	assert.False(t, issue.Assigned())
	assert.Nil(t, issue.AssignedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueStore_GetIssue_NotFound(t *testing.T) {
	store, mock, db := newIssueStore(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, company_id, title")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetIssue(context.Background(), "missing")
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeIssueNotFound, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

func TestIssueStore_UpdateIssue(t *testing.T) {
	store, mock, db := newIssueStore(t)
	defer db.Close()

	assignedAt := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	issue := &models.Issue{
		ID:            "issue-1",
		Status:        models.StatusAssigned,
		ContractorID:  "contractor-7",
		Severity:      models.SeverityHigh,
		EstimatedCost: 150,
		AssignedAt:    &assignedAt,
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE issues")).
		WithArgs("issue-1", "ASSIGNED", "contractor-7", "HIGH", 150.0,
			sqlmock.AnyArg(), assignedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpdateIssue(context.Background(), issue))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueStore_UpdateIssue_NoRowsIsNotFound(t *testing.T) {
	store, mock, db := newIssueStore(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE issues")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateIssue(context.Background(), &models.Issue{ID: "gone"})
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeIssueNotFound, stdErr.Code)
}

func TestIssueStore_SaveClassification(t *testing.T) {
	store, mock, db := newIssueStore(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO issue_classifications")).
		WithArgs("issue-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.SaveClassification(context.Background(), "issue-1", &models.ClassificationResult{
		Category:   models.CategoryPlumbing,
		Severity:   models.SeverityHigh,
		Urgency:    7,
		Confidence: 0.9,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
